package itinerary

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

// planDocument is the wire shape of the model's planning answer.
type planDocument struct {
	Days               []types.DayPlan           `json:"days"`
	OmittedAttractions []types.OmittedAttraction `json:"omitted_attractions"`
}

// canonicalizeNames rewrites every referenced name to the candidate list's
// exact casing so validation and map links key on one spelling.
func canonicalizeNames(doc *planDocument, candidates []string) {
	canon := make(map[string]string, len(candidates))
	for _, name := range candidates {
		canon[strings.ToLower(name)] = name
	}
	for di := range doc.Days {
		for ai := range doc.Days[di].Attractions {
			name := strings.TrimSpace(doc.Days[di].Attractions[ai].Name)
			if c, ok := canon[strings.ToLower(name)]; ok {
				name = c
			}
			doc.Days[di].Attractions[ai].Name = name
		}
	}
	for oi := range doc.OmittedAttractions {
		name := strings.TrimSpace(doc.OmittedAttractions[oi].Name)
		if c, ok := canon[strings.ToLower(name)]; ok {
			name = c
		}
		doc.OmittedAttractions[oi].Name = name
	}
}

// validatePlan checks the hard invariants the model's answer must satisfy.
// Problems come back one per line, phrased to be pasted into the repair
// prompt. The model is never trusted on any of these.
func validatePlan(doc *planDocument, days int, candidates []string) []string {
	var problems []string

	if len(doc.Days) != days {
		problems = append(problems, fmt.Sprintf("expected exactly %d days, got %d", days, len(doc.Days)))
	}
	for i, day := range doc.Days {
		if day.Day != i+1 {
			problems = append(problems, fmt.Sprintf("days must be numbered 1..%d without gaps; position %d is numbered %d", days, i+1, day.Day))
		}
		if len(day.Attractions) == 0 {
			problems = append(problems, fmt.Sprintf("day %d has no attractions", i+1))
		}
	}

	known := make(map[string]bool, len(candidates))
	for _, name := range candidates {
		known[strings.ToLower(name)] = true
	}

	counts := make(map[string]int, len(candidates))
	for _, day := range doc.Days {
		for _, ref := range day.Attractions {
			key := strings.ToLower(ref.Name)
			counts[key]++
			if !known[key] {
				problems = append(problems, fmt.Sprintf("unknown attraction %q", ref.Name))
			}
		}
	}
	for _, om := range doc.OmittedAttractions {
		key := strings.ToLower(om.Name)
		counts[key]++
		if !known[key] {
			problems = append(problems, fmt.Sprintf("unknown omitted attraction %q", om.Name))
		}
	}

	for _, name := range candidates {
		switch counts[strings.ToLower(name)] {
		case 0:
			problems = append(problems, fmt.Sprintf("attraction %q is missing from the plan", name))
		case 1:
		default:
			problems = append(problems, fmt.Sprintf("attraction %q appears more than once", name))
		}
	}
	return problems
}
