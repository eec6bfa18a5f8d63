package types

// AttractionRef references a candidate attraction by name inside a day plan.
type AttractionRef struct {
	Name string `json:"name"`
}

// DayPlan is one day of the itinerary. Day indexes are 1-based and
// contiguous; the attraction order is the visiting order.
type DayPlan struct {
	Day         int             `json:"day"`
	Attractions []AttractionRef `json:"attractions"`
	MapLink     string          `json:"map_link"`
}

// OmittedAttraction is a candidate that did not fit the plan, with the
// justification shown to the user.
type OmittedAttraction struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Itinerary is the final plan artifact. Every candidate attraction appears in
// exactly one of {some day, omitted_attractions}.
type Itinerary struct {
	City               string              `json:"city"`
	Days               []DayPlan           `json:"days"`
	OmittedAttractions []OmittedAttraction `json:"omitted_attractions,omitempty"`
}

// PlannedCount returns the number of attractions placed across all days.
func (i *Itinerary) PlannedCount() int {
	n := 0
	for _, d := range i.Days {
		n += len(d.Attractions)
	}
	return n
}
