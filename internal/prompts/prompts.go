// Package prompts holds every reasoning-component template as configuration:
// an embedded YAML mapping template id -> parametrized text plus the
// enumerated placeholder names it requires. Placeholder integrity is checked
// once at startup, not at call time.
package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

//go:embed templates.yml
var embeddedTemplates []byte

// Template ids known to the rest of the codebase.
const (
	AttractionDiscovery  = "attraction_discovery"
	AttractionsSchema    = "attractions_schema"
	ItineraryPlan        = "itinerary_plan"
	ItinerarySchema      = "itinerary_schema"
	ItineraryRepair      = "itinerary_repair"
	JSONReformat         = "json_reformat"
	PreferenceExtraction = "preference_extraction"
	PreferencesSchema    = "preferences_schema"
	NameNormalization    = "name_normalization"
	HotelProTips         = "hotel_pro_tips"
)

// Template is one parametrized prompt. Placeholders are {name} tokens.
type Template struct {
	Required []string `mapstructure:"required"`
	Text     string   `mapstructure:"text"`
}

// Store resolves template ids to rendered prompt text.
type Store struct {
	templates map[string]Template
}

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Load parses the embedded template file and validates every template's
// placeholder set. A bad template aborts startup rather than failing the
// first run that happens to render it.
func Load() (*Store, error) {
	v := viper.New()
	v.SetConfigType("yml")
	if err := v.ReadConfig(bytes.NewReader(embeddedTemplates)); err != nil {
		return nil, fmt.Errorf("failed to read embedded prompt templates: %w", err)
	}

	raw := make(map[string]Template)
	if err := v.UnmarshalKey("templates", &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompt templates: %w", err)
	}

	return newStore(raw)
}

func newStore(raw map[string]Template) (*Store, error) {
	s := &Store{templates: raw}
	for id, tpl := range raw {
		declared := make(map[string]bool, len(tpl.Required))
		for _, name := range tpl.Required {
			declared[name] = true
			if !strings.Contains(tpl.Text, "{"+name+"}") {
				return nil, fmt.Errorf("template %q: required placeholder {%s} not present in text", id, name)
			}
		}
		for _, match := range placeholderPattern.FindAllStringSubmatch(tpl.Text, -1) {
			if !declared[match[1]] {
				return nil, fmt.Errorf("template %q: placeholder {%s} is not declared as required", id, match[1])
			}
		}
	}
	return s, nil
}

// IDs lists the loaded template ids, sorted.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.templates))
	for id := range s.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Render expands the template's placeholders from vars. Every required
// placeholder must be supplied; unknown ids and missing values are errors so
// a prompt never goes out with a dangling {token}.
func (s *Store) Render(id string, vars map[string]string) (string, error) {
	tpl, ok := s.templates[id]
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q", id)
	}
	for _, name := range tpl.Required {
		if _, ok := vars[name]; !ok {
			return "", fmt.Errorf("prompt template %q: missing value for {%s}", id, name)
		}
	}
	text := tpl.Text
	for name, value := range vars {
		text = strings.ReplaceAll(text, "{"+name+"}", value)
	}
	return strings.TrimSpace(text), nil
}
