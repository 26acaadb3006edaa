package pipeline

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/scout-cli/internal/model"
)

// DefaultFilterRules is the built-in compliance pack seeded at migrate
// time. Rule names are unique; re-seeding never overwrites operator
// edits.
func DefaultFilterRules() []model.FilterRule {
	return []model.FilterRule{
		{
			FilterType: "income_claim",
			Name:       "guaranteed_income_claims",
			Severity:   model.SeverityCritical,
			Patterns:   []string{"guaranteed income", "guaranteed earnings", "siguradong kita", "risk-free income", "double your money"},
			Active:     true,
		},
		{
			FilterType: "health_claim",
			Name:       "medical_cure_claims",
			Severity:   model.SeverityCritical,
			Patterns:   []string{"cures cancer", "gamot sa cancer", "cures diabetes", "fda approved cure", "miracle cure"},
			Active:     true,
		},
		{
			FilterType: "pressure_tactic",
			Name:       "high_pressure_language",
			Severity:   model.SeverityHigh,
			Patterns:   []string{"last chance ever", "pay right now or", "huwag sabihin sa pamilya", "secret lang natin"},
			Active:     true,
		},
		{
			FilterType: "contact_policy",
			Name:       "minor_contact",
			Severity:   model.SeverityCritical,
			Patterns:   []string{"i'm a minor", "menor de edad", "under 18", "17 years old", "16 years old"},
			Active:     true,
		},
		{
			FilterType: "pressure_tactic",
			Name:       "urgency_stacking",
			Severity:   model.SeverityMedium,
			Patterns:   []string{"slots running out", "promo ends tonight only"},
			Active:     true,
		},
	}
}

type filterFile struct {
	Filters []model.FilterRule `yaml:"filters"`
}

// LoadFilterRules reads additional compliance rules from a YAML file.
func LoadFilterRules(path string) ([]model.FilterRule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read filter rules %s", path)
	}
	var f filterFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, eris.Wrapf(err, "parse filter rules %s", path)
	}
	for i := range f.Filters {
		if f.Filters[i].Name == "" {
			return nil, eris.Errorf("filter rules %s: rule %d has no name", path, i)
		}
	}
	return f.Filters, nil
}
