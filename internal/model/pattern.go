package model

import "time"

// PatternType names one family of crowd-learned observations.
type PatternType string

const (
	PatternNameOccupation     PatternType = "name_occupation"
	PatternLocationIndustry   PatternType = "location_industry"
	PatternObjectionResponse  PatternType = "objection_response"
	PatternPersonalityOutcome PatternType = "personality_outcome"
	PatternScanCompleted      PatternType = "scan_completed"
)

// PatternData is the additive accumulator attached to a pattern. All
// fields are numeric so concurrent merges stay commutative; the
// conversion_rate field is never merged directly, only recomputed from
// conversions/total.
type PatternData map[string]float64

const (
	PatternFieldConversions    = "conversions"
	PatternFieldTotal          = "total"
	PatternFieldConversionRate = "conversion_rate"
)

// Merge folds src into d: every field sums except conversion_rate, which
// is recomputed from its inputs afterward. A stored rate is never trusted.
func (d PatternData) Merge(src PatternData) {
	for k, v := range src {
		if k == PatternFieldConversionRate {
			continue
		}
		d[k] += v
	}
	d.RecomputeRate()
}

// RecomputeRate refreshes conversion_rate from conversions/total when both
// inputs are present.
func (d PatternData) RecomputeRate() {
	total, ok := d[PatternFieldTotal]
	if !ok || total <= 0 {
		return
	}
	d[PatternFieldConversionRate] = d[PatternFieldConversions] / total
}

// LearningPattern is one (type, key) accumulator row in the global,
// cross-tenant learning table. Mutated only by additive merge.
type LearningPattern struct {
	ID              string      `json:"id"`
	Type            PatternType `json:"pattern_type"`
	Key             string      `json:"pattern_key"`
	Data            PatternData `json:"pattern_data"`
	Industries      []string    `json:"industries,omitempty"`
	OccurrenceCount int         `json:"occurrence_count"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
