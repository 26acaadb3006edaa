package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternData_Merge_SumsFields(t *testing.T) {
	d := PatternData{PatternFieldTotal: 2, PatternFieldConversions: 1}
	d.Merge(PatternData{PatternFieldTotal: 2, PatternFieldConversions: 1})

	assert.Equal(t, float64(4), d[PatternFieldTotal])
	assert.Equal(t, float64(2), d[PatternFieldConversions])
	assert.Equal(t, 0.5, d[PatternFieldConversionRate])
}

func TestPatternData_Merge_NeverTrustsIncomingRate(t *testing.T) {
	d := PatternData{PatternFieldTotal: 1, PatternFieldConversions: 1}
	d.Merge(PatternData{
		PatternFieldTotal:          1,
		PatternFieldConversionRate: 0.99,
	})

	// 1 conversion over 2 total, regardless of the bogus incoming rate.
	assert.Equal(t, 0.5, d[PatternFieldConversionRate])
}

func TestPatternData_Merge_Commutative(t *testing.T) {
	a := PatternData{PatternFieldTotal: 3, "scout_score_sum": 120}
	b := PatternData{PatternFieldTotal: 3, "scout_score_sum": 120}
	x := PatternData{PatternFieldTotal: 1, "scout_score_sum": 80}
	y := PatternData{PatternFieldTotal: 2, "scout_score_sum": 40}

	a.Merge(x)
	a.Merge(y)
	b.Merge(y)
	b.Merge(x)

	assert.Equal(t, a, b)
}

func TestPatternData_RecomputeRate_NoTotal(t *testing.T) {
	d := PatternData{PatternFieldConversions: 5}
	d.RecomputeRate()
	_, ok := d[PatternFieldConversionRate]
	assert.False(t, ok)
}
