package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scout-cli/internal/model"
)

func TestRiskPass_CleanTextIsCompliant(t *testing.T) {
	r, err := RiskPass("interested po ako sa product", DefaultFilterRules())
	require.NoError(t, err)
	assert.True(t, r.IsCompliant)
	assert.True(t, r.ShouldProceed)
	assert.Equal(t, "none", r.RiskLevel)
	assert.Empty(t, r.Violations)
}

func TestRiskPass_CriticalViolationBlocks(t *testing.T) {
	r, err := RiskPass("join now, GUARANTEED INCOME kahit tulog ka", DefaultFilterRules())
	require.NoError(t, err)
	assert.False(t, r.IsCompliant)
	assert.False(t, r.ShouldProceed)
	assert.Equal(t, "critical", r.RiskLevel)
	require.Len(t, r.Violations, 1)
	assert.Equal(t, "guaranteed_income_claims", r.Violations[0].RuleName)
	assert.Equal(t, "guaranteed income", r.Violations[0].Pattern)
}

func TestRiskPass_MediumViolationProceeds(t *testing.T) {
	r, err := RiskPass("hurry, slots running out na", DefaultFilterRules())
	require.NoError(t, err)
	assert.False(t, r.IsCompliant)
	assert.True(t, r.ShouldProceed, "medium severity records but does not block")
	assert.Equal(t, "medium", r.RiskLevel)
}

func TestRiskPass_InactiveRulesSkipped(t *testing.T) {
	rules := []model.FilterRule{{
		FilterType: "test",
		Name:       "disabled_rule",
		Severity:   model.SeverityCritical,
		Patterns:   []string{"forbidden phrase"},
		Active:     false,
	}}
	r, err := RiskPass("this has the forbidden phrase in it", rules)
	require.NoError(t, err)
	assert.True(t, r.IsCompliant)
	assert.True(t, r.ShouldProceed)
}

func TestRiskPass_WorstSeverityWins(t *testing.T) {
	r, err := RiskPass("slots running out, pay right now or lose it", DefaultFilterRules())
	require.NoError(t, err)
	assert.False(t, r.ShouldProceed)
	assert.Equal(t, "high", r.RiskLevel)
	assert.Len(t, r.Violations, 2)
}
