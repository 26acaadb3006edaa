package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scout-cli/internal/model"
)

func completedContext() *Context {
	return &Context{
		Clean:    &CleanResult{Language: "taglish", WordCount: 12},
		Classify: &ClassifyResult{BuyingIntent: IntentHigh, KeywordTags: []string{"price_inquiry"}},
		Behavior: &BehaviorResult{Sentiment: model.SentimentPositive, UrgencyLevel: "medium", EmotionScore: 63},
		DeepScan: &DeepScanResult{
			SalesFit:      SalesFit{BuyingAbility: "medium", ProductFit: 55},
			Investigation: Investigation{PainPoints: []string{"income_gap"}},
			Personality:   PersonalityRead{Type: model.PersonalityAmiable},
		},
		Fusion: &FusionResult{ScoutScoreV10: 73, ConfidenceScore: 61, LeadQuality: model.StageHot},
		Risk:   &RiskResult{IsCompliant: true, RiskLevel: "none", ShouldProceed: true},
	}
}

func TestFinalPass_AssemblesProfile(t *testing.T) {
	p, err := FinalPass(completedContext())
	require.NoError(t, err)

	assert.Equal(t, 73, p.ScoutScoreV10)
	assert.Equal(t, model.StageHot, p.LeadQuality)
	assert.Equal(t, IntentHigh, p.BuyingIntent)
	assert.Equal(t, model.SentimentPositive, p.Sentiment)
	assert.Equal(t, model.PersonalityAmiable, p.Personality)
	assert.Equal(t, "medium", p.BuyingAbility)
	assert.Equal(t, 55, p.ProductFit)
	assert.Equal(t, []string{"price_inquiry"}, p.KeywordTags)
	assert.Equal(t, []string{"income_gap"}, p.PainPoints)
	assert.Equal(t, "taglish", p.Language)
	assert.Equal(t, "none", p.RiskLevel)
}

func TestFinalPass_IncompleteContextRejected(t *testing.T) {
	c := completedContext()
	c.DeepScan = nil
	_, err := FinalPass(c)
	assert.Error(t, err)
}

func TestFinalPass_BlockedContextRejected(t *testing.T) {
	c := completedContext()
	c.Risk.ShouldProceed = false
	_, err := FinalPass(c)
	assert.Error(t, err)
}
