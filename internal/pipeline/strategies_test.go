package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scout-cli/internal/model"
)

func TestKeywordSalesFit_BuyingAbility(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		record model.NormalizedProspect
		want   string
	}{
		{"big budget", model.NormalizedProspect{Budget: 15000}, "high"},
		{"very high capacity", model.NormalizedProspect{BuyingCapacity: model.CapacityVeryHigh}, "high"},
		{"mid budget", model.NormalizedProspect{Budget: 3000}, "medium"},
		{"medium capacity", model.NormalizedProspect{BuyingCapacity: model.CapacityMedium}, "medium"},
		{"nothing known", model.NormalizedProspect{}, "low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fit, err := KeywordSalesFit{}.AnalyzeSalesFit(ctx, ScanInput{Record: &tt.record})
			require.NoError(t, err)
			assert.Equal(t, tt.want, fit.BuyingAbility)
			assert.Equal(t, 60, fit.Confidence)
		})
	}
}

func TestKeywordSalesFit_ProductFitCapsAt100(t *testing.T) {
	rec := &model.NormalizedProspect{
		ProductInterest: []string{"starter pack"},
		InterestTags:    []string{"ready_to_start", "strong_interest", "price_inquiry"},
	}
	fit, err := KeywordSalesFit{}.AnalyzeSalesFit(context.Background(), ScanInput{Record: rec})
	require.NoError(t, err)
	// 40 + 35 + 25 + 10 exceeds the cap
	assert.Equal(t, 100, fit.ProductFit)
	assert.NotEmpty(t, fit.FitReasons)
}

func TestKeywordInvestigator(t *testing.T) {
	rec := &model.NormalizedProspect{}
	inv, err := KeywordInvestigator{}.Investigate(context.Background(), ScanInput{
		Record: rec,
		Text:   "nasa facebook ako lagi pero pagod na sa trabaho at kulang ang sahod",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"active_online"}, inv.SocialSignals)
	assert.Equal(t, []string{"employed"}, inv.StatusSignals)
	assert.ElementsMatch(t, []string{"income_gap", "health_worry"}, inv.PainPoints)
	assert.Equal(t, 70, inv.Confidence, "three or more signals lift confidence")
}

func TestKeywordInvestigator_LowSignalConfidence(t *testing.T) {
	inv, err := KeywordInvestigator{}.Investigate(context.Background(), ScanInput{
		Record: &model.NormalizedProspect{},
		Text:   "good morning",
	})
	require.NoError(t, err)
	assert.Equal(t, 55, inv.Confidence)
	assert.Empty(t, inv.PainPoints)
}

func TestKeywordPersonality(t *testing.T) {
	ctx := context.Background()

	t.Run("two driver markers", func(t *testing.T) {
		read, err := KeywordPersonality{}.ClassifyPersonality(ctx, ScanInput{
			Record: &model.NormalizedProspect{},
			Text:   "deretsahan na, just tell me the final price",
		})
		require.NoError(t, err)
		assert.Equal(t, model.PersonalityDriver, read.Type)
		assert.Equal(t, 65, read.Confidence)
		assert.NotEmpty(t, read.Evidence)
	})

	t.Run("single expressive marker", func(t *testing.T) {
		read, err := KeywordPersonality{}.ClassifyPersonality(ctx, ScanInput{
			Record: &model.NormalizedProspect{},
			Text:   "grabe this looks good",
		})
		require.NoError(t, err)
		assert.Equal(t, model.PersonalityExpressive, read.Type)
		assert.Equal(t, 40, read.Confidence)
	})

	t.Run("no markers", func(t *testing.T) {
		read, err := KeywordPersonality{}.ClassifyPersonality(ctx, ScanInput{
			Record: &model.NormalizedProspect{},
			Text:   "noted",
		})
		require.NoError(t, err)
		assert.Equal(t, model.PersonalityUnknown, read.Type)
		assert.Equal(t, 30, read.Confidence)
	})
}
