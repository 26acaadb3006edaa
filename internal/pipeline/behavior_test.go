package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scout-cli/internal/model"
)

func TestBehaviorPass_Sentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.Sentiment
	}{
		{"very positive", "love it, amazing, perfect", model.SentimentVeryPositive},
		{"positive", "great product", model.SentimentPositive},
		{"neutral", "hello", model.SentimentNeutral},
		{"negative", "ayaw ko muna", model.SentimentNegative},
		{"very negative", "scam yan, fake, nabudol na ako dyan", model.SentimentVeryNegative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := BehaviorPass(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Sentiment)
		})
	}
}

func TestBehaviorPass_Urgency(t *testing.T) {
	r, err := BehaviorPass("kailangan asap, before the wedding")
	require.NoError(t, err)
	assert.Equal(t, "high", r.UrgencyLevel)
	assert.Equal(t, []string{"deadline", "event_driven"}, r.UrgencySignals)

	r, err = BehaviorPass("sa payday na lang")
	require.NoError(t, err)
	assert.Equal(t, "medium", r.UrgencyLevel)
	assert.Equal(t, []string{"money_pressure"}, r.UrgencySignals)

	r, err = BehaviorPass("no rush here")
	require.NoError(t, err)
	assert.Equal(t, "low", r.UrgencyLevel)
	assert.Empty(t, r.UrgencySignals)
}

func TestBehaviorPass_HiddenSignals(t *testing.T) {
	r, err := BehaviorPass("legit ba ito? tanong ko muna kay partner ko")
	require.NoError(t, err)
	assert.Equal(t, []string{"social_proof_seek", "spouse_check"}, r.HiddenSignals)
}

func TestBehaviorPass_EmotionScore(t *testing.T) {
	// neutral baseline
	r, err := BehaviorPass("hello")
	require.NoError(t, err)
	assert.Equal(t, 50, r.EmotionScore)

	// one positive hit and one urgency signal: 50 + 8 + 5
	r, err = BehaviorPass("great, kailangan ko na today")
	require.NoError(t, err)
	assert.Equal(t, 63, r.EmotionScore)

	// floor at zero under heavy negativity
	r, err = BehaviorPass("scam scam scam fake fake hate bad refund nabudol")
	require.NoError(t, err)
	assert.Equal(t, 0, r.EmotionScore)
}
