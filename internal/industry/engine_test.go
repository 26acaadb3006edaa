package industry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scout-cli/internal/model"
)

func TestDetectIndustry(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"network marketing", "may extra income ba dito? paano mag recruit ng downline", "NetworkMarketing"},
		{"real estate", "interested sa condo pre-selling, magkano downpayment", "RealEstate"},
		{"fitness", "gusto ko ng home workout para pumayat bago ang wedding", "Fitness"},
		{"no hits falls back to general", "hello po, interested ako", GeneralIndustry},
		{"empty text", "", GeneralIndustry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.DetectIndustry(tt.text))
		})
	}
}

func TestDetectIndustry_TieBreaksToEarliestRegistered(t *testing.T) {
	e := NewEngine()
	// One keyword hit each for RealEstate ("condo") and Insurance
	// ("insurance"); RealEstate registers first so it wins the tie.
	assert.Equal(t, "RealEstate", e.DetectIndustry("condo insurance"))
}

func TestApplyTaggingRules_AllRuleKinds(t *testing.T) {
	e := NewEngine()

	p := &model.Prospect{TenantID: "t1"}
	p.Sentiment = model.SentimentVeryPositive
	p.InterestTags = []string{"proof_seeking"}

	tags := e.ApplyTaggingRules(GeneralIndustry, "magkano po ang package?", p)
	assert.Equal(t, []string{"price_sensitive", "happy_prospect", "needs_proof"}, tags)
}

func TestApplyTaggingRules_RegexAndBehavior(t *testing.T) {
	e := NewEngine()

	p := &model.Prospect{TenantID: "t1"}
	p.ObjectionTypes = []string{"trust"}

	tags := e.ApplyTaggingRules("NetworkMarketing", "I want to build a Team of my own", p)
	assert.Contains(t, tags, "team_builder")
	assert.Contains(t, tags, "skeptic")
	assert.NotContains(t, tags, "income_seeker")
}

func TestRegister_ReplacesInPlacePreservingOrder(t *testing.T) {
	e := NewEngine()
	before := e.Names()

	require.NoError(t, e.Register(&Model{
		Name:     "NetworkMarketing",
		Keywords: []string{"uplinepro"},
	}))

	assert.Equal(t, before, e.Names(), "replacing must not change registration order")
	assert.Equal(t, []string{"uplinepro"}, e.Model("NetworkMarketing").Keywords)
}

func TestRegister_AppendsNewName(t *testing.T) {
	e := NewEngine()
	n := len(e.Names())

	require.NoError(t, e.Register(&Model{Name: "PetCare", Keywords: []string{"grooming"}}))
	names := e.Names()
	require.Len(t, names, n+1)
	assert.Equal(t, "PetCare", names[n])
	assert.Equal(t, "PetCare", e.DetectIndustry("pet grooming service"))
}

func TestRegister_BadRegexFails(t *testing.T) {
	e := NewEngine()
	err := e.Register(&Model{
		Name:     "Broken",
		TagRules: []TagRule{{Kind: RuleRegex, Tag: "oops", Pattern: `(unclosed`}},
	})
	assert.Error(t, err)
}

func TestModel_UnknownNameFallsBackToGeneral(t *testing.T) {
	e := NewEngine()
	m := e.Model("NotARealIndustry")
	require.NotNil(t, m)
	assert.Equal(t, GeneralIndustry, m.Name)
}

func TestCalculateIndustryScore(t *testing.T) {
	e := NewEngine()

	p := &model.Prospect{TenantID: "t1"}
	p.BuyingTimeline = model.TimelineImmediate
	p.Sentiment = model.SentimentPositive
	p.BuyingCapacity = model.CapacityHigh

	// General weights: intent 0.35, sentiment 0.25, capacity 0.40
	// => 100*0.35 + 75*0.25 + 80*0.40 = 85.75 -> 85
	assert.Equal(t, 85, e.CalculateIndustryScore(p, GeneralIndustry))
}

func TestCalculateIndustryScore_EmptyWeightsYieldZero(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.Register(&Model{Name: "Weightless"}))

	p := &model.Prospect{TenantID: "t1"}
	p.BuyingTimeline = model.TimelineImmediate
	assert.Equal(t, 0, e.CalculateIndustryScore(p, "Weightless"))
}

func TestObjectionResponse(t *testing.T) {
	e := NewEngine()

	own := e.ObjectionResponse("NetworkMarketing", "trust")
	assert.Contains(t, own, "product result")

	// NetworkMarketing has no "time" response; General's is used.
	fallback := e.ObjectionResponse("NetworkMarketing", "time")
	assert.Contains(t, fallback, "smallest possible first step")

	assert.Empty(t, e.ObjectionResponse(GeneralIndustry, "no_such_objection"))
}

func TestRecommendNextAction_PriorityOrder(t *testing.T) {
	e := NewEngine()
	recent := []model.Interaction{{Content: "hi", Timestamp: time.Now()}}

	t.Run("no interactions", func(t *testing.T) {
		p := &model.Prospect{TenantID: "t1"}
		assert.Equal(t, ActionIntroduction, e.RecommendNextAction(p, GeneralIndustry).Action)
	})

	t.Run("high score beats open objection", func(t *testing.T) {
		p := &model.Prospect{TenantID: "t1", ScoutScoreV10: 85}
		p.PastInteractions = recent
		p.ObjectionTypes = []string{"price"}
		assert.Equal(t, ActionScheduleCall, e.RecommendNextAction(p, GeneralIndustry).Action)
	})

	t.Run("objection gets handled with industry response", func(t *testing.T) {
		p := &model.Prospect{TenantID: "t1", ScoutScoreV10: 60}
		p.PastInteractions = recent
		p.ObjectionTypes = []string{"price"}
		na := e.RecommendNextAction(p, "RealEstate")
		assert.Equal(t, ActionHandleObjection, na.Action)
		assert.Contains(t, na.Response, "amortization")
	})

	t.Run("positive sentiment soft-closes", func(t *testing.T) {
		p := &model.Prospect{TenantID: "t1"}
		p.PastInteractions = recent
		p.Sentiment = model.SentimentPositive
		assert.Equal(t, ActionSoftClose, e.RecommendNextAction(p, GeneralIndustry).Action)
	})

	t.Run("stale contact gets follow-up", func(t *testing.T) {
		p := &model.Prospect{TenantID: "t1"}
		p.PastInteractions = []model.Interaction{{Content: "hi", Timestamp: time.Now().Add(-72 * time.Hour)}}
		p.Sentiment = model.SentimentNeutral
		assert.Equal(t, ActionFollowUp, e.RecommendNextAction(p, GeneralIndustry).Action)
	})

	t.Run("default nurture", func(t *testing.T) {
		p := &model.Prospect{TenantID: "t1"}
		p.PastInteractions = recent
		p.Sentiment = model.SentimentNeutral
		assert.Equal(t, ActionNurture, e.RecommendNextAction(p, GeneralIndustry).Action)
	})
}

func TestLoadOverlay(t *testing.T) {
	e := NewEngine()

	path := filepath.Join(t.TempDir(), "industries.yaml")
	overlay := `industries:
  - name: PetCare
    keywords: [grooming, vet, pet food]
    tag_rules:
      - kind: keyword
        tag: new_owner
        keywords: [puppy, kitten]
    score_weights:
      buying_intent: 0.5
      sentiment: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o600))
	require.NoError(t, e.LoadOverlay(path))

	assert.Equal(t, "PetCare", e.DetectIndustry("need a vet for my pet food question"))

	p := &model.Prospect{TenantID: "t1"}
	tags := e.ApplyTaggingRules("PetCare", "just got a puppy", p)
	assert.Equal(t, []string{"new_owner"}, tags)
}

func TestLoadOverlay_EmptyNameRejected(t *testing.T) {
	e := NewEngine()
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("industries:\n  - keywords: [x]\n"), 0o600))
	assert.Error(t, e.LoadOverlay(path))
}

func TestLoadOverlay_MissingFile(t *testing.T) {
	e := NewEngine()
	assert.Error(t, e.LoadOverlay(filepath.Join(t.TempDir(), "nope.yaml")))
}
