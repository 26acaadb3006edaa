package pipeline

import (
	"context"
	"strings"

	"github.com/sells-group/scout-cli/internal/model"
)

// Keyword-backed default strategies. They run offline, cost nothing, and
// report mid-range confidence; the remote strategies replace them when a
// provider is configured.

// KeywordSalesFit grades buying ability from budget, capacity, and intent
// phrasing.
type KeywordSalesFit struct{}

func (KeywordSalesFit) AnalyzeSalesFit(_ context.Context, in ScanInput) (*SalesFit, error) {
	fit := &SalesFit{BuyingAbility: "low", Confidence: 60}

	var reasons []string
	switch {
	case in.Record.Budget >= 10000 || in.Record.BuyingCapacity == model.CapacityVeryHigh:
		fit.BuyingAbility = "high"
		reasons = append(reasons, "stated budget or capacity in top band")
	case in.Record.Budget >= 2000 || in.Record.BuyingCapacity == model.CapacityHigh || in.Record.BuyingCapacity == model.CapacityMedium:
		fit.BuyingAbility = "medium"
		reasons = append(reasons, "mid-range budget or capacity")
	}

	productFit := 0
	if len(in.Record.ProductInterest) > 0 {
		productFit += 40
		reasons = append(reasons, "named product interest")
	}
	for _, tag := range in.Record.InterestTags {
		switch tag {
		case "ready_to_start":
			productFit += 35
		case "strong_interest":
			productFit += 25
		case "price_inquiry", "info_request":
			productFit += 10
		}
	}
	if productFit > 100 {
		productFit = 100
	}
	fit.ProductFit = productFit
	fit.FitReasons = reasons
	return fit, nil
}

// KeywordInvestigator mines the text for social, status, and pain-point
// mentions.
type KeywordInvestigator struct{}

var socialVocab = map[string][]string{
	"active_online":   {"facebook", "instagram", "tiktok", "online"},
	"community_member": {"group", "barkada", "church", "team"},
}

var statusVocab = map[string][]string{
	"employed":      {"work", "office", "trabaho", "shift"},
	"business_owner": {"business", "negosyo", "tindahan", "shop ko"},
	"ofw":           {"abroad", "ofw", "overseas", "remit"},
	"parent":        {"anak", "kids", "baby", "family"},
}

var painVocab = map[string][]string{
	"income_gap":    {"kulang", "not enough", "gastos", "bills", "utang"},
	"time_poverty":  {"busy", "walang oras", "no time", "overtime"},
	"health_worry":  {"pagod", "stress", "sakit", "tired"},
	"career_stall":  {"stuck", "walang ipon", "same salary", "promotion"},
}

func (KeywordInvestigator) Investigate(_ context.Context, in ScanInput) (*Investigation, error) {
	lower := strings.ToLower(in.Text)
	inv := &Investigation{Confidence: 55}
	for tag, words := range socialVocab {
		if containsAny(lower, words) {
			inv.SocialSignals = append(inv.SocialSignals, tag)
		}
	}
	for tag, words := range statusVocab {
		if containsAny(lower, words) {
			inv.StatusSignals = append(inv.StatusSignals, tag)
		}
	}
	for tag, words := range painVocab {
		if containsAny(lower, words) {
			inv.PainPoints = append(inv.PainPoints, tag)
		}
	}
	if len(inv.SocialSignals)+len(inv.StatusSignals)+len(inv.PainPoints) >= 3 {
		inv.Confidence = 70
	}
	return inv, nil
}

// KeywordPersonality classifies by which communication markers dominate.
type KeywordPersonality struct{}

var personalityVocab = map[model.PersonalityType][]string{
	model.PersonalityDriver:     {"bottom line", "how much", "deretsahan", "just tell me", "final price"},
	model.PersonalityAnalytical: {"ingredients", "specs", "details", "paano gumagana", "compare", "data"},
	model.PersonalityExpressive: {"!!!", "haha", "omg", "grabe", "love it", "excited"},
	model.PersonalityAmiable:    {"thank you po", "salamat po", "sige po", "god bless", "ingat"},
}

var personalityOrder = []model.PersonalityType{
	model.PersonalityDriver, model.PersonalityAnalytical,
	model.PersonalityExpressive, model.PersonalityAmiable,
}

func (KeywordPersonality) ClassifyPersonality(_ context.Context, in ScanInput) (*PersonalityRead, error) {
	lower := strings.ToLower(in.Text)
	best := model.PersonalityUnknown
	bestHits := 0
	var evidence []string
	for _, pt := range personalityOrder {
		hits := 0
		var matched []string
		for _, w := range personalityVocab[pt] {
			if strings.Contains(lower, w) {
				hits++
				matched = append(matched, w)
			}
		}
		if hits > bestHits {
			best = pt
			bestHits = hits
			evidence = matched
		}
	}

	confidence := 40
	if bestHits >= 2 {
		confidence = 65
	}
	if best == model.PersonalityUnknown {
		confidence = 30
	}
	return &PersonalityRead{Type: best, Evidence: evidence, Confidence: confidence}, nil
}

// DefaultStrategies returns the keyword-backed strategy set.
func DefaultStrategies() Strategies {
	return Strategies{
		SalesFit:    KeywordSalesFit{},
		Investigate: KeywordInvestigator{},
		Personality: KeywordPersonality{},
	}
}
