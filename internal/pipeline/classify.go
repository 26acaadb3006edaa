package pipeline

import (
	"strings"

	"github.com/sells-group/scout-cli/internal/normalize"
)

// classifyVocab maps a keyword tag to the phrases that trigger it. Pass 2
// is deliberately cheap: keyword and regex work only, no external calls.
var classifyVocab = []struct {
	tag      string
	keywords []string
}{
	{"price_inquiry", []string{"how much", "magkano", "price", "presyo", "cost"}},
	{"availability", []string{"available", "meron pa", "in stock", "stock"}},
	{"payment_question", []string{"payment", "installment", "hulugan", "gcash", "cod"}},
	{"comparison", []string{"versus", " vs ", "compare", "difference", "better than"}},
	{"referral", []string{"referred", "sabi ni", "recommend", "friend told"}},
	{"urgency", []string{"asap", "today", "ngayon", "right now", "kailangan na"}},
}

// industryVocab is pass 2's own coarse multi-label industry hinting. It
// is narrower than the industry engine's registry on purpose: this pass
// only suggests candidates for the final detection to confirm.
var industryVocab = []struct {
	label    string
	keywords []string
}{
	{"NetworkMarketing", []string{"mlm", "downline", "direct selling", "extra income", "negosyo"}},
	{"RealEstate", []string{"condo", "property", "house and lot", "pre-selling"}},
	{"Insurance", []string{"insurance", "premium", "coverage", "vul"}},
	{"Ecommerce", []string{"shopee", "lazada", "cod", "checkout"}},
	{"Coaching", []string{"coaching", "course", "webinar", "masterclass"}},
	{"Fitness", []string{"gym", "workout", "weight loss", "trainer"}},
	{"BeautyWellness", []string{"skincare", "whitening", "serum", "collagen"}},
	{"TravelLifestyle", []string{"travel", "tour package", "booking", "flight"}},
	{"Finance", []string{"loan", "invest", "puhunan", "crypto"}},
}

var highIntentPhrases = []string{
	"where to pay", "paano mag order", "sign me up", "i'll take it",
	"order na", "send details", "reserve", "kukunin ko",
}

var mediumIntentPhrases = []string{
	"how much", "magkano", "interested", "tell me more", "available",
	"pwede ba", "installment",
}

// ClassifyPass derives keyword tags, candidate industries, a buying
// intent tier, and contact fields from the cleaned pass-1 text.
func ClassifyPass(clean *CleanResult) (*ClassifyResult, error) {
	lower := strings.ToLower(clean.CleanedText)

	var tags []string
	for _, v := range classifyVocab {
		if containsAny(lower, v.keywords) {
			tags = append(tags, v.tag)
		}
	}

	var industries []string
	for _, v := range industryVocab {
		if containsAny(lower, v.keywords) {
			industries = append(industries, v.label)
		}
	}

	return &ClassifyResult{
		KeywordTags:        tags,
		DetectedIndustries: industries,
		BuyingIntent:       intentTier(lower),
		ExtractedEmail:     normalize.ExtractEmail(clean.CleanedText),
		ExtractedPhone:     normalize.ExtractPhone(clean.CleanedText),
	}, nil
}

func intentTier(lower string) IntentTier {
	if containsAny(lower, highIntentPhrases) {
		return IntentHigh
	}
	if containsAny(lower, mediumIntentPhrases) {
		return IntentMedium
	}
	return IntentLow
}
