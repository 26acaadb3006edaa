package pipeline

import (
	"strings"

	"github.com/sells-group/scout-cli/internal/model"
)

// Pass 3 scans the raw payload text, not the cleaned pass-1 output.
// Cleanup strips repeated punctuation and emoji-adjacent noise that are
// themselves emotional signals, so this pass goes back to the source.

var positiveWords = []string{
	"love", "great", "amazing", "perfect", "thank", "salamat", "excited",
	"gusto ko", "ganda", "ok sige", "sure", "yes",
}

var negativeWords = []string{
	"scam", "fake", "hate", "bad", "ayaw", "hindi ako", "wag",
	"mahal masyado", "nabudol", "refund", "disappointed",
}

var urgencyVocab = map[string][]string{
	"deadline":       {"asap", "today", "ngayon na", "before friday", "kailangan ko na"},
	"event_driven":   {"wedding", "birthday", "graduation", "christmas", "pasko"},
	"money_pressure": {"sahod", "payday", "last day", "promo ends"},
}

// hiddenSignalVocab catches buying signals phrased as something else.
// A "kaya ko ba" doubt is an affordability question, which is interest.
var hiddenSignalVocab = map[string][]string{
	"affordability_probe": {"kaya ko kaya", "makakaafford", "can i afford", "baka di ko kaya"},
	"social_proof_seek":   {"may nakabili na ba", "totoo ba", "legit ba", "review"},
	"spouse_check":        {"tanong ko muna", "ask my husband", "asawa ko", "partner ko"},
	"future_intent":       {"next month", "sa sahod", "pag may budget na", "balak ko"},
}

var urgencyOrder = []string{"deadline", "event_driven", "money_pressure"}
var hiddenOrder = []string{"affordability_probe", "social_proof_seek", "spouse_check", "future_intent"}

// BehaviorPass derives sentiment, urgency, hidden buying signals, and an
// emotion score from the raw payload text.
func BehaviorPass(rawText string) (*BehaviorResult, error) {
	lower := strings.ToLower(rawText)

	pos := countHits(lower, positiveWords)
	neg := countHits(lower, negativeWords)

	var urgencySignals []string
	for _, k := range urgencyOrder {
		if containsAny(lower, urgencyVocab[k]) {
			urgencySignals = append(urgencySignals, k)
		}
	}
	var hidden []string
	for _, k := range hiddenOrder {
		if containsAny(lower, hiddenSignalVocab[k]) {
			hidden = append(hidden, k)
		}
	}

	return &BehaviorResult{
		Sentiment:      sentimentFor(pos, neg),
		UrgencyLevel:   urgencyLevel(len(urgencySignals)),
		UrgencySignals: urgencySignals,
		HiddenSignals:  hidden,
		EmotionScore:   emotionScore(pos, neg, len(urgencySignals)),
	}, nil
}

func countHits(text string, words []string) int {
	n := 0
	for _, w := range words {
		n += strings.Count(text, w)
	}
	return n
}

func sentimentFor(pos, neg int) model.Sentiment {
	switch d := pos - neg; {
	case d >= 3:
		return model.SentimentVeryPositive
	case d >= 1:
		return model.SentimentPositive
	case d <= -3:
		return model.SentimentVeryNegative
	case d <= -1:
		return model.SentimentNegative
	default:
		return model.SentimentNeutral
	}
}

func urgencyLevel(signals int) string {
	switch {
	case signals >= 2:
		return "high"
	case signals == 1:
		return "medium"
	default:
		return "low"
	}
}

// emotionScore maps signal intensity to 0-100 around a neutral 50.
func emotionScore(pos, neg, urgency int) int {
	score := 50 + pos*8 - neg*8 + urgency*5
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
