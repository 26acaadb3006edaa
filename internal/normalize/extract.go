package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\s\-().]{6,}[0-9]`)
	digitsOnly   = regexp.MustCompile(`[^0-9+]`)
)

// NormalizeEmail lower-cases and trims an email candidate, returning ""
// unless it matches the RFC-shape pattern.
func NormalizeEmail(raw string) string {
	e := strings.ToLower(strings.TrimSpace(raw))
	if e == "" || !emailPattern.MatchString(e) {
		return ""
	}
	return emailPattern.FindString(e)
}

// NormalizePhone strips a phone candidate to digits plus an optional
// leading +. Candidates with fewer than 7 digits are rejected.
func NormalizePhone(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	hasPlus := strings.HasPrefix(s, "+")
	digits := digitsOnly.ReplaceAllString(s, "")
	digits = strings.ReplaceAll(digits, "+", "")
	if len(digits) < 7 {
		return ""
	}
	if hasPlus {
		return "+" + digits
	}
	return digits
}

// ExtractEmail finds the first RFC-shaped email in free text.
func ExtractEmail(text string) string {
	return NormalizeEmail(emailPattern.FindString(text))
}

// ExtractPhone finds the first plausible phone sequence in free text.
func ExtractPhone(text string) string {
	return NormalizePhone(phonePattern.FindString(text))
}

var currencyRunes = strings.NewReplacer("₱", "", "$", "", "€", "", "£", "", ",", "", " ", "")

// ParseBudget converts a budget string like "₱5,000" or "$1200.50" to a
// number. Returns 0 when nothing numeric survives.
func ParseBudget(raw string) float64 {
	s := currencyRunes.Replace(strings.TrimSpace(raw))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// interestVocab maps interest tags to the keywords that imply them.
// Matching is case-insensitive substring presence.
var interestVocab = map[string][]string{
	"price_inquiry":   {"how much", "price", "cost", "magkano", "presyo", "rate"},
	"strong_interest": {"interested", "want to try", "sign me up", "i want", "gusto ko"},
	"info_request":    {"how does it work", "more info", "details", "paano"},
	"proof_seeking":   {"results", "before and after", "testimonial", "proof", "legit ba"},
	"ready_to_start":  {"join", "start now", "where do i sign", "paano sumali"},
}

// objectionVocab maps objection types to their trigger keywords.
var objectionVocab = map[string][]string{
	"trust":      {"scam", "pyramid", "fake", "fraud", "legit"},
	"price":      {"expensive", "too much", "can't afford", "mahal", "no budget"},
	"time":       {"busy", "no time", "later na", "next time"},
	"hesitation": {"think about it", "not sure", "maybe", "let me decide"},
	"competitor": {"already have", "using another", "other brand", "may supplier na"},
}

// Tag output order is fixed so results stay deterministic regardless of
// map iteration.
var (
	interestOrder  = []string{"price_inquiry", "strong_interest", "info_request", "proof_seeking", "ready_to_start"}
	objectionOrder = []string{"trust", "price", "time", "hesitation", "competitor"}
)

// ExtractInterestTags derives interest tags present in the text.
func ExtractInterestTags(text string) []string {
	return matchVocab(text, interestVocab, interestOrder)
}

// ExtractObjections derives objection types present in the text.
func ExtractObjections(text string) []string {
	return matchVocab(text, objectionVocab, objectionOrder)
}

func matchVocab(text string, vocab map[string][]string, order []string) []string {
	lower := strings.ToLower(text)
	var tags []string
	for _, tag := range order {
		for _, kw := range vocab[tag] {
			if strings.Contains(lower, kw) {
				tags = append(tags, tag)
				break
			}
		}
	}
	return tags
}
