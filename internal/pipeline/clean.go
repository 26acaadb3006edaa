package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// cleanTransformer strips diacritics: decompose, drop combining marks,
// recompose.
var cleanTransformer = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// tagalogMarkers are common Filipino function words used for the
// language guess. Mixed chat text counts as "taglish".
var tagalogMarkers = []string{
	"ang", "ng", "mga", "ako", "ikaw", "siya", "kami", "kayo", "sila",
	"na", "pa", "po", "opo", "hindi", "oo", "ito", "yan", "dito",
	"magkano", "kasi", "lang", "naman", "talaga", "sana",
}

var spamMarkers = []string{
	"click here", "limited slots", "act now", "100% guaranteed",
	"double your money", "free money", "winner winner", "claim your prize",
}

// CleanPass runs deterministic text cleanup over the raw payload text:
// unicode normalization, diacritic stripping, whitespace collapse, a
// coarse language guess, and a spam flag. No classification happens here.
func CleanPass(rawText string) (*CleanResult, error) {
	cleaned, _, err := transform.String(cleanTransformer, rawText)
	if err != nil {
		// Fall back to the untransformed text; malformed runes are not
		// worth failing the job over.
		cleaned = rawText
	}
	cleaned = collapseWhitespace(cleaned)

	words := strings.Fields(cleaned)
	lower := strings.ToLower(cleaned)

	return &CleanResult{
		CleanedText: cleaned,
		Language:    guessLanguage(words),
		SpamFlag:    containsAny(lower, spamMarkers),
		WordCount:   len(words),
	}, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func guessLanguage(words []string) string {
	if len(words) == 0 {
		return "unknown"
	}
	markers := make(map[string]bool, len(tagalogMarkers))
	for _, m := range tagalogMarkers {
		markers[m] = true
	}
	hits := 0
	for _, w := range words {
		if markers[strings.ToLower(strings.Trim(w, ".,!?"))] {
			hits++
		}
	}
	ratio := float64(hits) / float64(len(words))
	switch {
	case ratio >= 0.25:
		return "fil"
	case ratio >= 0.05:
		return "taglish"
	default:
		return "en"
	}
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
