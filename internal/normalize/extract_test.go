package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "juan@example.com", NormalizeEmail("  Juan@Example.COM  "))
	assert.Equal(t, "", NormalizeEmail("not-an-email"))
	assert.Equal(t, "", NormalizeEmail(""))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+639175551234", NormalizePhone("+63 917-555-1234"))
	assert.Equal(t, "09175551234", NormalizePhone("(0917) 555 1234"))
	assert.Equal(t, "", NormalizePhone("123"))
	assert.Equal(t, "", NormalizePhone(""))
}

func TestExtractEmail_FromFreeText(t *testing.T) {
	text := "pm me po sa juan.delacruz@example.com or call me"
	assert.Equal(t, "juan.delacruz@example.com", ExtractEmail(text))
	assert.Equal(t, "", ExtractEmail("walang email dito"))
}

func TestExtractPhone_FromFreeText(t *testing.T) {
	assert.Equal(t, "+639175551234", ExtractPhone("text nyo ako +63 917 555 1234 salamat"))
	assert.Equal(t, "", ExtractPhone("no number here"))
}

func TestParseBudget(t *testing.T) {
	assert.Equal(t, 5000.0, ParseBudget("₱5,000"))
	assert.Equal(t, 1200.5, ParseBudget("$1,200.50"))
	assert.Equal(t, 0.0, ParseBudget("wala"))
	assert.Equal(t, 0.0, ParseBudget(""))
	assert.Equal(t, 0.0, ParseBudget("-500"))
}

func TestExtractInterestTags_DeterministicOrder(t *testing.T) {
	text := "sign me up! magkano po? legit ba ito"
	// Order follows the fixed tag order, not appearance in the text.
	assert.Equal(t,
		[]string{"price_inquiry", "strong_interest", "proof_seeking"},
		ExtractInterestTags(text))
}

func TestExtractObjections(t *testing.T) {
	assert.Equal(t, []string{"trust"}, ExtractObjections("baka scam naman ito"))
	assert.Equal(t, []string{"price", "time"}, ExtractObjections("mahal and i'm busy"))
	assert.Empty(t, ExtractObjections("sige po"))
}
