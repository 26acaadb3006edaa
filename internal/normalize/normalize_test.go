package normalize

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scout-cli/internal/model"
)

func TestEngine_Supports(t *testing.T) {
	e := NewEngine()
	for _, kind := range model.AllSourceKinds() {
		assert.True(t, e.Supports(kind), "kind %s", kind)
	}
	assert.False(t, e.Supports("carrier_pigeon"))
	assert.False(t, e.Supports(""))
}

func TestNormalize_UnsupportedKind(t *testing.T) {
	e := NewEngine()
	_, err := e.Normalize("carrier_pigeon", json.RawMessage(`{}`), "t1")
	require.Error(t, err)

	var unsupported *UnsupportedSourceKindError
	assert.True(t, errors.As(err, &unsupported))
	assert.Contains(t, err.Error(), "carrier_pigeon")
}

func TestNormalize_AppliesDefaults(t *testing.T) {
	e := NewEngine()
	p, err := e.Normalize(model.SourceManualInput, json.RawMessage(`{"name":"Juan"}`), "t1")
	require.NoError(t, err)

	assert.Equal(t, model.SourceManualInput, p.SourceKind)
	assert.Equal(t, model.SentimentNeutral, p.Sentiment)
	assert.Equal(t, model.PersonalityUnknown, p.Personality)
	assert.Equal(t, model.TimelineUnknown, p.BuyingTimeline)
	assert.Equal(t, 15, p.QualityScore) // name only
}

func TestNormalize_ChatTranscript(t *testing.T) {
	e := NewEngine()
	payload := json.RawMessage(`{
		"external_id": "fb-123",
		"channel": "messenger",
		"name": "Juan Dela Cruz",
		"messages": [
			{"sender": "prospect", "text": "interested ako, magkano po? email ko juan@example.com"},
			{"sender": "agent", "text": "reply me at agent@ourcompany.com"},
			{"sender": "prospect", "text": "text nyo ako 0917 555 1234"}
		]
	}`)

	p, err := e.Normalize(model.SourceChatTranscript, payload, "t1")
	require.NoError(t, err)

	assert.Equal(t, "Juan Dela Cruz", p.Name)
	assert.Equal(t, "fb-123", p.ExternalID)
	assert.Equal(t, "messenger", p.Channel)
	// Only prospect-side text feeds extraction; the agent's email is ignored.
	assert.Equal(t, "juan@example.com", p.Email)
	assert.Equal(t, "09175551234", p.Phone)
	assert.Contains(t, p.InterestTags, "price_inquiry")
	assert.Contains(t, p.InterestTags, "strong_interest")
	// All three messages land in the interaction history.
	assert.Len(t, p.PastInteractions, 3)
}

func TestNormalize_ChatTranscript_MalformedPayload(t *testing.T) {
	e := NewEngine()
	_, err := e.Normalize(model.SourceChatTranscript, json.RawMessage(`{"messages":"nope"}`), "t1")
	require.Error(t, err)

	var typeErr *json.UnmarshalTypeError
	assert.True(t, errors.As(err, &typeErr))
}

func TestNormalize_ChatPreForm(t *testing.T) {
	e := NewEngine()
	payload := json.RawMessage(`{
		"name": "Maria",
		"email": "MARIA@Example.com",
		"phone": "+63 917 555 9999",
		"channel": "web_chat",
		"answers": {"budget": "₱5,000", "goal": "interested sa extra income"}
	}`)

	p, err := e.Normalize(model.SourceChatPreForm, payload, "t1")
	require.NoError(t, err)

	assert.Equal(t, "maria@example.com", p.Email)
	assert.Equal(t, "+639175559999", p.Phone)
	assert.Equal(t, 5000.0, p.Budget)
	assert.Contains(t, p.InterestTags, "strong_interest")
}

func TestNormalize_CSVRow_HeaderAliases(t *testing.T) {
	e := NewEngine()
	payload := json.RawMessage(`{"columns": {
		"Full Name": "Ana Reyes",
		"E-Mail": "ana@example.com",
		"Mobile": "0917 555 0000",
		"City": "Cebu",
		"Job": "nurse",
		"Budget": "2000",
		"Remarks": "how much po"
	}}`)

	p, err := e.Normalize(model.SourceCSVRow, payload, "t1")
	require.NoError(t, err)

	assert.Equal(t, "Ana Reyes", p.Name)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Equal(t, "09175550000", p.Phone)
	assert.Equal(t, "Cebu", p.Location)
	assert.Equal(t, "nurse", p.Occupation)
	assert.Equal(t, 2000.0, p.Budget)
	assert.Equal(t, "import", p.Channel)
	assert.Contains(t, p.InterestTags, "price_inquiry")
}

func TestNormalize_ScreenshotOCR_PrefersNumberCandidates(t *testing.T) {
	e := NewEngine()
	payload := json.RawMessage(`{
		"text": "pm sent, reach me at 0917 555 2222",
		"name_candidates": ["Pedro Santos"],
		"number_candidates": ["123", "0917 555 1111"],
		"channel": "instagram"
	}`)

	p, err := e.Normalize(model.SourceScreenshotOCR, payload, "t1")
	require.NoError(t, err)

	assert.Equal(t, "Pedro Santos", p.Name)
	// First valid candidate wins over the number inside the OCR text.
	assert.Equal(t, "09175551111", p.Phone)
	assert.Len(t, p.PastInteractions, 1)
}

func TestNormalize_SocialAPI(t *testing.T) {
	e := NewEngine()
	payload := json.RawMessage(`{
		"id": "ig-789",
		"name": "Liza",
		"username": "lizashops",
		"bio": "Freelance makeup artist\nDM for rates. liza@example.com",
		"location": "Davao",
		"platform": "instagram"
	}`)

	p, err := e.Normalize(model.SourceSocialAPI, payload, "t1")
	require.NoError(t, err)

	assert.Equal(t, "ig-789", p.ExternalID)
	assert.Equal(t, "Davao", p.Location)
	assert.Equal(t, "liza@example.com", p.Email)
	assert.Equal(t, "Freelance makeup artist", p.Occupation)
}

func TestNormalize_SocialAPI_UsernameFallback(t *testing.T) {
	e := NewEngine()
	p, err := e.Normalize(model.SourceSocialAPI, json.RawMessage(`{"username":"lizashops"}`), "t1")
	require.NoError(t, err)
	assert.Equal(t, "lizashops", p.ExternalID)
}

func TestNormalize_ManualInput_ExtrasPassThrough(t *testing.T) {
	e := NewEngine()
	payload := json.RawMessage(`{
		"name": "Juan",
		"email": "juan@example.com",
		"budget": 3000,
		"notes": "interested daw",
		"referrer": "tita edna",
		"shirt_size": "L"
	}`)

	p, err := e.Normalize(model.SourceManualInput, payload, "t1")
	require.NoError(t, err)

	assert.Equal(t, 3000.0, p.Budget)
	assert.Equal(t, "manual", p.Channel)
	assert.Equal(t, "tita edna", p.Extra["referrer"])
	assert.Equal(t, "L", p.Extra["shirt_size"])
	// Known fields never leak into the overflow bag.
	_, hasName := p.Extra["name"]
	assert.False(t, hasName)
}

func TestNormalize_CrossConsolidated(t *testing.T) {
	e := NewEngine()
	payload := json.RawMessage(`{"records": [
		{"name": "Juan", "email": "juan@example.com", "interest_tags": ["price_inquiry"],
		 "past_interactions": [{"content": "hi", "timestamp": "2026-08-01T10:00:00Z"}]},
		{"name": "Juan D.", "phone": "+639175551234", "budget": 4000,
		 "interest_tags": ["price_inquiry", "strong_interest"],
		 "past_interactions": [{"content": "hi", "timestamp": "2026-08-01T10:00:00Z"}]}
	]}`)

	p, err := e.Normalize(model.SourceCrossConsolidated, payload, "t1")
	require.NoError(t, err)

	// Scalars fill-if-empty in record order; the first name wins.
	assert.Equal(t, "Juan", p.Name)
	assert.Equal(t, "juan@example.com", p.Email)
	assert.Equal(t, "+639175551234", p.Phone)
	assert.Equal(t, 4000.0, p.Budget)
	// Sets union, interactions concatenate without dedup.
	assert.Equal(t, []string{"price_inquiry", "strong_interest"}, p.InterestTags)
	assert.Len(t, p.PastInteractions, 2)
}

func TestNormalize_CrossConsolidated_Empty(t *testing.T) {
	e := NewEngine()
	_, err := e.Normalize(model.SourceCrossConsolidated, json.RawMessage(`{"records":[]}`), "t1")
	assert.Error(t, err)
}

func TestNormalize_SiteCrawl(t *testing.T) {
	e := NewEngine()
	payload := json.RawMessage(`{
		"url": "https://tindahan.example.com",
		"contact_block": "Email us: sales@tindahan.example.com / 0917 555 3333"
	}`)

	p, err := e.Normalize(model.SourceSiteCrawl, payload, "t1")
	require.NoError(t, err)

	assert.Equal(t, "sales@tindahan.example.com", p.Email)
	assert.Equal(t, "09175553333", p.Phone)
	assert.Equal(t, "https://tindahan.example.com", p.ExternalID)
	assert.Equal(t, "web", p.Channel)
}
