package normalize

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/scout-cli/internal/model"
)

// payload shapes are permissive: unrecognized fields are dropped silently
// everywhere except manual entry, which carries them through verbatim.

type chatMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type chatTranscriptPayload struct {
	ExternalID string        `json:"external_id"`
	Channel    string        `json:"channel"`
	Name       string        `json:"name"`
	Messages   []chatMessage `json:"messages"`
}

func mapChatTranscript(raw json.RawMessage) (model.NormalizedProspect, error) {
	var in chatTranscriptPayload
	if err := json.Unmarshal(raw, &in); err != nil {
		return model.NormalizedProspect{}, eris.Wrap(err, "normalize: chat transcript payload")
	}

	var sb strings.Builder
	p := model.NormalizedProspect{
		Name:       strings.TrimSpace(in.Name),
		ExternalID: strings.TrimSpace(in.ExternalID),
		Channel:    in.Channel,
	}
	for _, m := range in.Messages {
		// Only prospect-side messages feed signal extraction; our own
		// replies would pollute the vocabularies.
		if !strings.EqualFold(m.Sender, "agent") && !strings.EqualFold(m.Sender, "me") {
			sb.WriteString(m.Text)
			sb.WriteString("\n")
		}
		p.PastInteractions = append(p.PastInteractions, model.Interaction{
			Content:   m.Text,
			Timestamp: m.Timestamp,
		})
	}

	text := sb.String()
	p.Email = ExtractEmail(text)
	p.Phone = ExtractPhone(text)
	p.InterestTags = ExtractInterestTags(text)
	p.ObjectionTypes = ExtractObjections(text)
	return p, nil
}

type chatPreFormPayload struct {
	Name    string            `json:"name"`
	Email   string            `json:"email"`
	Phone   string            `json:"phone"`
	Channel string            `json:"channel"`
	Answers map[string]string `json:"answers"`
}

func mapChatPreForm(raw json.RawMessage) (model.NormalizedProspect, error) {
	var in chatPreFormPayload
	if err := json.Unmarshal(raw, &in); err != nil {
		return model.NormalizedProspect{}, eris.Wrap(err, "normalize: chat pre-form payload")
	}

	p := model.NormalizedProspect{
		Name:    strings.TrimSpace(in.Name),
		Email:   NormalizeEmail(in.Email),
		Phone:   NormalizePhone(in.Phone),
		Channel: in.Channel,
	}

	var sb strings.Builder
	for _, v := range in.Answers {
		sb.WriteString(v)
		sb.WriteString("\n")
	}
	text := sb.String()
	p.InterestTags = ExtractInterestTags(text)
	p.ObjectionTypes = ExtractObjections(text)
	if b, ok := in.Answers["budget"]; ok {
		p.Budget = ParseBudget(b)
	}
	return p, nil
}

type screenshotOCRPayload struct {
	Text             string   `json:"text"`
	NameCandidates   []string `json:"name_candidates"`
	NumberCandidates []string `json:"number_candidates"`
	Channel          string   `json:"channel"`
}

func mapScreenshotOCR(raw json.RawMessage) (model.NormalizedProspect, error) {
	var in screenshotOCRPayload
	if err := json.Unmarshal(raw, &in); err != nil {
		return model.NormalizedProspect{}, eris.Wrap(err, "normalize: screenshot OCR payload")
	}

	p := model.NormalizedProspect{Channel: in.Channel}
	if len(in.NameCandidates) > 0 {
		p.Name = strings.TrimSpace(in.NameCandidates[0])
	}
	for _, cand := range in.NumberCandidates {
		if phone := NormalizePhone(cand); phone != "" {
			p.Phone = phone
			break
		}
	}
	p.Email = ExtractEmail(in.Text)
	if p.Phone == "" {
		p.Phone = ExtractPhone(in.Text)
	}
	p.InterestTags = ExtractInterestTags(in.Text)
	p.ObjectionTypes = ExtractObjections(in.Text)
	if len(in.Text) > 0 {
		p.PastInteractions = []model.Interaction{{Content: in.Text, Timestamp: time.Now().UTC()}}
	}
	return p, nil
}

type csvRowPayload struct {
	Columns map[string]string `json:"columns"`
}

// csvHeaderAliases maps loosely-spelled CSV headers onto canonical fields.
var csvHeaderAliases = map[string]string{
	"name": "name", "full name": "name", "fullname": "name", "contact name": "name",
	"email": "email", "e-mail": "email", "email address": "email",
	"phone": "phone", "mobile": "phone", "contact": "phone", "phone number": "phone",
	"location": "location", "address": "location", "city": "location",
	"occupation": "occupation", "job": "occupation", "work": "occupation",
	"budget": "budget", "notes": "notes", "remarks": "notes",
}

func mapCSVRow(raw json.RawMessage) (model.NormalizedProspect, error) {
	var in csvRowPayload
	if err := json.Unmarshal(raw, &in); err != nil {
		return model.NormalizedProspect{}, eris.Wrap(err, "normalize: csv row payload")
	}

	var p model.NormalizedProspect
	var notes string
	for header, value := range in.Columns {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch csvHeaderAliases[strings.ToLower(strings.TrimSpace(header))] {
		case "name":
			p.Name = value
		case "email":
			p.Email = NormalizeEmail(value)
		case "phone":
			p.Phone = NormalizePhone(value)
		case "location":
			p.Location = value
		case "occupation":
			p.Occupation = value
		case "budget":
			p.Budget = ParseBudget(value)
		case "notes":
			notes = value
		}
	}
	if notes != "" {
		p.InterestTags = ExtractInterestTags(notes)
		p.ObjectionTypes = ExtractObjections(notes)
	}
	p.Channel = "import"
	return p, nil
}

type pdfTextPayload struct {
	Text      string `json:"text"`
	PageCount int    `json:"page_count"`
}

func mapPDFText(raw json.RawMessage) (model.NormalizedProspect, error) {
	var in pdfTextPayload
	if err := json.Unmarshal(raw, &in); err != nil {
		return model.NormalizedProspect{}, eris.Wrap(err, "normalize: pdf text payload")
	}

	p := model.NormalizedProspect{
		Email:          ExtractEmail(in.Text),
		Phone:          ExtractPhone(in.Text),
		InterestTags:   ExtractInterestTags(in.Text),
		ObjectionTypes: ExtractObjections(in.Text),
		Channel:        "document",
	}
	return p, nil
}

type browserExtensionPayload struct {
	URL          string `json:"url"`
	ProfileName  string `json:"profile_name"`
	Handle       string `json:"handle"`
	Platform     string `json:"platform"`
	CapturedText string `json:"captured_text"`
}

func mapBrowserExtension(raw json.RawMessage) (model.NormalizedProspect, error) {
	var in browserExtensionPayload
	if err := json.Unmarshal(raw, &in); err != nil {
		return model.NormalizedProspect{}, eris.Wrap(err, "normalize: browser extension payload")
	}

	p := model.NormalizedProspect{
		Name:           strings.TrimSpace(in.ProfileName),
		ExternalID:     strings.TrimSpace(in.Handle),
		Channel:        in.Platform,
		Email:          ExtractEmail(in.CapturedText),
		Phone:          ExtractPhone(in.CapturedText),
		InterestTags:   ExtractInterestTags(in.CapturedText),
		ObjectionTypes: ExtractObjections(in.CapturedText),
	}
	return p, nil
}

type socialAPIPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Location string `json:"location"`
	Platform string `json:"platform"`
}

func mapSocialAPI(raw json.RawMessage) (model.NormalizedProspect, error) {
	var in socialAPIPayload
	if err := json.Unmarshal(raw, &in); err != nil {
		return model.NormalizedProspect{}, eris.Wrap(err, "normalize: social api payload")
	}

	externalID := in.ID
	if externalID == "" {
		externalID = in.Username
	}
	p := model.NormalizedProspect{
		Name:         strings.TrimSpace(in.Name),
		ExternalID:   strings.TrimSpace(externalID),
		Location:     strings.TrimSpace(in.Location),
		Channel:      in.Platform,
		Email:        ExtractEmail(in.Bio),
		InterestTags: ExtractInterestTags(in.Bio),
	}
	if occ := occupationFromBio(in.Bio); occ != "" {
		p.Occupation = occ
	}
	return p, nil
}

// occupationFromBio pulls a self-declared occupation from the first bio
// line when it looks like a title rather than a sentence.
func occupationFromBio(bio string) string {
	line := strings.TrimSpace(strings.Split(bio, "\n")[0])
	if line == "" || len(line) > 60 || strings.Contains(line, ".") {
		return ""
	}
	return line
}

type siteCrawlPayload struct {
	URL          string `json:"url"`
	ContactBlock string `json:"contact_block"`
}

func mapSiteCrawl(raw json.RawMessage) (model.NormalizedProspect, error) {
	var in siteCrawlPayload
	if err := json.Unmarshal(raw, &in); err != nil {
		return model.NormalizedProspect{}, eris.Wrap(err, "normalize: site crawl payload")
	}

	p := model.NormalizedProspect{
		Email:      ExtractEmail(in.ContactBlock),
		Phone:      ExtractPhone(in.ContactBlock),
		ExternalID: strings.TrimSpace(in.URL),
		Channel:    "web",
	}
	return p, nil
}

// manualKnownFields are the recognized manual-entry keys. Everything else
// passes through verbatim in the overflow bag.
var manualKnownFields = map[string]bool{
	"name": true, "email": true, "phone": true, "external_id": true,
	"location": true, "occupation": true, "budget": true, "channel": true,
	"notes": true,
}

func mapManualInput(raw json.RawMessage) (model.NormalizedProspect, error) {
	var in map[string]any
	if err := json.Unmarshal(raw, &in); err != nil {
		return model.NormalizedProspect{}, eris.Wrap(err, "normalize: manual input payload")
	}

	str := func(key string) string {
		if v, ok := in[key].(string); ok {
			return strings.TrimSpace(v)
		}
		return ""
	}

	p := model.NormalizedProspect{
		Name:       str("name"),
		Email:      NormalizeEmail(str("email")),
		Phone:      NormalizePhone(str("phone")),
		ExternalID: str("external_id"),
		Location:   str("location"),
		Occupation: str("occupation"),
		Channel:    str("channel"),
	}
	if p.Channel == "" {
		p.Channel = "manual"
	}

	switch b := in["budget"].(type) {
	case string:
		p.Budget = ParseBudget(b)
	case float64:
		if b > 0 {
			p.Budget = b
		}
	}

	if notes := str("notes"); notes != "" {
		p.InterestTags = ExtractInterestTags(notes)
		p.ObjectionTypes = ExtractObjections(notes)
	}

	for k, v := range in {
		if manualKnownFields[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}
	return p, nil
}

type crossConsolidatedPayload struct {
	Records []model.NormalizedProspect `json:"records"`
}

// mapCrossConsolidated folds multiple already-normalized fragments into
// one record: scalars fill-if-empty in record order, sets union,
// interactions concatenate.
func mapCrossConsolidated(raw json.RawMessage) (model.NormalizedProspect, error) {
	var in crossConsolidatedPayload
	if err := json.Unmarshal(raw, &in); err != nil {
		return model.NormalizedProspect{}, eris.Wrap(err, "normalize: cross-consolidated payload")
	}
	if len(in.Records) == 0 {
		return model.NormalizedProspect{}, eris.New("normalize: cross-consolidated payload has no records")
	}

	out := in.Records[0]
	for _, r := range in.Records[1:] {
		fillIfEmpty(&out.Name, r.Name)
		fillIfEmpty(&out.Email, r.Email)
		fillIfEmpty(&out.Phone, r.Phone)
		fillIfEmpty(&out.ExternalID, r.ExternalID)
		fillIfEmpty(&out.Location, r.Location)
		fillIfEmpty(&out.Occupation, r.Occupation)
		fillIfEmpty(&out.Channel, r.Channel)
		if out.Budget == 0 {
			out.Budget = r.Budget
		}
		out.InterestTags = model.UnionStrings(out.InterestTags, r.InterestTags)
		out.ProductInterest = model.UnionStrings(out.ProductInterest, r.ProductInterest)
		out.ObjectionTypes = model.UnionStrings(out.ObjectionTypes, r.ObjectionTypes)
		out.PastInteractions = append(out.PastInteractions, r.PastInteractions...)
	}
	return out, nil
}

func fillIfEmpty(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}
