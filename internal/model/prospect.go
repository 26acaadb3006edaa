package model

import (
	"time"
)

// SourceKind identifies which raw payload shape a submission arrived in.
// The normalization engine dispatches on this value and refuses anything
// it does not recognize.
type SourceKind string

const (
	SourceChatTranscript    SourceKind = "chat_transcript"
	SourceChatPreForm       SourceKind = "chat_preform"
	SourceScreenshotOCR     SourceKind = "screenshot_ocr"
	SourceCSVRow            SourceKind = "csv_row"
	SourcePDFText           SourceKind = "pdf_text"
	SourceBrowserExtension  SourceKind = "browser_extension"
	SourceSocialAPI         SourceKind = "social_api"
	SourceSiteCrawl         SourceKind = "site_crawl"
	SourceManualInput       SourceKind = "manual_input"
	SourceCrossConsolidated SourceKind = "cross_consolidated"
)

// AllSourceKinds returns every supported source kind.
func AllSourceKinds() []SourceKind {
	return []SourceKind{
		SourceChatTranscript, SourceChatPreForm, SourceScreenshotOCR,
		SourceCSVRow, SourcePDFText, SourceBrowserExtension,
		SourceSocialAPI, SourceSiteCrawl, SourceManualInput,
		SourceCrossConsolidated,
	}
}

// BuyingCapacity is the coarse spend-ability tier inferred for a prospect.
type BuyingCapacity string

const (
	CapacityLow      BuyingCapacity = "low"
	CapacityMedium   BuyingCapacity = "medium"
	CapacityHigh     BuyingCapacity = "high"
	CapacityVeryHigh BuyingCapacity = "very_high"
)

// BuyingTimeline is when the prospect is expected to be ready to buy.
type BuyingTimeline string

const (
	TimelineImmediate BuyingTimeline = "immediate"
	TimelineWeek      BuyingTimeline = "within_week"
	TimelineMonth     BuyingTimeline = "within_month"
	TimelineQuarter   BuyingTimeline = "within_quarter"
	TimelineUnknown   BuyingTimeline = "unknown"
)

// Sentiment is the five-level sentiment label.
type Sentiment string

const (
	SentimentVeryNegative Sentiment = "very_negative"
	SentimentNegative     Sentiment = "negative"
	SentimentNeutral      Sentiment = "neutral"
	SentimentPositive     Sentiment = "positive"
	SentimentVeryPositive Sentiment = "very_positive"
)

// PersonalityType is the four-quadrant social-style classification.
type PersonalityType string

const (
	PersonalityAmiable    PersonalityType = "amiable"
	PersonalityDriver     PersonalityType = "driver"
	PersonalityExpressive PersonalityType = "expressive"
	PersonalityAnalytical PersonalityType = "analytical"
	PersonalityUnknown    PersonalityType = "unknown"
)

// LeadStage buckets a prospect by readiness.
type LeadStage string

const (
	StageHot       LeadStage = "hot"
	StageWarm      LeadStage = "warm"
	StageQualified LeadStage = "qualified"
	StageCold      LeadStage = "cold"
)

// Interaction is one prior touch with the prospect, in chronological order.
type Interaction struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NormalizedProspect is the canonical record shape every source mapper
// produces. Contact fields, when present, are already format-normalized:
// emails lower-cased and RFC-shaped, phones stripped to digits and a
// leading +.
type NormalizedProspect struct {
	Name            string          `json:"name,omitempty"`
	Email           string          `json:"email,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	ExternalID      string          `json:"external_id,omitempty"`
	Location        string          `json:"location,omitempty"`
	Occupation      string          `json:"occupation,omitempty"`
	InterestTags    []string        `json:"interest_tags,omitempty"`
	ProductInterest []string        `json:"product_interest,omitempty"`
	ObjectionTypes  []string        `json:"objection_types,omitempty"`
	Budget          float64         `json:"budget,omitempty"`
	BuyingCapacity  BuyingCapacity  `json:"buying_capacity,omitempty"`
	BuyingTimeline  BuyingTimeline  `json:"buying_timeline,omitempty"`
	Sentiment       Sentiment       `json:"sentiment,omitempty"`
	Personality     PersonalityType `json:"personality_type,omitempty"`
	EmotionScore    int             `json:"emotion_score"`
	PastInteractions []Interaction  `json:"past_interactions,omitempty"`
	Channel         string          `json:"channel,omitempty"`
	SourceKind      SourceKind      `json:"source_kind"`
	QualityScore    int             `json:"quality_score"`
	LeadStage       LeadStage       `json:"lead_stage,omitempty"`
	// Extra carries unrecognized manual-entry fields verbatim. All other
	// mappers drop unknown fields silently.
	Extra map[string]any `json:"extra,omitempty"`
}

// HasContactInfo reports whether any direct contact field is populated.
func (p *NormalizedProspect) HasContactInfo() bool {
	return p.Email != "" || p.Phone != "" || p.ExternalID != ""
}

// qualityWeights assigns a presence weight per field. The quality score is
// the sum of weights for populated fields, capped at 100.
var qualityWeights = []struct {
	weight  int
	present func(*NormalizedProspect) bool
}{
	{20, func(p *NormalizedProspect) bool { return p.Email != "" }},
	{20, func(p *NormalizedProspect) bool { return p.Phone != "" }},
	{15, func(p *NormalizedProspect) bool { return p.Name != "" }},
	{10, func(p *NormalizedProspect) bool { return p.ExternalID != "" }},
	{10, func(p *NormalizedProspect) bool { return p.Budget > 0 }},
	{5, func(p *NormalizedProspect) bool { return p.Location != "" }},
	{5, func(p *NormalizedProspect) bool { return p.Occupation != "" }},
	{5, func(p *NormalizedProspect) bool { return len(p.InterestTags) > 0 }},
	{5, func(p *NormalizedProspect) bool { return len(p.ProductInterest) > 0 }},
	{5, func(p *NormalizedProspect) bool { return len(p.PastInteractions) > 0 }},
}

// ComputeQualityScore returns the deterministic weighted presence sum for
// the record, capped at 100.
func (p *NormalizedProspect) ComputeQualityScore() int {
	score := 0
	for _, w := range qualityWeights {
		if w.present(p) {
			score += w.weight
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Prospect is the persisted, tenant-owned record: the canonical shape plus
// the scores and tags the pipeline derives. It is created empty at dedup
// insert time and populated at pipeline completion.
type Prospect struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`

	NormalizedProspect

	ScoutScoreV10    int      `json:"scout_score_v10"`
	ConfidenceScore  int      `json:"confidence_score"`
	HotProspectScore int      `json:"hot_prospect_score"`
	Industry         string   `json:"industry,omitempty"`
	AppliedTags      []string `json:"applied_tags,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MergeLogEntry records one absorption of a duplicate prospect into a
// master. The absorbed row is hard-deleted; this entry is the only trace
// it existed.
type MergeLogEntry struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenant_id"`
	MasterID         string    `json:"master_id"`
	AbsorbedID       string    `json:"absorbed_id"`
	Confidence       int       `json:"confidence"`
	AbsorbedSnapshot *Prospect `json:"absorbed_snapshot,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// UnionStrings merges b into a preserving a's order, appending unseen
// values from b in their original order.
func UnionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range a {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	for _, v := range b {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
