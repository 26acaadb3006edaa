package pipeline

import (
	"encoding/json"
	"sort"

	"github.com/sells-group/scout-cli/internal/model"
)

// Pass names, in execution order. These are the keys of
// PipelineState.PassStatuses and the pass_name column of the audit log.
const (
	PassClean     = "1_clean_extract"
	PassClassify  = "2_first_pass_classification"
	PassBehavior  = "3_behavior_emotion"
	PassDeepScan  = "4_multi_agent_deep_scan"
	PassFusion    = "5_fusion"
	PassRisk      = "6_risk_safety"
	PassFinal     = "7_final_output"
)

// PassNames lists the passes in order.
var PassNames = []string{
	PassClean, PassClassify, PassBehavior, PassDeepScan, PassFusion, PassRisk, PassFinal,
}

// IntentTier is the buying-intent level assigned by pass 2.
type IntentTier string

const (
	IntentHigh   IntentTier = "high"
	IntentMedium IntentTier = "medium"
	IntentLow    IntentTier = "low"
)

// CleanResult is the pass-1 output: deterministic text cleanup only.
type CleanResult struct {
	CleanedText string `json:"cleaned_text"`
	Language    string `json:"language"`
	SpamFlag    bool   `json:"spam_flag"`
	WordCount   int    `json:"word_count"`
}

// ClassifyResult is the pass-2 output: cheap keyword classification over
// the cleaned text.
type ClassifyResult struct {
	KeywordTags        []string   `json:"keyword_tags,omitempty"`
	DetectedIndustries []string   `json:"detected_industries,omitempty"`
	BuyingIntent       IntentTier `json:"buying_intent"`
	ExtractedEmail     string     `json:"extracted_email,omitempty"`
	ExtractedPhone     string     `json:"extracted_phone,omitempty"`
}

// BehaviorResult is the pass-3 output. It is derived from the raw
// payload, not the pass-1 text, to catch signals cleanup may strip.
type BehaviorResult struct {
	Sentiment     model.Sentiment `json:"sentiment"`
	UrgencyLevel  string          `json:"urgency_level"`
	UrgencySignals []string       `json:"urgency_signals,omitempty"`
	HiddenSignals []string        `json:"hidden_signals,omitempty"`
	EmotionScore  int             `json:"emotion_score"`
}

// SalesFit is the sales-fit sub-analysis output of pass 4.
type SalesFit struct {
	BuyingAbility string   `json:"buying_ability"`
	FitReasons    []string `json:"fit_reasons,omitempty"`
	ProductFit    int      `json:"product_fit"`
	Confidence    int      `json:"confidence"`
}

// Investigation is the investigative sub-analysis output of pass 4.
type Investigation struct {
	SocialSignals []string `json:"social_signals,omitempty"`
	StatusSignals []string `json:"status_signals,omitempty"`
	PainPoints    []string `json:"pain_points,omitempty"`
	Confidence    int      `json:"confidence"`
}

// PersonalityRead is the personality sub-analysis output of pass 4.
type PersonalityRead struct {
	Type       model.PersonalityType `json:"personality_type"`
	Evidence   []string              `json:"evidence,omitempty"`
	Confidence int                   `json:"confidence"`
}

// DeepScanResult bundles the three concurrent pass-4 sub-analyses.
type DeepScanResult struct {
	SalesFit      SalesFit        `json:"sales_fit"`
	Investigation Investigation   `json:"investigation"`
	Personality   PersonalityRead `json:"personality"`
}

// FusionResult is the pass-5 output: the one place prior passes are
// combined into a single score.
type FusionResult struct {
	ScoutScoreV10   int             `json:"scout_score_v10"`
	ConfidenceScore int             `json:"confidence_score"`
	LeadQuality     model.LeadStage `json:"lead_quality"`
}

// Violation is one compliance-rule hit found by pass 6.
type Violation struct {
	RuleName string               `json:"rule_name"`
	Type     string               `json:"filter_type"`
	Severity model.FilterSeverity `json:"severity"`
	Pattern  string               `json:"pattern"`
}

// RiskResult is the pass-6 output. ShouldProceed=false is a policy
// rejection, not an error: pass 7 never runs and the job terminates as
// blocked.
type RiskResult struct {
	Violations    []Violation `json:"violations,omitempty"`
	IsCompliant   bool        `json:"is_compliant"`
	RiskLevel     string      `json:"risk_level"`
	ShouldProceed bool        `json:"should_proceed"`
}

// FinalProfile is the pass-7 output: the denormalized authoritative
// per-job result, a pure function of the prior pass outputs.
type FinalProfile struct {
	ScoutScoreV10   int                   `json:"scout_score_v10"`
	ConfidenceScore int                   `json:"confidence_score"`
	LeadQuality     model.LeadStage       `json:"lead_quality"`
	BuyingIntent    IntentTier            `json:"buying_intent"`
	Sentiment       model.Sentiment       `json:"sentiment"`
	EmotionScore    int                   `json:"emotion_score"`
	Personality     model.PersonalityType `json:"personality_type"`
	BuyingAbility   string                `json:"buying_ability"`
	ProductFit      int                   `json:"product_fit"`
	UrgencyLevel    string                `json:"urgency_level"`
	KeywordTags     []string              `json:"keyword_tags,omitempty"`
	HiddenSignals   []string              `json:"hidden_signals,omitempty"`
	PainPoints      []string              `json:"pain_points,omitempty"`
	Industries      []string              `json:"detected_industries,omitempty"`
	Language        string                `json:"language"`
	SpamFlag        bool                  `json:"spam_flag"`
	WordCount       int                   `json:"word_count"`
	RiskLevel       string                `json:"risk_level"`
}

// Context is the pipeline context assembled once per job: every pass
// writes its output here and later passes read earlier entries from it.
// Pass 7 is a pure function of this value; storage holds the same data as
// an append-only audit log but is not re-queried mid-run.
type Context struct {
	Job        *model.IngestionJob
	Record     *model.NormalizedProspect
	RawPayload json.RawMessage

	Clean    *CleanResult
	Classify *ClassifyResult
	Behavior *BehaviorResult
	DeepScan *DeepScanResult
	Fusion   *FusionResult
	Risk     *RiskResult
	Final    *FinalProfile
}

// RawText flattens the raw payload for passes that scan it directly. A
// JSON payload contributes its string leaf values; anything else is used
// verbatim.
func (c *Context) RawText() string {
	return flattenJSONText(c.RawPayload)
}

func flattenJSONText(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	var sb []byte
	var walk func(any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			if len(sb) > 0 {
				sb = append(sb, ' ')
			}
			sb = append(sb, t...)
		case []any:
			for _, e := range t {
				walk(e)
			}
		case map[string]any:
			for _, k := range sortedKeys(t) {
				walk(t[k])
			}
		}
	}
	walk(v)
	return string(sb)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic flattening keeps pass outputs reproducible for the
	// same payload.
	sort.Strings(keys)
	return keys
}
