package industry

import "github.com/sells-group/scout-cli/internal/model"

// RuleKind discriminates how a tagging rule's condition is evaluated.
type RuleKind string

const (
	// RuleKeyword fires when any keyword appears in the payload text.
	RuleKeyword RuleKind = "keyword"
	// RuleRegex fires when the compiled pattern matches the payload text.
	RuleRegex RuleKind = "regex"
	// RuleSentiment fires when the record's sentiment equals the value.
	RuleSentiment RuleKind = "sentiment"
	// RuleBehavior fires when the value appears among the record's
	// behavior signals (interest tags and objection types).
	RuleBehavior RuleKind = "behavior"
)

// TagRule is one independent tagging condition. Rules are evaluated in
// order and every rule whose condition holds contributes its tag;
// multiple rules may fire for the same record.
type TagRule struct {
	Kind     RuleKind `yaml:"kind"`
	Tag      string   `yaml:"tag"`
	Keywords []string `yaml:"keywords,omitempty"`
	Pattern  string   `yaml:"pattern,omitempty"`
	Value    string   `yaml:"value,omitempty"`
}

// Score factor names. A factor participates in the industry score only
// when the model configures a weight for it.
const (
	FactorBuyingIntent        = "buying_intent"
	FactorSentiment           = "sentiment"
	FactorBuyingCapacity      = "buying_capacity"
	FactorPainPointCoverage   = "pain_point_coverage"
	FactorObjectionDifficulty = "objection_difficulty"
)

// Model is one industry vertical: its detection vocabulary, tagging
// rules, score weighting, and canned objection responses.
type Model struct {
	Name               string             `yaml:"name"`
	Keywords           []string           `yaml:"keywords"`
	TagRules           []TagRule          `yaml:"tag_rules"`
	ScoreWeights       map[string]float64 `yaml:"score_weights"`
	ObjectionResponses map[string]string  `yaml:"objection_responses"`
}

// Action names returned by RecommendNextAction.
const (
	ActionIntroduction    = "introduction"
	ActionScheduleCall    = "schedule-call"
	ActionHandleObjection = "handle-objection"
	ActionSoftClose       = "soft-close"
	ActionFollowUp        = "follow-up"
	ActionNurture         = "nurture"
)

// NextAction is a recommendation for the next touch on a prospect.
type NextAction struct {
	Action   string `json:"action"`
	Reason   string `json:"reason"`
	Response string `json:"response,omitempty"`
}

// BehaviorSignals flattens the record fields tag rules inspect.
func BehaviorSignals(p *model.Prospect) []string {
	signals := make([]string, 0, len(p.InterestTags)+len(p.ObjectionTypes))
	signals = append(signals, p.InterestTags...)
	signals = append(signals, p.ObjectionTypes...)
	return signals
}
