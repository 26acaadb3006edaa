package industry

import (
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scout-cli/internal/model"
)

// GeneralIndustry is the fallback label when no vocabulary scores a hit.
const GeneralIndustry = "General"

// scheduleCallThreshold is the scout score at or above which a call is
// recommended ahead of any objection handling.
const scheduleCallThreshold = 80

// staleAfter is how long since the last interaction before a follow-up
// reminder outranks nurturing.
const staleAfter = 48 * time.Hour

// Engine holds the registered industry models. Registration order is
// significant: detection ties break toward the earliest-registered
// industry, so the order is part of the engine's observable contract.
type Engine struct {
	models  []*Model
	byName  map[string]*Model
	regexes map[string]*regexp.Regexp
	log     *zap.Logger
}

// NewEngine builds an engine over the built-in models.
func NewEngine() *Engine {
	e := &Engine{
		byName:  make(map[string]*Model),
		regexes: make(map[string]*regexp.Regexp),
		log:     zap.L().Named("industry"),
	}
	for _, m := range builtinModels() {
		// Built-in rule patterns are compile-checked by tests.
		_ = e.Register(m)
	}
	return e
}

// Register adds a model, or replaces an existing model of the same name
// in place (keeping its original position in the tie-break order). Regex
// rules are compiled eagerly so a bad pattern fails at registration, not
// at scan time.
func (e *Engine) Register(m *Model) error {
	for _, r := range m.TagRules {
		if r.Kind != RuleRegex {
			continue
		}
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return eris.Wrapf(err, "industry %s: rule %q", m.Name, r.Tag)
		}
		e.regexes[m.Name+"/"+r.Tag] = re
	}
	if existing, ok := e.byName[m.Name]; ok {
		*existing = *m
		e.byName[m.Name] = existing
		return nil
	}
	e.models = append(e.models, m)
	e.byName[m.Name] = m
	return nil
}

// Model returns the registered model for a label, falling back to the
// General model for unknown labels.
func (e *Engine) Model(name string) *Model {
	if m, ok := e.byName[name]; ok {
		return m
	}
	return e.byName[GeneralIndustry]
}

// Names returns the registered industry labels in registration order.
func (e *Engine) Names() []string {
	out := make([]string, len(e.models))
	for i, m := range e.models {
		out[i] = m.Name
	}
	return out
}

// DetectIndustry scores every registered industry by counting vocabulary
// hits in the text and returns the top scorer. Ties break toward the
// earliest-registered industry; a zero top score returns General.
func (e *Engine) DetectIndustry(text string) string {
	lower := strings.ToLower(text)
	best := ""
	bestScore := 0
	for _, m := range e.models {
		score := 0
		for _, kw := range m.Keywords {
			score += strings.Count(lower, kw)
		}
		if score > bestScore {
			best = m.Name
			bestScore = score
		}
	}
	if bestScore == 0 {
		return GeneralIndustry
	}
	return best
}

// ApplyTaggingRules evaluates the industry's rules against the payload
// text and record signals, returning the tag of every rule that fired.
func (e *Engine) ApplyTaggingRules(industryName, payloadText string, p *model.Prospect) []string {
	m := e.Model(industryName)
	if m == nil {
		return nil
	}
	lower := strings.ToLower(payloadText)
	signals := BehaviorSignals(p)

	var tags []string
	for _, r := range m.TagRules {
		fired := false
		switch r.Kind {
		case RuleKeyword:
			for _, kw := range r.Keywords {
				if strings.Contains(lower, kw) {
					fired = true
					break
				}
			}
		case RuleRegex:
			if re, ok := e.regexes[m.Name+"/"+r.Tag]; ok {
				fired = re.MatchString(payloadText)
			}
		case RuleSentiment:
			fired = string(p.Sentiment) == r.Value
		case RuleBehavior:
			for _, s := range signals {
				if s == r.Value {
					fired = true
					break
				}
			}
		}
		if fired {
			tags = append(tags, r.Tag)
		}
	}
	return tags
}

// factorValue maps one score factor to 0-100 for a record.
func factorValue(factor string, p *model.Prospect) float64 {
	switch factor {
	case FactorBuyingIntent:
		switch p.BuyingTimeline {
		case model.TimelineImmediate:
			return 100
		case model.TimelineWeek:
			return 80
		case model.TimelineMonth:
			return 60
		case model.TimelineQuarter:
			return 40
		default:
			return 20
		}
	case FactorSentiment:
		switch p.Sentiment {
		case model.SentimentVeryPositive:
			return 100
		case model.SentimentPositive:
			return 75
		case model.SentimentNeutral:
			return 50
		case model.SentimentNegative:
			return 25
		default:
			return 0
		}
	case FactorBuyingCapacity:
		switch p.BuyingCapacity {
		case model.CapacityVeryHigh:
			return 100
		case model.CapacityHigh:
			return 80
		case model.CapacityMedium:
			return 55
		default:
			return 30
		}
	case FactorPainPointCoverage:
		v := float64(len(p.InterestTags)) * 25
		if v > 100 {
			v = 100
		}
		return v
	case FactorObjectionDifficulty:
		// Fewer open objections score higher.
		v := 100 - float64(len(p.ObjectionTypes))*30
		if v < 0 {
			v = 0
		}
		return v
	}
	return 0
}

// CalculateIndustryScore computes the industry-specific weighted average
// over the configured factors. Factors without a configured weight do not
// participate; an empty weight map yields 0.
func (e *Engine) CalculateIndustryScore(p *model.Prospect, industryName string) int {
	m := e.Model(industryName)
	if m == nil || len(m.ScoreWeights) == 0 {
		return 0
	}
	var weighted, total float64
	for factor, weight := range m.ScoreWeights {
		if weight <= 0 {
			continue
		}
		weighted += factorValue(factor, p) * weight
		total += weight
	}
	if total == 0 {
		return 0
	}
	score := int(weighted / total)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// ObjectionResponse looks up the industry's canned response for an
// objection type, falling back to the General model's.
func (e *Engine) ObjectionResponse(industryName, objection string) string {
	if m := e.Model(industryName); m != nil {
		if resp, ok := m.ObjectionResponses[objection]; ok {
			return resp
		}
	}
	if g := e.byName[GeneralIndustry]; g != nil {
		return g.ObjectionResponses[objection]
	}
	return ""
}

// RecommendNextAction walks a fixed-priority decision tree. Each clause
// is an early return, so the ordering is part of the contract: a
// high-scoring prospect with an open objection still gets the call.
func (e *Engine) RecommendNextAction(p *model.Prospect, industryName string) NextAction {
	if len(p.PastInteractions) == 0 {
		return NextAction{
			Action: ActionIntroduction,
			Reason: "no prior interaction on record",
		}
	}
	if p.ScoutScoreV10 >= scheduleCallThreshold {
		return NextAction{
			Action: ActionScheduleCall,
			Reason: "scout score at or above call threshold",
		}
	}
	if len(p.ObjectionTypes) > 0 {
		objection := p.ObjectionTypes[0]
		return NextAction{
			Action:   ActionHandleObjection,
			Reason:   "open objection: " + objection,
			Response: e.ObjectionResponse(industryName, objection),
		}
	}
	if p.Sentiment == model.SentimentPositive || p.Sentiment == model.SentimentVeryPositive {
		return NextAction{
			Action: ActionSoftClose,
			Reason: "positive sentiment, no blockers",
		}
	}
	if stale(p) {
		return NextAction{
			Action: ActionFollowUp,
			Reason: "no contact in over 48 hours",
		}
	}
	return NextAction{
		Action: ActionNurture,
		Reason: "no stronger signal",
	}
}

func stale(p *model.Prospect) bool {
	last := time.Time{}
	for _, i := range p.PastInteractions {
		if i.Timestamp.After(last) {
			last = i.Timestamp
		}
	}
	if last.IsZero() {
		return false
	}
	return time.Since(last) > staleAfter
}
