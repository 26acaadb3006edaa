// Package crowd is the cross-tenant learning store: a keyed accumulator
// table behind a narrow read/merge-write API. Callers never mutate rows
// directly, so the additive-merge invariant cannot be bypassed.
package crowd

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/store"
)

// Baselines used when no crowd data exists for a lookup. Prediction
// degrades to these rather than failing.
const (
	defaultConversionBaseline = 0.5
	defaultApproach           = "balanced"
)

// Learner records and queries crowd patterns.
type Learner struct {
	store store.Store
	log   *zap.Logger
}

func NewLearner(st store.Store) *Learner {
	return &Learner{store: st, log: zap.L().Named("crowd")}
}

// RecordPattern merges one observation into the keyed accumulator.
// Existing rows gain occurrence count, summed data fields, and unioned
// industries; missing rows are inserted with count 1.
func (l *Learner) RecordPattern(ctx context.Context, patternType model.PatternType, key string, data model.PatternData, industries ...string) error {
	if key == "" {
		return eris.New("crowd: empty pattern key")
	}
	if err := l.store.MergePattern(ctx, patternType, key, data, industries); err != nil {
		return eris.Wrapf(err, "record pattern %s/%s", patternType, key)
	}
	return nil
}

// GetTopPatterns returns the highest-occurrence patterns of a type.
func (l *Learner) GetTopPatterns(ctx context.Context, patternType model.PatternType, limit int) ([]model.LearningPattern, error) {
	return l.store.TopPatterns(ctx, patternType, limit)
}

// ConfidenceForSamples bands a sample count into a coarse confidence
// step. Callers branch on these exact breakpoints, so the banding must
// stay a step function rather than anything continuous.
func ConfidenceForSamples(n int) int {
	switch {
	case n >= 1000:
		return 95
	case n >= 500:
		return 85
	case n >= 100:
		return 75
	case n >= 50:
		return 65
	case n >= 10:
		return 50
	default:
		return 30
	}
}

// Prediction is a best-effort behavioral forecast composed from several
// pattern lookups.
type Prediction struct {
	LikelyObjections    []string `json:"likely_objections,omitempty"`
	SignalsToWatch      []string `json:"signals_to_watch,omitempty"`
	RecommendedApproach string   `json:"recommended_approach"`
	ConversionEstimate  float64  `json:"conversion_estimate"`
	Confidence          int      `json:"confidence"`
	SampleSize          int      `json:"sample_size"`
}

// PredictProspectBehavior composes pattern lookups into a prediction for
// the record. Every lookup that comes back empty falls through to a fixed
// default; the call never fails for lack of data.
func (l *Learner) PredictProspectBehavior(ctx context.Context, p *model.Prospect, industryName string) (*Prediction, error) {
	pred := &Prediction{
		RecommendedApproach: defaultApproach,
		ConversionEstimate:  defaultConversionBaseline,
	}

	samples, err := l.store.SumIndustryOccurrences(ctx, industryName)
	if err != nil {
		return nil, eris.Wrap(err, "predict: industry samples")
	}
	pred.SampleSize = samples
	pred.Confidence = ConfidenceForSamples(samples)

	// Likely objections: top objection patterns tagged with this industry.
	objections, err := l.store.TopPatterns(ctx, model.PatternObjectionResponse, 25)
	if err != nil {
		return nil, eris.Wrap(err, "predict: objection patterns")
	}
	for _, pat := range objections {
		if !hasIndustry(pat.Industries, industryName) {
			continue
		}
		if obj := objectionFromKey(pat.Key); obj != "" {
			pred.LikelyObjections = append(pred.LikelyObjections, obj)
		}
		if len(pred.LikelyObjections) == 3 {
			break
		}
	}

	// Signals to watch: the prospect's own tags the crowd has seen convert.
	completed, err := l.store.TopPatterns(ctx, model.PatternScanCompleted, 25)
	if err != nil {
		return nil, eris.Wrap(err, "predict: scan patterns")
	}
	seenTags := make(map[string]bool)
	for _, pat := range completed {
		seenTags[pat.Key] = true
	}
	for _, tag := range p.InterestTags {
		if seenTags[tag] {
			pred.SignalsToWatch = append(pred.SignalsToWatch, tag)
		}
	}

	// Approach and conversion baseline: the crowd's personality-outcome row
	// for this personality within the industry, when one exists.
	if p.Personality != "" && p.Personality != model.PersonalityUnknown {
		key := string(p.Personality) + "|" + industryName
		pat, err := l.store.GetPattern(ctx, model.PatternPersonalityOutcome, key)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// keep defaults
		case err != nil:
			return nil, eris.Wrap(err, "predict: personality pattern")
		default:
			if rate, ok := pat.Data[model.PatternFieldConversionRate]; ok {
				pred.ConversionEstimate = rate
			}
			pred.RecommendedApproach = approachFor(p.Personality)
		}
	}

	return pred, nil
}

// objectionFromKey extracts the objection component of an
// objection|product|industry key.
func objectionFromKey(key string) string {
	if i := strings.IndexByte(key, '|'); i > 0 {
		return key[:i]
	}
	return key
}

func hasIndustry(industries []string, name string) bool {
	for _, ind := range industries {
		if ind == name {
			return true
		}
	}
	return false
}

func approachFor(p model.PersonalityType) string {
	switch p {
	case model.PersonalityDriver:
		return "direct"
	case model.PersonalityAnalytical:
		return "evidence-led"
	case model.PersonalityExpressive:
		return "story-led"
	case model.PersonalityAmiable:
		return "relationship-first"
	default:
		return defaultApproach
	}
}

// PruneRarePatterns removes patterns below an occurrence floor that have
// not been updated since the cutoff. Returns the number deleted.
func (l *Learner) PruneRarePatterns(ctx context.Context, minOccurrence int, olderThan time.Time) (int, error) {
	n, err := l.store.PrunePatterns(ctx, minOccurrence, olderThan)
	if err != nil {
		return 0, eris.Wrap(err, "prune patterns")
	}
	if n > 0 {
		l.log.Info("pruned rare patterns", zap.Int("deleted", n))
	}
	return n, nil
}
