package orchestrator

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/pipeline"
)

// emitLearningEvents feeds the completed scan back into the crowd store.
// Emission is best-effort: the job is already completed, so a failed
// merge is logged and dropped rather than failing the run.
func (o *Orchestrator) emitLearningEvents(ctx context.Context, p *model.Prospect, industryLabel string, pc *pipeline.Context) {
	record := func(t model.PatternType, key string, data model.PatternData) {
		if err := o.learner.RecordPattern(ctx, t, key, data, industryLabel); err != nil {
			o.log.Warn("learning event dropped",
				zap.String("pattern_type", string(t)),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	one := model.PatternData{model.PatternFieldTotal: 1}

	if p.Name != "" && p.Occupation != "" {
		record(model.PatternNameOccupation, firstName(p.Name)+"|"+lower(p.Occupation), one)
	}
	if p.Location != "" {
		record(model.PatternLocationIndustry, lower(p.Location)+"|"+industryLabel, one)
	}

	// One event per objection x product x industry triple.
	products := p.ProductInterest
	if len(products) == 0 {
		products = []string{"unspecified"}
	}
	for _, objection := range p.ObjectionTypes {
		for _, product := range products {
			record(model.PatternObjectionResponse,
				objection+"|"+lower(product)+"|"+industryLabel, one)
		}
	}

	if p.Personality != "" && p.Personality != model.PersonalityUnknown {
		outcome := model.PatternData{model.PatternFieldTotal: 1}
		if p.LeadStage == model.StageHot {
			outcome[model.PatternFieldConversions] = 1
		}
		record(model.PatternPersonalityOutcome, string(p.Personality)+"|"+industryLabel, outcome)
	}

	// Generic completion events keyed by interest tag so predictions can
	// match a prospect's own signals against crowd-observed ones.
	tags := p.InterestTags
	if len(tags) == 0 {
		tags = []string{"untagged"}
	}
	for _, tag := range tags {
		record(model.PatternScanCompleted, tag, model.PatternData{
			model.PatternFieldTotal: 1,
			"scout_score_sum":       float64(p.ScoutScoreV10),
		})
	}
}

func firstName(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func lower(s string) string { return strings.ToLower(s) }
