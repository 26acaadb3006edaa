// Package pipeline implements the seven-pass scanning state machine that
// turns a raw payload and its normalized record into a scored prospect
// profile. Passes run strictly in order; each pass's completion is
// persisted before the next begins so a crashed worker is observable
// mid-flight.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/store"
)

// ErrBlocked is returned when the risk pass rejects the payload. It is a
// terminal policy outcome, not a transient failure; the orchestrator must
// not retry it.
var ErrBlocked = errors.New("pipeline: blocked by compliance gate")

// Pipeline runs the scanning passes for one job at a time.
type Pipeline struct {
	store      store.Store
	strategies Strategies
}

// New creates a Pipeline. Strategies back the pass-4 sub-analyses; pass
// zero values fall back to the keyword defaults.
func New(st store.Store, strategies Strategies) *Pipeline {
	if strategies.SalesFit == nil {
		strategies.SalesFit = KeywordSalesFit{}
	}
	if strategies.Investigate == nil {
		strategies.Investigate = KeywordInvestigator{}
	}
	if strategies.Personality == nil {
		strategies.Personality = KeywordPersonality{}
	}
	return &Pipeline{store: st, strategies: strategies}
}

// Run executes passes 1-7 for a job. The returned Context carries every
// pass output whether or not the run completed; on ErrBlocked the context
// holds passes 1-6 and no final profile.
func (p *Pipeline) Run(ctx context.Context, job *model.IngestionJob, record *model.NormalizedProspect) (*Context, error) {
	log := zap.L().Named("pipeline").With(
		zap.String("job_id", job.ID),
		zap.String("tenant_id", job.TenantID),
	)
	log.Info("starting scan", zap.String("source_kind", string(job.SourceKind)))

	state, err := p.store.CreatePipelineState(ctx, job.ID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create state")
	}
	for _, name := range PassNames {
		state.PassStatuses[name] = model.PassStatusPending
	}

	pc := &Context{Job: job, Record: record, RawPayload: job.RawPayload}
	runStart := time.Now()

	// trackPass persists the state transition and the audit row around
	// one pass. State writes are best-effort: a failed status write is
	// logged but never fails the pass itself.
	trackPass := func(number int, name string, fn func() (any, error)) error {
		state.CurrentPass = number
		state.PassStatuses[name] = model.PassStatusRunning
		if err := p.store.UpdatePipelineState(ctx, state); err != nil {
			log.Warn("state update failed", zap.String("pass", name), zap.Error(err))
		}

		start := time.Now()
		results, passErr := fn()
		duration := time.Since(start).Milliseconds()
		state.TotalTimeMs = time.Since(runStart).Milliseconds()

		if passErr != nil {
			state.PassStatuses[name] = model.PassStatusFailed
			state.OverallStatus = model.PassStatusFailed
			if updErr := p.store.UpdatePipelineState(ctx, state); updErr != nil {
				log.Warn("state update failed", zap.String("pass", name), zap.Error(updErr))
			}
			log.Error("pass failed",
				zap.String("pass", name),
				zap.Int64("duration_ms", duration),
				zap.Error(passErr),
			)
			return eris.Wrapf(passErr, "pass %d (%s)", number, name)
		}

		state.PassStatuses[name] = model.PassStatusComplete
		state.ProgressPercent = number * 100 / model.PassCount
		if err := p.store.UpdatePipelineState(ctx, state); err != nil {
			log.Warn("state update failed", zap.String("pass", name), zap.Error(err))
		}
		if err := p.store.AppendPassResult(ctx, &model.PassResult{
			StateID:    state.ID,
			PassNumber: number,
			PassName:   name,
			Results:    results,
			DurationMs: duration,
		}); err != nil {
			log.Warn("pass result append failed", zap.String("pass", name), zap.Error(err))
		}
		log.Info("pass complete", zap.String("pass", name), zap.Int64("duration_ms", duration))
		return nil
	}

	rawText := pc.RawText()

	if err := trackPass(1, PassClean, func() (any, error) {
		r, err := CleanPass(rawText)
		pc.Clean = r
		return r, err
	}); err != nil {
		return pc, err
	}

	if err := trackPass(2, PassClassify, func() (any, error) {
		r, err := ClassifyPass(pc.Clean)
		pc.Classify = r
		return r, err
	}); err != nil {
		return pc, err
	}

	if err := trackPass(3, PassBehavior, func() (any, error) {
		r, err := BehaviorPass(rawText)
		pc.Behavior = r
		return r, err
	}); err != nil {
		return pc, err
	}

	if err := trackPass(4, PassDeepScan, func() (any, error) {
		r, err := DeepScanPass(ctx, p.strategies, ScanInput{
			Record:   record,
			Text:     rawText,
			Behavior: pc.Behavior,
		})
		pc.DeepScan = r
		return r, err
	}); err != nil {
		return pc, err
	}

	if err := trackPass(5, PassFusion, func() (any, error) {
		r, err := FusionPass(record, pc.Classify, pc.Behavior, pc.DeepScan)
		pc.Fusion = r
		return r, err
	}); err != nil {
		return pc, err
	}

	if err := trackPass(6, PassRisk, func() (any, error) {
		filters, err := p.store.ListActiveFilters(ctx)
		if err != nil {
			return nil, err
		}
		r, err := RiskPass(rawText, filters)
		pc.Risk = r
		return r, err
	}); err != nil {
		return pc, err
	}

	if !pc.Risk.ShouldProceed {
		state.PassStatuses[PassFinal] = model.PassStatusSkipped
		state.OverallStatus = model.PassStatusBlocked
		state.ProgressPercent = 100
		state.TotalTimeMs = time.Since(runStart).Milliseconds()
		if err := p.store.UpdatePipelineState(ctx, state); err != nil {
			log.Warn("state update failed", zap.Error(err))
		}
		log.Warn("scan blocked by compliance gate",
			zap.Int("violations", len(pc.Risk.Violations)),
			zap.String("risk_level", pc.Risk.RiskLevel),
		)
		return pc, ErrBlocked
	}

	if err := trackPass(7, PassFinal, func() (any, error) {
		r, err := FinalPass(pc)
		pc.Final = r
		return r, err
	}); err != nil {
		return pc, err
	}

	state.OverallStatus = model.PassStatusComplete
	state.ProgressPercent = 100
	state.TotalTimeMs = time.Since(runStart).Milliseconds()
	if err := p.store.UpdatePipelineState(ctx, state); err != nil {
		log.Warn("state update failed", zap.Error(err))
	}
	log.Info("scan complete",
		zap.Int("scout_score", pc.Final.ScoutScoreV10),
		zap.String("lead_quality", string(pc.Final.LeadQuality)),
		zap.Int64("total_ms", state.TotalTimeMs),
	)
	return pc, nil
}
