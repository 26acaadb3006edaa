// Package orchestrator is the ingestion entry point: it enqueues jobs,
// drives the normalize → dedup → scan → industry → persist sequence,
// applies the retry policy, and feeds learning events back into the
// crowd store.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/scout-cli/internal/crowd"
	"github.com/sells-group/scout-cli/internal/dedup"
	"github.com/sells-group/scout-cli/internal/industry"
	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/normalize"
	"github.com/sells-group/scout-cli/internal/pipeline"
	"github.com/sells-group/scout-cli/internal/store"
)

// Retry policy: a failing job is retried maxRetries times with
// exponential backoff (1s, 2s, 4s), each retry restarting from pass 1.
// No jitter: the delays are part of the observable contract.
const (
	maxRetries       = 3
	retryBackoffBase = time.Second
)

// DefaultHotThreshold is the hot-prospect score floor for hot-list reads.
const DefaultHotThreshold = 70

// Options tunes the orchestrator.
type Options struct {
	// HotThreshold overrides DefaultHotThreshold when > 0.
	HotThreshold int
	// RatePerSecond caps job starts per second; 0 disables limiting.
	RatePerSecond float64
	// Workers caps concurrent jobs in batch fan-out. Defaults to 4.
	Workers int
}

// Orchestrator wires the pipeline components together and owns every
// IngestionJob mutation.
type Orchestrator struct {
	store    store.Store
	norm     *normalize.Engine
	resolver *dedup.Resolver
	pipe     *pipeline.Pipeline
	industry *industry.Engine
	learner  *crowd.Learner

	hotThreshold int
	workers      int
	limiter      *rate.Limiter
	log          *zap.Logger

	// sleep is swapped out by tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func New(st store.Store, norm *normalize.Engine, resolver *dedup.Resolver, pipe *pipeline.Pipeline, ind *industry.Engine, learner *crowd.Learner, opts Options) *Orchestrator {
	hot := opts.HotThreshold
	if hot <= 0 {
		hot = DefaultHotThreshold
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return &Orchestrator{
		store:        st,
		norm:         norm,
		resolver:     resolver,
		pipe:         pipe,
		industry:     ind,
		learner:      learner,
		hotThreshold: hot,
		workers:      workers,
		limiter:      limiter,
		log:          zap.L().Named("orchestrator"),
		sleep:        sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Ingest validates and enqueues one raw submission, returning the job id.
// Unknown source kinds are rejected here so an invalid job never enters
// processing.
func (o *Orchestrator) Ingest(ctx context.Context, tenantID string, kind model.SourceKind, rawPayload json.RawMessage, priority int) (string, error) {
	if tenantID == "" {
		return "", eris.New("ingest: empty tenant id")
	}
	if !o.norm.Supports(kind) {
		return "", eris.Wrap(&normalize.UnsupportedSourceKindError{Kind: kind}, "ingest")
	}
	if len(rawPayload) == 0 || !json.Valid(rawPayload) {
		return "", eris.New("ingest: payload is not valid JSON")
	}
	if priority <= 0 {
		priority = model.DefaultPriority
	}
	job := &model.IngestionJob{
		TenantID:   tenantID,
		SourceKind: kind,
		RawPayload: rawPayload,
		Priority:   priority,
	}
	if err := o.store.CreateJob(ctx, job); err != nil {
		return "", eris.Wrap(err, "ingest: enqueue")
	}
	o.log.Info("job enqueued",
		zap.String("job_id", job.ID),
		zap.String("tenant_id", tenantID),
		zap.String("source_kind", string(kind)),
		zap.Int("priority", priority),
	)
	return job.ID, nil
}

// ProcessJob drives one job to a terminal status. Transient failures are
// retried up to maxRetries times, each attempt restarting the pipeline
// from pass 1; a compliance block terminates without retry.
func (o *Orchestrator) ProcessJob(ctx context.Context, jobID string) error {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "process: rate limit wait")
		}
	}
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return eris.Wrapf(err, "process: load job %s", jobID)
	}
	if job.Status.Terminal() {
		return eris.Errorf("process: job %s already terminal (%s)", jobID, job.Status)
	}
	log := o.log.With(zap.String("job_id", job.ID), zap.String("tenant_id", job.TenantID))

	for attempt := 0; ; attempt++ {
		if err := o.store.UpdateJobStatus(ctx, job.ID, model.JobStatusProcessing, ""); err != nil {
			return eris.Wrap(err, "process: mark processing")
		}

		attemptErr := o.runAttempt(ctx, job)
		if attemptErr == nil {
			return nil
		}
		if errors.Is(attemptErr, pipeline.ErrBlocked) {
			// Policy rejection: terminal, reported, never retried.
			reason := "blocked by compliance gate"
			if err := o.store.UpdateJobStatus(ctx, job.ID, model.JobStatusBlocked, reason); err != nil {
				return eris.Wrap(err, "process: mark blocked")
			}
			log.Warn("job blocked", zap.String("reason", reason))
			return nil
		}
		var unsupported *normalize.UnsupportedSourceKindError
		if errors.As(attemptErr, &unsupported) || isInputError(attemptErr) {
			// Input errors are not transient; fail without retry.
			if err := o.store.UpdateJobStatus(ctx, job.ID, model.JobStatusFailed, attemptErr.Error()); err != nil {
				return eris.Wrap(err, "process: mark failed")
			}
			log.Error("job failed on bad input", zap.Error(attemptErr))
			return nil
		}

		if attempt >= maxRetries {
			if err := o.store.UpdateJobStatus(ctx, job.ID, model.JobStatusFailed, attemptErr.Error()); err != nil {
				return eris.Wrap(err, "process: mark failed")
			}
			log.Error("job failed after retries", zap.Int("retries", attempt), zap.Error(attemptErr))
			return nil
		}

		if err := o.store.UpdateJobStatus(ctx, job.ID, model.JobStatusRetrying, attemptErr.Error()); err != nil {
			return eris.Wrap(err, "process: mark retrying")
		}
		if err := o.store.IncrementJobRetry(ctx, job.ID); err != nil {
			return eris.Wrap(err, "process: bump retry count")
		}
		backoff := retryBackoffBase << attempt
		log.Warn("job retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(attemptErr),
		)
		if err := o.sleep(ctx, backoff); err != nil {
			return eris.Wrap(err, "process: backoff interrupted")
		}
	}
}

// isInputError classifies malformed-payload failures, which must not be
// retried.
func isInputError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// runAttempt is one full pass over the success path: normalize →
// dedup-resolve → scan → industry → persist → learn.
func (o *Orchestrator) runAttempt(ctx context.Context, job *model.IngestionJob) error {
	record, err := o.norm.Normalize(job.SourceKind, job.RawPayload, job.TenantID)
	if err != nil {
		return eris.Wrap(err, "normalize")
	}

	prospect, merged, err := o.resolver.ResolveOrInsert(ctx, job.TenantID, &record)
	if err != nil {
		return eris.Wrap(err, "dedup")
	}
	if err := o.store.SetJobProspect(ctx, job.ID, prospect.ID); err != nil {
		return eris.Wrap(err, "link prospect")
	}

	pc, err := o.pipe.Run(ctx, job, &prospect.NormalizedProspect)
	if err != nil {
		return err
	}

	detectionText := industryDetectionText(pc, prospect)
	label := o.industry.DetectIndustry(detectionText)
	prospect.Industry = label

	prospect.ScoutScoreV10 = pc.Final.ScoutScoreV10
	prospect.ConfidenceScore = pc.Final.ConfidenceScore
	prospect.LeadStage = pc.Final.LeadQuality
	prospect.Sentiment = pc.Final.Sentiment
	prospect.EmotionScore = pc.Final.EmotionScore
	if prospect.Personality == "" || prospect.Personality == model.PersonalityUnknown {
		prospect.Personality = pc.Final.Personality
	}

	industryScore := o.industry.CalculateIndustryScore(prospect, label)
	prospect.HotProspectScore = hotScore(pc.Final.ScoutScoreV10, industryScore)
	prospect.AppliedTags = model.UnionStrings(
		o.industry.ApplyTaggingRules(label, pc.RawText(), prospect),
		pc.Final.KeywordTags,
	)

	if err := o.store.UpdateProspect(ctx, prospect); err != nil {
		return eris.Wrap(err, "persist final record")
	}
	if err := o.store.UpdateJobStatus(ctx, job.ID, model.JobStatusCompleted, ""); err != nil {
		return eris.Wrap(err, "mark completed")
	}

	o.emitLearningEvents(ctx, prospect, label, pc)

	o.log.Info("job completed",
		zap.String("job_id", job.ID),
		zap.String("prospect_id", prospect.ID),
		zap.Bool("merged", merged),
		zap.Int("scout_score", prospect.ScoutScoreV10),
		zap.Int("hot_score", prospect.HotProspectScore),
		zap.String("industry", label),
	)
	return nil
}

// industryDetectionText pools every text the record offers so detection
// sees occupation and tags, not just the raw message.
func industryDetectionText(pc *pipeline.Context, p *model.Prospect) string {
	parts := []string{pc.RawText(), p.Occupation}
	parts = append(parts, p.InterestTags...)
	parts = append(parts, p.ProductInterest...)
	return strings.Join(parts, " ")
}

// hotScore blends the scout score with the industry-specific score,
// weighting the general score heavier.
func hotScore(scoutScore, industryScore int) int {
	score := (scoutScore*3 + industryScore*2) / 5
	if score > 100 {
		score = 100
	}
	return score
}
