package orchestrator

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/scout-cli/internal/crowd"
	"github.com/sells-group/scout-cli/internal/industry"
	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/store"
)

// JobStatus is the caller-facing view of a job's progress.
type JobStatus struct {
	JobID           string          `json:"job_id"`
	Status          model.JobStatus `json:"status"`
	CurrentPass     int             `json:"current_pass"`
	ProgressPercent int             `json:"progress_percent"`
	RetryCount      int             `json:"retry_count"`
	LastError       string          `json:"last_error,omitempty"`
	ProspectID      string          `json:"prospect_id,omitempty"`
}

// GetJobStatus returns a job's status with live pipeline progress when a
// scan has started.
func (o *Orchestrator) GetJobStatus(ctx context.Context, jobID string) (*JobStatus, error) {
	job, err := o.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, eris.Wrapf(err, "job status %s", jobID)
	}
	st := &JobStatus{
		JobID:      job.ID,
		Status:     job.Status,
		RetryCount: job.RetryCount,
		LastError:  job.LastError,
		ProspectID: job.ProspectID,
	}
	state, err := o.store.GetPipelineState(ctx, jobID)
	switch {
	case eris.Is(err, store.ErrNotFound):
		// Not started yet; zero progress.
	case err != nil:
		return nil, eris.Wrapf(err, "job status %s: pipeline state", jobID)
	default:
		st.CurrentPass = state.CurrentPass
		st.ProgressPercent = state.ProgressPercent
	}
	return st, nil
}

// PassLog returns the append-only pass audit rows for a job's latest run.
func (o *Orchestrator) PassLog(ctx context.Context, jobID string) ([]model.PassResult, error) {
	state, err := o.store.GetPipelineState(ctx, jobID)
	if err != nil {
		return nil, eris.Wrapf(err, "pass log %s", jobID)
	}
	return o.store.ListPassResults(ctx, state.ID)
}

// Intelligence is the persisted record enriched with live
// recommendations. NextAction and Prediction are recomputed on every
// read, never cached.
type Intelligence struct {
	Prospect   *model.Prospect      `json:"prospect"`
	NextAction industry.NextAction  `json:"next_action"`
	Prediction *crowd.Prediction    `json:"prediction"`
}

// GetProspectIntelligence returns a prospect with a freshly computed next
// action and behavior prediction.
func (o *Orchestrator) GetProspectIntelligence(ctx context.Context, tenantID, prospectID string) (*Intelligence, error) {
	p, err := o.store.GetProspect(ctx, tenantID, prospectID)
	if err != nil {
		return nil, eris.Wrapf(err, "intelligence %s", prospectID)
	}
	label := p.Industry
	if label == "" {
		label = industry.GeneralIndustry
	}
	prediction, err := o.learner.PredictProspectBehavior(ctx, p, label)
	if err != nil {
		return nil, eris.Wrapf(err, "intelligence %s: prediction", prospectID)
	}
	return &Intelligence{
		Prospect:   p,
		NextAction: o.industry.RecommendNextAction(p, label),
		Prediction: prediction,
	}, nil
}

// GetHotProspects returns prospects at or above the hot threshold,
// highest first.
func (o *Orchestrator) GetHotProspects(ctx context.Context, tenantID string, limit int) ([]model.Prospect, error) {
	return o.store.ListHotProspects(ctx, tenantID, o.hotThreshold, limit)
}

// ListJobs proxies filtered job listing for the CLI and API.
func (o *Orchestrator) ListJobs(ctx context.Context, filter store.JobFilter) ([]model.IngestionJob, error) {
	return o.store.ListJobs(ctx, filter)
}

// TopPatterns proxies crowd pattern reads.
func (o *Orchestrator) TopPatterns(ctx context.Context, patternType model.PatternType, limit int) ([]model.LearningPattern, error) {
	return o.learner.GetTopPatterns(ctx, patternType, limit)
}
