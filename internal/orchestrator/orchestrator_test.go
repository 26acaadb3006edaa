package orchestrator

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scout-cli/internal/crowd"
	"github.com/sells-group/scout-cli/internal/dedup"
	"github.com/sells-group/scout-cli/internal/industry"
	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/normalize"
	"github.com/sells-group/scout-cli/internal/pipeline"
	"github.com/sells-group/scout-cli/internal/store"
)

func newTestOrchestrator(t *testing.T, opts Options) (*Orchestrator, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "orch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return orchestratorOver(st, opts), st
}

func orchestratorOver(st store.Store, opts Options) *Orchestrator {
	return New(st,
		normalize.NewEngine(),
		dedup.NewResolver(st),
		pipeline.New(st, pipeline.Strategies{}),
		industry.NewEngine(),
		crowd.NewLearner(st),
		opts,
	)
}

// noSleep replaces the backoff sleeper and records requested delays.
type noSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (n *noSleep) sleep(_ context.Context, d time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delays = append(n.delays, d)
	return nil
}

func TestIngest_Validation(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{})
	ctx := context.Background()
	payload := json.RawMessage(`{"name":"Juan"}`)

	_, err := o.Ingest(ctx, "", model.SourceManualInput, payload, 0)
	assert.Error(t, err, "empty tenant")

	_, err = o.Ingest(ctx, "t1", model.SourceKind("carrier_pigeon"), payload, 0)
	assert.Error(t, err, "unsupported source kind")

	_, err = o.Ingest(ctx, "t1", model.SourceManualInput, json.RawMessage(`{broken`), 0)
	assert.Error(t, err, "invalid JSON")
}

func TestIngest_DefaultsPriority(t *testing.T) {
	o, st := newTestOrchestrator(t, Options{})
	ctx := context.Background()

	jobID, err := o.Ingest(ctx, "t1", model.SourceManualInput, json.RawMessage(`{"name":"Juan"}`), 0)
	require.NoError(t, err)

	job, err := st.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPriority, job.Priority)
	assert.Equal(t, model.JobStatusPending, job.Status)
}

func TestProcessJob_CompletesAndScores(t *testing.T) {
	o, st := newTestOrchestrator(t, Options{})
	ctx := context.Background()

	payload := `{"name":"Juan Dela Cruz","email":"juan@example.com","occupation":"fitness trainer","location":"Quezon City","budget":15000,"notes":"sign me up for the gym workout program"}`
	jobID, err := o.Ingest(ctx, "t1", model.SourceManualInput, json.RawMessage(payload), 0)
	require.NoError(t, err)

	require.NoError(t, o.ProcessJob(ctx, jobID))

	job, err := st.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, job.Status)
	require.NotEmpty(t, job.ProspectID)

	got, err := st.GetProspect(ctx, "t1", job.ProspectID)
	require.NoError(t, err)
	assert.Equal(t, "juan@example.com", got.Email)
	assert.Equal(t, "Fitness", got.Industry)
	// high intent 30 + high buying ability 25 + contact info 10
	assert.Equal(t, 65, got.ScoutScoreV10)
	assert.Equal(t, model.StageWarm, got.LeadStage)

	wantHot := hotScore(got.ScoutScoreV10, industry.NewEngine().CalculateIndustryScore(got, got.Industry))
	assert.Equal(t, wantHot, got.HotProspectScore)
}

func TestProcessJob_EmitsLearningEvents(t *testing.T) {
	o, st := newTestOrchestrator(t, Options{})
	ctx := context.Background()

	payload := `{"name":"Juan Dela Cruz","email":"juan@example.com","occupation":"fitness trainer","location":"Quezon City","budget":15000,"notes":"sign me up for the gym workout program"}`
	jobID, err := o.Ingest(ctx, "t1", model.SourceManualInput, json.RawMessage(payload), 0)
	require.NoError(t, err)
	require.NoError(t, o.ProcessJob(ctx, jobID))

	pat, err := st.GetPattern(ctx, model.PatternNameOccupation, "juan|fitness trainer")
	require.NoError(t, err)
	assert.Equal(t, 1, pat.OccurrenceCount)
	assert.Equal(t, []string{"Fitness"}, pat.Industries)

	_, err = st.GetPattern(ctx, model.PatternLocationIndustry, "quezon city|Fitness")
	require.NoError(t, err)

	scan, err := st.GetPattern(ctx, model.PatternScanCompleted, "strong_interest")
	require.NoError(t, err)
	assert.Equal(t, float64(1), scan.Data[model.PatternFieldTotal])
	assert.Equal(t, float64(65), scan.Data["scout_score_sum"])
}

func TestProcessJob_BlockedIsTerminalWithoutRetry(t *testing.T) {
	o, st := newTestOrchestrator(t, Options{})
	ctx := context.Background()
	require.NoError(t, st.SeedFilters(ctx, pipeline.DefaultFilterRules()))

	recorder := &noSleep{}
	o.sleep = recorder.sleep

	payload := `{"name":"Spam Mer","notes":"guaranteed income kahit tulog ka"}`
	jobID, err := o.Ingest(ctx, "t1", model.SourceManualInput, json.RawMessage(payload), 0)
	require.NoError(t, err)

	require.NoError(t, o.ProcessJob(ctx, jobID), "a compliance block is an outcome, not an error")
	assert.Empty(t, recorder.delays)

	job, err := st.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusBlocked, job.Status)
	assert.Equal(t, 0, job.RetryCount)

	// Terminal jobs cannot be reprocessed.
	assert.Error(t, o.ProcessJob(ctx, jobID))
}

func TestProcessJob_MalformedPayloadFailsWithoutRetry(t *testing.T) {
	o, st := newTestOrchestrator(t, Options{})
	ctx := context.Background()

	recorder := &noSleep{}
	o.sleep = recorder.sleep

	// Valid JSON, wrong shape: the transcript mapper expects an array.
	jobID, err := o.Ingest(ctx, "t1", model.SourceChatTranscript, json.RawMessage(`{"messages":"nope"}`), 0)
	require.NoError(t, err)

	require.NoError(t, o.ProcessJob(ctx, jobID))
	assert.Empty(t, recorder.delays, "input errors are never retried")

	job, err := st.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Equal(t, 0, job.RetryCount)
	assert.NotEmpty(t, job.LastError)
}

// brokenPersistStore fails every prospect update, which makes the final
// persist step of each attempt fail with a transient-looking error.
type brokenPersistStore struct {
	store.Store
}

func (b *brokenPersistStore) UpdateProspect(context.Context, *model.Prospect) error {
	return eris.New("disk on fire")
}

func TestProcessJob_RetriesWithExponentialBackoff(t *testing.T) {
	base, err := store.NewSQLite(filepath.Join(t.TempDir(), "orch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = base.Close() })
	ctx := context.Background()
	require.NoError(t, base.Migrate(ctx))

	o := orchestratorOver(&brokenPersistStore{Store: base}, Options{})
	recorder := &noSleep{}
	o.sleep = recorder.sleep

	payload := `{"name":"Juan","email":"juan@example.com"}`
	jobID, err := o.Ingest(ctx, "t1", model.SourceManualInput, json.RawMessage(payload), 0)
	require.NoError(t, err)

	require.NoError(t, o.ProcessJob(ctx, jobID))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, recorder.delays)

	job, err := base.GetJob(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusFailed, job.Status)
	assert.Equal(t, maxRetries, job.RetryCount)
	assert.Contains(t, job.LastError, "disk on fire")
}

func TestGetJobStatus(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{})
	ctx := context.Background()

	jobID, err := o.Ingest(ctx, "t1", model.SourceManualInput, json.RawMessage(`{"name":"Juan","email":"juan@example.com"}`), 0)
	require.NoError(t, err)

	st, err := o.GetJobStatus(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusPending, st.Status)
	assert.Zero(t, st.ProgressPercent)

	require.NoError(t, o.ProcessJob(ctx, jobID))

	st, err = o.GetJobStatus(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, st.Status)
	assert.Equal(t, 100, st.ProgressPercent)
	assert.Equal(t, 7, st.CurrentPass)
	assert.NotEmpty(t, st.ProspectID)
}

func TestGetJobStatus_UnknownJob(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{})
	_, err := o.GetJobStatus(context.Background(), "no-such-job")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetProspectIntelligence(t *testing.T) {
	o, st := newTestOrchestrator(t, Options{})
	ctx := context.Background()

	jobID, err := o.Ingest(ctx, "t1", model.SourceManualInput, json.RawMessage(`{"name":"Juan","email":"juan@example.com"}`), 0)
	require.NoError(t, err)
	require.NoError(t, o.ProcessJob(ctx, jobID))

	job, err := st.GetJob(ctx, jobID)
	require.NoError(t, err)

	intel, err := o.GetProspectIntelligence(ctx, "t1", job.ProspectID)
	require.NoError(t, err)
	require.NotNil(t, intel.Prospect)
	assert.Equal(t, "juan@example.com", intel.Prospect.Email)
	// No interactions on record yet.
	assert.Equal(t, industry.ActionIntroduction, intel.NextAction.Action)
	require.NotNil(t, intel.Prediction)
	assert.Equal(t, "balanced", intel.Prediction.RecommendedApproach)
}

func TestIngestBatch(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{Workers: 2})
	ctx := context.Background()

	items := []BatchItem{
		{SourceKind: model.SourceManualInput, RawPayload: json.RawMessage(`{"name":"Urgent Uma","email":"uma@example.com"}`), Priority: 1},
		{SourceKind: model.SourceManualInput, RawPayload: json.RawMessage(`{"name":"Bulk Ben","email":"ben@example.com"}`)},
		{SourceKind: model.SourceKind("carrier_pigeon"), RawPayload: json.RawMessage(`{}`)},
	}
	res, err := o.IngestBatch(ctx, "t1", items)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Enqueued)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 0, res.Failed)
	assert.Len(t, res.JobIDs, 2)
}

func TestIngestBatch_Empty(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{})
	_, err := o.IngestBatch(context.Background(), "t1", nil)
	assert.Error(t, err)
}

func TestHotScore(t *testing.T) {
	assert.Equal(t, 100, hotScore(100, 100))
	assert.Equal(t, 73, hotScore(65, 85))
	assert.Equal(t, 0, hotScore(0, 0))
	assert.Equal(t, 60, hotScore(100, 0))
}
