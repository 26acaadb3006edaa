package store

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/scout-cli/internal/model"
)

// ErrNotFound is returned when a row lookup matches nothing.
var ErrNotFound = errors.New("store: not found")

// ErrUniqueViolation is returned when an insert races an existing unique
// identity. Callers treat it as transient and retry through the duplicate
// resolver.
var ErrUniqueViolation = errors.New("store: unique constraint violation")

// JobFilter specifies criteria for listing ingestion jobs.
type JobFilter struct {
	TenantID string          `json:"tenant_id,omitempty"`
	Status   model.JobStatus `json:"status,omitempty"`
	Limit    int             `json:"limit,omitempty"`
	Offset   int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the ingestion pipeline.
type Store interface {
	// Ingestion jobs (audit trail: never deleted)
	CreateJob(ctx context.Context, job *model.IngestionJob) error
	UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, lastError string) error
	IncrementJobRetry(ctx context.Context, jobID string) error
	SetJobProspect(ctx context.Context, jobID, prospectID string) error
	GetJob(ctx context.Context, jobID string) (*model.IngestionJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.IngestionJob, error)

	// Pipeline state + append-only pass log
	CreatePipelineState(ctx context.Context, jobID string) (*model.PipelineState, error)
	UpdatePipelineState(ctx context.Context, state *model.PipelineState) error
	AppendPassResult(ctx context.Context, result *model.PassResult) error
	ListPassResults(ctx context.Context, stateID string) ([]model.PassResult, error)
	GetPipelineState(ctx context.Context, jobID string) (*model.PipelineState, error)

	// Prospects
	InsertProspect(ctx context.Context, p *model.Prospect) error
	UpdateProspect(ctx context.Context, p *model.Prospect) error
	GetProspect(ctx context.Context, tenantID, id string) (*model.Prospect, error)
	DeleteProspect(ctx context.Context, tenantID, id string) error
	FindProspectsByEmail(ctx context.Context, tenantID, email string) ([]model.Prospect, error)
	FindProspectsByPhone(ctx context.Context, tenantID, phone string) ([]model.Prospect, error)
	FindProspectsByExternalID(ctx context.Context, tenantID, externalID string) ([]model.Prospect, error)
	ListHotProspects(ctx context.Context, tenantID string, threshold, limit int) ([]model.Prospect, error)
	CreateMergeLog(ctx context.Context, entry *model.MergeLogEntry) error

	// Crowd learning patterns (global, cross-tenant)
	MergePattern(ctx context.Context, patternType model.PatternType, key string, data model.PatternData, industries []string) error
	GetPattern(ctx context.Context, patternType model.PatternType, key string) (*model.LearningPattern, error)
	TopPatterns(ctx context.Context, patternType model.PatternType, limit int) ([]model.LearningPattern, error)
	SumIndustryOccurrences(ctx context.Context, industry string) (int, error)
	PrunePatterns(ctx context.Context, minOccurrence int, olderThan time.Time) (int, error)

	// Compliance filters (read-only for the pipeline; seeded at migrate)
	ListActiveFilters(ctx context.Context) ([]model.FilterRule, error)
	SeedFilters(ctx context.Context, rules []model.FilterRule) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
