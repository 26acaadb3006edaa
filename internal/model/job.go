package model

import (
	"encoding/json"
	"time"
)

// JobStatus is the orchestrator-owned lifecycle state of an ingestion job.
// Only failed and blocked are terminal-unsuccessful; both carry a
// human-readable reason in LastError.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusRetrying   JobStatus = "retrying"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusBlocked    JobStatus = "blocked"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusBlocked
}

// DefaultPriority is assigned when the caller does not declare one.
// Priority 1 is highest; jobs at or above HighPriorityCutoff are drained
// sequentially before the rest of a batch fans out.
const (
	DefaultPriority    = 5
	HighPriorityCutoff = 3
)

// IngestionJob is one queued raw submission. Rows are created and mutated
// only by the orchestrator and never deleted.
type IngestionJob struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	SourceKind SourceKind      `json:"source_kind"`
	RawPayload json.RawMessage `json:"raw_payload"`
	Status     JobStatus       `json:"status"`
	RetryCount int             `json:"retry_count"`
	Priority   int             `json:"priority"`
	LastError  string          `json:"last_error,omitempty"`
	ProspectID string          `json:"prospect_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// PassStatus is the per-pass execution state recorded on PipelineState.
type PassStatus string

const (
	PassStatusPending  PassStatus = "pending"
	PassStatusRunning  PassStatus = "running"
	PassStatusComplete PassStatus = "complete"
	PassStatusFailed   PassStatus = "failed"
	PassStatusBlocked  PassStatus = "blocked"
	PassStatusSkipped  PassStatus = "skipped"
)

// PassCount is the fixed number of scanning passes.
const PassCount = 7

// PipelineState tracks one execution of the scanning pipeline for a job.
// It is updated once per pass so a crashed worker can be observed
// mid-flight.
type PipelineState struct {
	ID              string                `json:"id"`
	JobID           string                `json:"job_id"`
	CurrentPass     int                   `json:"current_pass"`
	ProgressPercent int                   `json:"progress_percent"`
	OverallStatus   PassStatus            `json:"overall_status"`
	PassStatuses    map[string]PassStatus `json:"pass_statuses"`
	TotalTimeMs     int64                 `json:"total_processing_time_ms"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// PassResult is one append-only row of the pass audit log. Never mutated
// after insert; pass 7 is derived from the accumulated set.
type PassResult struct {
	ID          string    `json:"id"`
	StateID     string    `json:"state_id"`
	PassNumber  int       `json:"pass_number"`
	PassName    string    `json:"pass_name"`
	Results     any       `json:"results"`
	DurationMs  int64     `json:"processing_time_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// FilterSeverity grades a compliance rule violation.
type FilterSeverity string

const (
	SeverityLow      FilterSeverity = "low"
	SeverityMedium   FilterSeverity = "medium"
	SeverityHigh     FilterSeverity = "high"
	SeverityCritical FilterSeverity = "critical"
)

// FilterRule is one active compliance filter consulted by the risk pass.
// The rule table is owned and edited outside this core; the pipeline reads
// it and never writes it.
type FilterRule struct {
	ID         string         `json:"id" yaml:"id"`
	FilterType string         `json:"filter_type" yaml:"filter_type"`
	Name       string         `json:"name" yaml:"name"`
	Severity   FilterSeverity `json:"severity" yaml:"severity"`
	Patterns   []string       `json:"patterns" yaml:"patterns"`
	Active     bool           `json:"active" yaml:"active"`
}
