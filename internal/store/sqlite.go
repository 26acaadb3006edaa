package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/scout-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per-connection; a single pooled connection keeps them in
	// force and serializes writers inside the process.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS ingestion_jobs (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	source_kind TEXT NOT NULL,
	raw_payload TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'pending',
	retry_count INTEGER NOT NULL DEFAULT 0,
	priority    INTEGER NOT NULL DEFAULT 5,
	last_error  TEXT NOT NULL DEFAULT '',
	prospect_id TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS pipeline_states (
	id               TEXT PRIMARY KEY,
	job_id           TEXT NOT NULL REFERENCES ingestion_jobs(id),
	current_pass     INTEGER NOT NULL DEFAULT 0,
	progress_percent INTEGER NOT NULL DEFAULT 0,
	overall_status   TEXT NOT NULL DEFAULT 'running',
	pass_statuses    TEXT NOT NULL DEFAULT '{}',
	total_time_ms    INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS pass_results (
	id          TEXT PRIMARY KEY,
	state_id    TEXT NOT NULL REFERENCES pipeline_states(id),
	pass_number INTEGER NOT NULL,
	pass_name   TEXT NOT NULL,
	results     TEXT NOT NULL DEFAULT '{}',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS prospects (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	email       TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	external_id TEXT NOT NULL DEFAULT '',
	scout_score INTEGER NOT NULL DEFAULT 0,
	hot_score   INTEGER NOT NULL DEFAULT 0,
	data        TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS merge_log (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	master_id   TEXT NOT NULL,
	absorbed_id TEXT NOT NULL,
	confidence  INTEGER NOT NULL,
	snapshot    TEXT NOT NULL DEFAULT '{}',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS learning_patterns (
	id               TEXT PRIMARY KEY,
	pattern_type     TEXT NOT NULL,
	pattern_key      TEXT NOT NULL,
	data             TEXT NOT NULL DEFAULT '{}',
	industries       TEXT NOT NULL DEFAULT '[]',
	occurrence_count INTEGER NOT NULL DEFAULT 1,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (pattern_type, pattern_key)
);

CREATE TABLE IF NOT EXISTS compliance_filters (
	id          TEXT PRIMARY KEY,
	filter_type TEXT NOT NULL,
	name        TEXT NOT NULL UNIQUE,
	severity    TEXT NOT NULL,
	patterns    TEXT NOT NULL DEFAULT '[]',
	active      INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON ingestion_jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_tenant ON ingestion_jobs(tenant_id);
CREATE INDEX IF NOT EXISTS idx_states_job ON pipeline_states(job_id);
CREATE INDEX IF NOT EXISTS idx_pass_results_state ON pass_results(state_id);
CREATE INDEX IF NOT EXISTS idx_prospects_tenant ON prospects(tenant_id);
CREATE INDEX IF NOT EXISTS idx_prospects_hot ON prospects(tenant_id, hot_score);
CREATE UNIQUE INDEX IF NOT EXISTS idx_prospects_email ON prospects(tenant_id, email) WHERE email != '';
CREATE UNIQUE INDEX IF NOT EXISTS idx_prospects_phone ON prospects(tenant_id, phone) WHERE phone != '';
CREATE INDEX IF NOT EXISTS idx_patterns_top ON learning_patterns(pattern_type, occurrence_count);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isSQLiteUnique detects unique-constraint failures from the driver.
func isSQLiteUnique(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ---- jobs ----

func (s *SQLiteStore) CreateJob(ctx context.Context, job *model.IngestionJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingestion_jobs (id, tenant_id, source_kind, raw_payload, status, retry_count, priority, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.TenantID, string(job.SourceKind), string(job.RawPayload),
		string(job.Status), job.RetryCount, job.Priority, now, now,
	)
	return eris.Wrap(err, "sqlite: insert job")
}

func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, lastError string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingestion_jobs SET status = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		string(status), lastError, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job status %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) IncrementJobRetry(ctx context.Context, jobID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingestion_jobs SET retry_count = retry_count + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: increment retry %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) SetJobProspect(ctx context.Context, jobID, prospectID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingestion_jobs SET prospect_id = ?, updated_at = ? WHERE id = ?`,
		prospectID, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set job prospect %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.IngestionJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, source_kind, raw_payload, status, retry_count, priority, last_error, prospect_id, created_at, updated_at
		 FROM ingestion_jobs WHERE id = ?`, jobID)
	return scanJob(row)
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.IngestionJob, error) {
	query := `SELECT id, tenant_id, source_kind, raw_payload, status, retry_count, priority, last_error, prospect_id, created_at, updated_at
	          FROM ingestion_jobs WHERE 1=1`
	var args []any

	if filter.TenantID != "" {
		query += ` AND tenant_id = ?`
		args = append(args, filter.TenantID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY priority ASC, created_at ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.IngestionJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

// ---- pipeline state ----

func (s *SQLiteStore) CreatePipelineState(ctx context.Context, jobID string) (*model.PipelineState, error) {
	now := time.Now().UTC()
	st := &model.PipelineState{
		ID:            uuid.New().String(),
		JobID:         jobID,
		OverallStatus: model.PassStatusRunning,
		PassStatuses:  make(map[string]model.PassStatus),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pipeline_states (id, job_id, current_pass, progress_percent, overall_status, pass_statuses, total_time_ms, created_at, updated_at)
		 VALUES (?, ?, 0, 0, ?, '{}', 0, ?, ?)`,
		st.ID, jobID, string(st.OverallStatus), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert pipeline state for job %s", jobID)
	}
	return st, nil
}

func (s *SQLiteStore) UpdatePipelineState(ctx context.Context, st *model.PipelineState) error {
	statuses, err := json.Marshal(st.PassStatuses)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal pass statuses")
	}
	st.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE pipeline_states SET current_pass = ?, progress_percent = ?, overall_status = ?, pass_statuses = ?, total_time_ms = ?, updated_at = ?
		 WHERE id = ?`,
		st.CurrentPass, st.ProgressPercent, string(st.OverallStatus), string(statuses), st.TotalTimeMs, st.UpdatedAt, st.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update pipeline state %s", st.ID)
	}
	return checkRowsAffected(res, "pipeline state", st.ID)
}

func (s *SQLiteStore) GetPipelineState(ctx context.Context, jobID string) (*model.PipelineState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, job_id, current_pass, progress_percent, overall_status, pass_statuses, total_time_ms, created_at, updated_at
		 FROM pipeline_states WHERE job_id = ? ORDER BY created_at DESC LIMIT 1`, jobID)

	var st model.PipelineState
	var statuses string
	err := row.Scan(&st.ID, &st.JobID, &st.CurrentPass, &st.ProgressPercent, &st.OverallStatus, &statuses, &st.TotalTimeMs, &st.CreatedAt, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get pipeline state")
	}
	if err := json.Unmarshal([]byte(statuses), &st.PassStatuses); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal pass statuses")
	}
	return &st, nil
}

func (s *SQLiteStore) AppendPassResult(ctx context.Context, pr *model.PassResult) error {
	if pr.ID == "" {
		pr.ID = uuid.New().String()
	}
	pr.CreatedAt = time.Now().UTC()

	results, err := json.Marshal(pr.Results)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal pass results")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pass_results (id, state_id, pass_number, pass_name, results, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pr.ID, pr.StateID, pr.PassNumber, pr.PassName, string(results), pr.DurationMs, pr.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: append pass result %d", pr.PassNumber)
}

func (s *SQLiteStore) ListPassResults(ctx context.Context, stateID string) ([]model.PassResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, state_id, pass_number, pass_name, results, duration_ms, created_at
		 FROM pass_results WHERE state_id = ? ORDER BY pass_number ASC, created_at ASC`, stateID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pass results")
	}
	defer rows.Close()

	var out []model.PassResult
	for rows.Next() {
		var pr model.PassResult
		var results string
		if err := rows.Scan(&pr.ID, &pr.StateID, &pr.PassNumber, &pr.PassName, &results, &pr.DurationMs, &pr.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pass result")
		}
		var blob map[string]any
		if err := json.Unmarshal([]byte(results), &blob); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal pass results")
		}
		pr.Results = blob
		out = append(out, pr)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list pass results iterate")
}

// ---- prospects ----

func (s *SQLiteStore) InsertProspect(ctx context.Context, p *model.Prospect) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal prospect")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO prospects (id, tenant_id, email, phone, external_id, scout_score, hot_score, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TenantID, p.Email, p.Phone, p.ExternalID, p.ScoutScoreV10, p.HotProspectScore, string(data), now, now,
	)
	if isSQLiteUnique(err) {
		return ErrUniqueViolation
	}
	return eris.Wrap(err, "sqlite: insert prospect")
}

func (s *SQLiteStore) UpdateProspect(ctx context.Context, p *model.Prospect) error {
	p.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal prospect")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE prospects SET email = ?, phone = ?, external_id = ?, scout_score = ?, hot_score = ?, data = ?, updated_at = ?
		 WHERE id = ? AND tenant_id = ?`,
		p.Email, p.Phone, p.ExternalID, p.ScoutScoreV10, p.HotProspectScore, string(data), p.UpdatedAt, p.ID, p.TenantID,
	)
	if isSQLiteUnique(err) {
		return ErrUniqueViolation
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: update prospect %s", p.ID)
	}
	return checkRowsAffected(res, "prospect", p.ID)
}

func (s *SQLiteStore) GetProspect(ctx context.Context, tenantID, id string) (*model.Prospect, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM prospects WHERE id = ? AND tenant_id = ?`, id, tenantID)
	return scanProspectData(row)
}

func (s *SQLiteStore) DeleteProspect(ctx context.Context, tenantID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM prospects WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete prospect %s", id)
	}
	return checkRowsAffected(res, "prospect", id)
}

func (s *SQLiteStore) FindProspectsByEmail(ctx context.Context, tenantID, email string) ([]model.Prospect, error) {
	return s.findProspects(ctx, `SELECT data FROM prospects WHERE tenant_id = ? AND email = ? AND email != ''`, tenantID, email)
}

func (s *SQLiteStore) FindProspectsByPhone(ctx context.Context, tenantID, phone string) ([]model.Prospect, error) {
	return s.findProspects(ctx, `SELECT data FROM prospects WHERE tenant_id = ? AND phone = ? AND phone != ''`, tenantID, phone)
}

func (s *SQLiteStore) FindProspectsByExternalID(ctx context.Context, tenantID, externalID string) ([]model.Prospect, error) {
	return s.findProspects(ctx, `SELECT data FROM prospects WHERE tenant_id = ? AND external_id = ? AND external_id != ''`, tenantID, externalID)
}

func (s *SQLiteStore) ListHotProspects(ctx context.Context, tenantID string, threshold, limit int) ([]model.Prospect, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.findProspects(ctx,
		`SELECT data FROM prospects WHERE tenant_id = ? AND hot_score >= ? ORDER BY hot_score DESC LIMIT ?`,
		tenantID, threshold, limit)
}

func (s *SQLiteStore) findProspects(ctx context.Context, query string, args ...any) ([]model.Prospect, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query prospects")
	}
	defer rows.Close()

	var out []model.Prospect
	for rows.Next() {
		p, err := scanProspectData(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: query prospects iterate")
}

func (s *SQLiteStore) CreateMergeLog(ctx context.Context, entry *model.MergeLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now().UTC()

	snapshot, err := json.Marshal(entry.AbsorbedSnapshot)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal merge snapshot")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO merge_log (id, tenant_id, master_id, absorbed_id, confidence, snapshot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.TenantID, entry.MasterID, entry.AbsorbedID, entry.Confidence, string(snapshot), entry.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert merge log")
}

// ---- learning patterns ----

// MergePattern performs the read-merge-write cycle in a transaction. The
// transaction starts deferred, so two first observers of a key can race to
// insert; the loser hits the unique constraint and loops back to fold its
// accumulator into the winner's row instead of losing it.
func (s *SQLiteStore) MergePattern(ctx context.Context, patternType model.PatternType, key string, data model.PatternData, industries []string) error {
	for attempt := 0; attempt < mergePatternAttempts; attempt++ {
		done, err := s.mergePatternOnce(ctx, patternType, key, data, industries)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return eris.Errorf("sqlite: merge pattern %s/%s: insert race did not settle", string(patternType), key)
}

func (s *SQLiteStore) mergePatternOnce(ctx context.Context, patternType model.PatternType, key string, data model.PatternData, industries []string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: merge pattern begin")
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, data, industries, occurrence_count FROM learning_patterns WHERE pattern_type = ? AND pattern_key = ?`,
		string(patternType), key)

	var (
		id            string
		dataJSON      string
		industriesStr string
		count         int
	)
	err = row.Scan(&id, &dataJSON, &industriesStr, &count)
	now := time.Now().UTC()

	switch {
	case err == sql.ErrNoRows:
		merged := make(model.PatternData, len(data))
		merged.Merge(data)
		dataOut, mErr := json.Marshal(merged)
		if mErr != nil {
			return false, eris.Wrap(mErr, "sqlite: marshal pattern data")
		}
		indOut, mErr := json.Marshal(model.UnionStrings(nil, industries))
		if mErr != nil {
			return false, eris.Wrap(mErr, "sqlite: marshal industries")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO learning_patterns (id, pattern_type, pattern_key, data, industries, occurrence_count, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
			uuid.New().String(), string(patternType), key, string(dataOut), string(indOut), now, now,
		); err != nil {
			if isSQLiteUnique(err) {
				// A racing writer inserted first; re-read so its data and
				// ours both survive.
				return false, nil
			}
			return false, eris.Wrap(err, "sqlite: insert pattern")
		}
	case err != nil:
		return false, eris.Wrap(err, "sqlite: read pattern")
	default:
		existing := make(model.PatternData)
		if uErr := json.Unmarshal([]byte(dataJSON), &existing); uErr != nil {
			return false, eris.Wrap(uErr, "sqlite: unmarshal pattern data")
		}
		var existingInd []string
		if uErr := json.Unmarshal([]byte(industriesStr), &existingInd); uErr != nil {
			return false, eris.Wrap(uErr, "sqlite: unmarshal industries")
		}
		existing.Merge(data)
		dataOut, mErr := json.Marshal(existing)
		if mErr != nil {
			return false, eris.Wrap(mErr, "sqlite: marshal pattern data")
		}
		indOut, mErr := json.Marshal(model.UnionStrings(existingInd, industries))
		if mErr != nil {
			return false, eris.Wrap(mErr, "sqlite: marshal industries")
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE learning_patterns SET data = ?, industries = ?, occurrence_count = occurrence_count + 1, updated_at = ? WHERE id = ?`,
			string(dataOut), string(indOut), now, id,
		); err != nil {
			return false, eris.Wrap(err, "sqlite: update pattern")
		}
	}

	if err := tx.Commit(); err != nil {
		return false, eris.Wrap(err, "sqlite: merge pattern commit")
	}
	return true, nil
}

func (s *SQLiteStore) GetPattern(ctx context.Context, patternType model.PatternType, key string) (*model.LearningPattern, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pattern_type, pattern_key, data, industries, occurrence_count, created_at, updated_at
		 FROM learning_patterns WHERE pattern_type = ? AND pattern_key = ?`,
		string(patternType), key)
	return scanPattern(row)
}

func (s *SQLiteStore) TopPatterns(ctx context.Context, patternType model.PatternType, limit int) ([]model.LearningPattern, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pattern_type, pattern_key, data, industries, occurrence_count, created_at, updated_at
		 FROM learning_patterns WHERE pattern_type = ? ORDER BY occurrence_count DESC LIMIT ?`,
		string(patternType), limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: top patterns")
	}
	defer rows.Close()

	var out []model.LearningPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: top patterns iterate")
}

func (s *SQLiteStore) SumIndustryOccurrences(ctx context.Context, industry string) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(occurrence_count), 0) FROM learning_patterns
		 WHERE EXISTS (SELECT 1 FROM json_each(learning_patterns.industries) WHERE json_each.value = ?)`,
		industry)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, eris.Wrap(err, "sqlite: sum industry occurrences")
	}
	return n, nil
}

func (s *SQLiteStore) PrunePatterns(ctx context.Context, minOccurrence int, olderThan time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM learning_patterns WHERE occurrence_count < ? AND updated_at < ?`,
		minOccurrence, olderThan.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prune patterns")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: prune rows affected")
}

// ---- compliance filters ----

func (s *SQLiteStore) ListActiveFilters(ctx context.Context) ([]model.FilterRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filter_type, name, severity, patterns, active FROM compliance_filters WHERE active = 1`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list filters")
	}
	defer rows.Close()

	var out []model.FilterRule
	for rows.Next() {
		var r model.FilterRule
		var patterns string
		if err := rows.Scan(&r.ID, &r.FilterType, &r.Name, &r.Severity, &patterns, &r.Active); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan filter")
		}
		if err := json.Unmarshal([]byte(patterns), &r.Patterns); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal filter patterns")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list filters iterate")
}

func (s *SQLiteStore) SeedFilters(ctx context.Context, rules []model.FilterRule) error {
	for _, r := range rules {
		patterns, err := json.Marshal(r.Patterns)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal filter patterns")
		}
		id := r.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO compliance_filters (id, filter_type, name, severity, patterns, active)
			 VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(name) DO NOTHING`,
			id, r.FilterType, r.Name, string(r.Severity), string(patterns), r.Active,
		); err != nil {
			return eris.Wrapf(err, "sqlite: seed filter %s", r.Name)
		}
	}
	return nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanJob(row scannable) (*model.IngestionJob, error) {
	var j model.IngestionJob
	var payload string
	err := row.Scan(&j.ID, &j.TenantID, &j.SourceKind, &payload, &j.Status, &j.RetryCount, &j.Priority, &j.LastError, &j.ProspectID, &j.CreatedAt, &j.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan job")
	}
	j.RawPayload = json.RawMessage(payload)
	return &j, nil
}

func scanProspectData(row scannable) (*model.Prospect, error) {
	var data string
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan prospect")
	}
	var p model.Prospect
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal prospect")
	}
	return &p, nil
}

func scanPattern(row scannable) (*model.LearningPattern, error) {
	var p model.LearningPattern
	var data, industries string
	err := row.Scan(&p.ID, &p.Type, &p.Key, &data, &industries, &p.OccurrenceCount, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan pattern")
	}
	if err := json.Unmarshal([]byte(data), &p.Data); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal pattern data")
	}
	if err := json.Unmarshal([]byte(industries), &p.Industries); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal pattern industries")
	}
	return &p, nil
}
