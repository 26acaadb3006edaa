package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/scout-cli/internal/db"
	"github.com/sells-group/scout-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hottest store operations (per-pass state updates and pass-log
// appends run seven times per job).
var preparedStatements = map[string]string{
	"insert_job":        `INSERT INTO ingestion_jobs (id, tenant_id, source_kind, raw_payload, status, retry_count, priority, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"update_job_status": `UPDATE ingestion_jobs SET status = $1, last_error = $2, updated_at = $3 WHERE id = $4`,
	"get_job":           `SELECT id, tenant_id, source_kind, raw_payload, status, retry_count, priority, last_error, prospect_id, created_at, updated_at FROM ingestion_jobs WHERE id = $1`,
	"update_state":      `UPDATE pipeline_states SET current_pass = $1, progress_percent = $2, overall_status = $3, pass_statuses = $4, total_time_ms = $5, updated_at = $6 WHERE id = $7`,
	"append_pass":       `INSERT INTO pass_results (id, state_id, pass_number, pass_name, results, duration_ms, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS ingestion_jobs (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	source_kind TEXT NOT NULL,
	raw_payload JSONB NOT NULL,
	status      TEXT NOT NULL DEFAULT 'pending',
	retry_count INTEGER NOT NULL DEFAULT 0,
	priority    INTEGER NOT NULL DEFAULT 5,
	last_error  TEXT NOT NULL DEFAULT '',
	prospect_id TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pipeline_states (
	id               TEXT PRIMARY KEY,
	job_id           TEXT NOT NULL REFERENCES ingestion_jobs(id),
	current_pass     INTEGER NOT NULL DEFAULT 0,
	progress_percent INTEGER NOT NULL DEFAULT 0,
	overall_status   TEXT NOT NULL DEFAULT 'running',
	pass_statuses    JSONB NOT NULL DEFAULT '{}',
	total_time_ms    BIGINT NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pass_results (
	id          TEXT PRIMARY KEY,
	state_id    TEXT NOT NULL REFERENCES pipeline_states(id),
	pass_number INTEGER NOT NULL,
	pass_name   TEXT NOT NULL,
	results     JSONB NOT NULL DEFAULT '{}',
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS prospects (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	email       TEXT NOT NULL DEFAULT '',
	phone       TEXT NOT NULL DEFAULT '',
	external_id TEXT NOT NULL DEFAULT '',
	scout_score INTEGER NOT NULL DEFAULT 0,
	hot_score   INTEGER NOT NULL DEFAULT 0,
	data        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS merge_log (
	id          TEXT PRIMARY KEY,
	tenant_id   TEXT NOT NULL,
	master_id   TEXT NOT NULL,
	absorbed_id TEXT NOT NULL,
	confidence  INTEGER NOT NULL,
	snapshot    JSONB NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS learning_patterns (
	id               TEXT PRIMARY KEY,
	pattern_type     TEXT NOT NULL,
	pattern_key      TEXT NOT NULL,
	data             JSONB NOT NULL DEFAULT '{}',
	industries       JSONB NOT NULL DEFAULT '[]',
	occurrence_count INTEGER NOT NULL DEFAULT 1,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (pattern_type, pattern_key)
);

CREATE TABLE IF NOT EXISTS compliance_filters (
	id          TEXT PRIMARY KEY,
	filter_type TEXT NOT NULL,
	name        TEXT NOT NULL UNIQUE,
	severity    TEXT NOT NULL,
	patterns    JSONB NOT NULL DEFAULT '[]',
	active      BOOLEAN NOT NULL DEFAULT true
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON ingestion_jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_tenant ON ingestion_jobs(tenant_id);
CREATE INDEX IF NOT EXISTS idx_states_job ON pipeline_states(job_id);
CREATE INDEX IF NOT EXISTS idx_pass_results_state ON pass_results(state_id);
CREATE INDEX IF NOT EXISTS idx_prospects_tenant ON prospects(tenant_id);
CREATE INDEX IF NOT EXISTS idx_prospects_hot ON prospects(tenant_id, hot_score DESC);
CREATE UNIQUE INDEX IF NOT EXISTS idx_prospects_email ON prospects(tenant_id, email) WHERE email <> '';
CREATE UNIQUE INDEX IF NOT EXISTS idx_prospects_phone ON prospects(tenant_id, phone) WHERE phone <> '';
CREATE INDEX IF NOT EXISTS idx_patterns_top ON learning_patterns(pattern_type, occurrence_count DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// isPgUnique detects a 23505 unique-violation error.
func isPgUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ---- jobs ----

func (s *PostgresStore) CreateJob(ctx context.Context, job *model.IngestionJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ingestion_jobs (id, tenant_id, source_kind, raw_payload, status, retry_count, priority, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, job.TenantID, string(job.SourceKind), []byte(job.RawPayload),
		string(job.Status), job.RetryCount, job.Priority, now, now,
	)
	return eris.Wrap(err, "postgres: insert job")
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, lastError string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ingestion_jobs SET status = $1, last_error = $2, updated_at = $3 WHERE id = $4`,
		string(status), lastError, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job status %s", jobID)
	}
	return checkTag(tag, "job", jobID)
}

func (s *PostgresStore) IncrementJobRetry(ctx context.Context, jobID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ingestion_jobs SET retry_count = retry_count + 1, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: increment retry %s", jobID)
	}
	return checkTag(tag, "job", jobID)
}

func (s *PostgresStore) SetJobProspect(ctx context.Context, jobID, prospectID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ingestion_jobs SET prospect_id = $1, updated_at = $2 WHERE id = $3`,
		prospectID, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set job prospect %s", jobID)
	}
	return checkTag(tag, "job", jobID)
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.IngestionJob, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, source_kind, raw_payload, status, retry_count, priority, last_error, prospect_id, created_at, updated_at FROM ingestion_jobs WHERE id = $1`,
		jobID)
	return scanPgJob(row)
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.IngestionJob, error) {
	query := `SELECT id, tenant_id, source_kind, raw_payload, status, retry_count, priority, last_error, prospect_id, created_at, updated_at FROM ingestion_jobs WHERE 1=1`
	var args []any
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return "$" + strconv.Itoa(n)
	}

	if filter.TenantID != "" {
		query += ` AND tenant_id = ` + arg(filter.TenantID)
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	query += ` ORDER BY priority ASC, created_at ASC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.IngestionJob
	for rows.Next() {
		j, err := scanPgJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

// ---- pipeline state ----

func (s *PostgresStore) CreatePipelineState(ctx context.Context, jobID string) (*model.PipelineState, error) {
	now := time.Now().UTC()
	st := &model.PipelineState{
		ID:            uuid.New().String(),
		JobID:         jobID,
		OverallStatus: model.PassStatusRunning,
		PassStatuses:  make(map[string]model.PassStatus),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO pipeline_states (id, job_id, current_pass, progress_percent, overall_status, pass_statuses, total_time_ms, created_at, updated_at) VALUES ($1, $2, 0, 0, $3, '{}', 0, $4, $5)`,
		st.ID, jobID, string(st.OverallStatus), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert pipeline state for job %s", jobID)
	}
	return st, nil
}

func (s *PostgresStore) UpdatePipelineState(ctx context.Context, st *model.PipelineState) error {
	statuses, err := json.Marshal(st.PassStatuses)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal pass statuses")
	}
	st.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE pipeline_states SET current_pass = $1, progress_percent = $2, overall_status = $3, pass_statuses = $4, total_time_ms = $5, updated_at = $6 WHERE id = $7`,
		st.CurrentPass, st.ProgressPercent, string(st.OverallStatus), statuses, st.TotalTimeMs, st.UpdatedAt, st.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update pipeline state %s", st.ID)
	}
	return checkTag(tag, "pipeline state", st.ID)
}

func (s *PostgresStore) GetPipelineState(ctx context.Context, jobID string) (*model.PipelineState, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, job_id, current_pass, progress_percent, overall_status, pass_statuses, total_time_ms, created_at, updated_at FROM pipeline_states WHERE job_id = $1 ORDER BY created_at DESC LIMIT 1`,
		jobID)

	var st model.PipelineState
	var statuses []byte
	err := row.Scan(&st.ID, &st.JobID, &st.CurrentPass, &st.ProgressPercent, &st.OverallStatus, &statuses, &st.TotalTimeMs, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get pipeline state")
	}
	if err := json.Unmarshal(statuses, &st.PassStatuses); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal pass statuses")
	}
	return &st, nil
}

func (s *PostgresStore) AppendPassResult(ctx context.Context, pr *model.PassResult) error {
	if pr.ID == "" {
		pr.ID = uuid.New().String()
	}
	pr.CreatedAt = time.Now().UTC()
	results, err := json.Marshal(pr.Results)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal pass results")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO pass_results (id, state_id, pass_number, pass_name, results, duration_ms, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pr.ID, pr.StateID, pr.PassNumber, pr.PassName, results, pr.DurationMs, pr.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: append pass result %d", pr.PassNumber)
}

func (s *PostgresStore) ListPassResults(ctx context.Context, stateID string) ([]model.PassResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, state_id, pass_number, pass_name, results, duration_ms, created_at FROM pass_results WHERE state_id = $1 ORDER BY pass_number ASC, created_at ASC`,
		stateID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pass results")
	}
	defer rows.Close()

	var out []model.PassResult
	for rows.Next() {
		var pr model.PassResult
		var results []byte
		if err := rows.Scan(&pr.ID, &pr.StateID, &pr.PassNumber, &pr.PassName, &results, &pr.DurationMs, &pr.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pass result")
		}
		var blob map[string]any
		if err := json.Unmarshal(results, &blob); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal pass results")
		}
		pr.Results = blob
		out = append(out, pr)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list pass results iterate")
}

// ---- prospects ----

func (s *PostgresStore) InsertProspect(ctx context.Context, p *model.Prospect) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal prospect")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO prospects (id, tenant_id, email, phone, external_id, scout_score, hot_score, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.TenantID, p.Email, p.Phone, p.ExternalID, p.ScoutScoreV10, p.HotProspectScore, data, now, now,
	)
	if isPgUnique(err) {
		return ErrUniqueViolation
	}
	return eris.Wrap(err, "postgres: insert prospect")
}

func (s *PostgresStore) UpdateProspect(ctx context.Context, p *model.Prospect) error {
	p.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal prospect")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE prospects SET email = $1, phone = $2, external_id = $3, scout_score = $4, hot_score = $5, data = $6, updated_at = $7 WHERE id = $8 AND tenant_id = $9`,
		p.Email, p.Phone, p.ExternalID, p.ScoutScoreV10, p.HotProspectScore, data, p.UpdatedAt, p.ID, p.TenantID,
	)
	if isPgUnique(err) {
		return ErrUniqueViolation
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: update prospect %s", p.ID)
	}
	return checkTag(tag, "prospect", p.ID)
}

func (s *PostgresStore) GetProspect(ctx context.Context, tenantID, id string) (*model.Prospect, error) {
	row := s.pool.QueryRow(ctx, `SELECT data FROM prospects WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	return scanPgProspect(row)
}

func (s *PostgresStore) DeleteProspect(ctx context.Context, tenantID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM prospects WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete prospect %s", id)
	}
	return checkTag(tag, "prospect", id)
}

func (s *PostgresStore) FindProspectsByEmail(ctx context.Context, tenantID, email string) ([]model.Prospect, error) {
	return s.findProspects(ctx, `SELECT data FROM prospects WHERE tenant_id = $1 AND email = $2 AND email <> ''`, tenantID, email)
}

func (s *PostgresStore) FindProspectsByPhone(ctx context.Context, tenantID, phone string) ([]model.Prospect, error) {
	return s.findProspects(ctx, `SELECT data FROM prospects WHERE tenant_id = $1 AND phone = $2 AND phone <> ''`, tenantID, phone)
}

func (s *PostgresStore) FindProspectsByExternalID(ctx context.Context, tenantID, externalID string) ([]model.Prospect, error) {
	return s.findProspects(ctx, `SELECT data FROM prospects WHERE tenant_id = $1 AND external_id = $2 AND external_id <> ''`, tenantID, externalID)
}

func (s *PostgresStore) ListHotProspects(ctx context.Context, tenantID string, threshold, limit int) ([]model.Prospect, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.findProspects(ctx,
		`SELECT data FROM prospects WHERE tenant_id = $1 AND hot_score >= $2 ORDER BY hot_score DESC LIMIT $3`,
		tenantID, threshold, limit)
}

func (s *PostgresStore) findProspects(ctx context.Context, query string, args ...any) ([]model.Prospect, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query prospects")
	}
	defer rows.Close()

	var out []model.Prospect
	for rows.Next() {
		p, err := scanPgProspect(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: query prospects iterate")
}

func (s *PostgresStore) CreateMergeLog(ctx context.Context, entry *model.MergeLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CreatedAt = time.Now().UTC()
	snapshot, err := json.Marshal(entry.AbsorbedSnapshot)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal merge snapshot")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO merge_log (id, tenant_id, master_id, absorbed_id, confidence, snapshot, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.TenantID, entry.MasterID, entry.AbsorbedID, entry.Confidence, snapshot, entry.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert merge log")
}

// ---- learning patterns ----

// MergePattern locks the keyed row (SELECT ... FOR UPDATE) so concurrent
// writers serialize per key. Two first observers of a key both see no row
// and there is nothing yet to lock, so the insert uses ON CONFLICT DO
// NOTHING and the loser loops back to fold its accumulator into the
// winner's row. Counts and sums stay additive either way.
func (s *PostgresStore) MergePattern(ctx context.Context, patternType model.PatternType, key string, data model.PatternData, industries []string) error {
	for attempt := 0; attempt < mergePatternAttempts; attempt++ {
		done, err := s.mergePatternOnce(ctx, patternType, key, data, industries)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return eris.Errorf("postgres: merge pattern %s/%s: insert race did not settle", string(patternType), key)
}

const mergePatternAttempts = 3

func (s *PostgresStore) mergePatternOnce(ctx context.Context, patternType model.PatternType, key string, data model.PatternData, industries []string) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, eris.Wrap(err, "postgres: merge pattern begin")
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT id, data, industries FROM learning_patterns WHERE pattern_type = $1 AND pattern_key = $2 FOR UPDATE`,
		string(patternType), key)

	var (
		id            string
		dataJSON      []byte
		industriesRaw []byte
	)
	err = row.Scan(&id, &dataJSON, &industriesRaw)
	now := time.Now().UTC()

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		merged := make(model.PatternData, len(data))
		merged.Merge(data)
		dataOut, mErr := json.Marshal(merged)
		if mErr != nil {
			return false, eris.Wrap(mErr, "postgres: marshal pattern data")
		}
		indOut, mErr := json.Marshal(model.UnionStrings(nil, industries))
		if mErr != nil {
			return false, eris.Wrap(mErr, "postgres: marshal industries")
		}
		tag, err := tx.Exec(ctx,
			`INSERT INTO learning_patterns (id, pattern_type, pattern_key, data, industries, occurrence_count, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, 1, $6, $7)
			 ON CONFLICT (pattern_type, pattern_key) DO NOTHING`,
			uuid.New().String(), string(patternType), key, dataOut, indOut, now, now,
		)
		if err != nil {
			return false, eris.Wrap(err, "postgres: insert pattern")
		}
		if tag.RowsAffected() == 0 {
			// A racing writer inserted first; re-read so its data and ours
			// both survive.
			return false, nil
		}
	case err != nil:
		return false, eris.Wrap(err, "postgres: read pattern")
	default:
		existing := make(model.PatternData)
		if uErr := json.Unmarshal(dataJSON, &existing); uErr != nil {
			return false, eris.Wrap(uErr, "postgres: unmarshal pattern data")
		}
		var existingInd []string
		if uErr := json.Unmarshal(industriesRaw, &existingInd); uErr != nil {
			return false, eris.Wrap(uErr, "postgres: unmarshal industries")
		}
		existing.Merge(data)
		dataOut, mErr := json.Marshal(existing)
		if mErr != nil {
			return false, eris.Wrap(mErr, "postgres: marshal pattern data")
		}
		indOut, mErr := json.Marshal(model.UnionStrings(existingInd, industries))
		if mErr != nil {
			return false, eris.Wrap(mErr, "postgres: marshal industries")
		}
		if _, err := tx.Exec(ctx,
			`UPDATE learning_patterns SET data = $1, industries = $2, occurrence_count = occurrence_count + 1, updated_at = $3 WHERE id = $4`,
			dataOut, indOut, now, id,
		); err != nil {
			return false, eris.Wrap(err, "postgres: update pattern")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, eris.Wrap(err, "postgres: merge pattern commit")
	}
	return true, nil
}

func (s *PostgresStore) GetPattern(ctx context.Context, patternType model.PatternType, key string) (*model.LearningPattern, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, pattern_type, pattern_key, data, industries, occurrence_count, created_at, updated_at FROM learning_patterns WHERE pattern_type = $1 AND pattern_key = $2`,
		string(patternType), key)
	return scanPgPattern(row)
}

func (s *PostgresStore) TopPatterns(ctx context.Context, patternType model.PatternType, limit int) ([]model.LearningPattern, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, pattern_type, pattern_key, data, industries, occurrence_count, created_at, updated_at FROM learning_patterns WHERE pattern_type = $1 ORDER BY occurrence_count DESC LIMIT $2`,
		string(patternType), limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: top patterns")
	}
	defer rows.Close()

	var out []model.LearningPattern
	for rows.Next() {
		p, err := scanPgPattern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: top patterns iterate")
}

func (s *PostgresStore) SumIndustryOccurrences(ctx context.Context, industry string) (int, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(occurrence_count), 0) FROM learning_patterns WHERE industries ? $1`,
		industry)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: sum industry occurrences")
	}
	return n, nil
}

func (s *PostgresStore) PrunePatterns(ctx context.Context, minOccurrence int, olderThan time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM learning_patterns WHERE occurrence_count < $1 AND updated_at < $2`,
		minOccurrence, olderThan.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: prune patterns")
	}
	return int(tag.RowsAffected()), nil
}

// ---- compliance filters ----

func (s *PostgresStore) ListActiveFilters(ctx context.Context) ([]model.FilterRule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, filter_type, name, severity, patterns, active FROM compliance_filters WHERE active = true`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list filters")
	}
	defer rows.Close()

	var out []model.FilterRule
	for rows.Next() {
		var r model.FilterRule
		var patterns []byte
		if err := rows.Scan(&r.ID, &r.FilterType, &r.Name, &r.Severity, &patterns, &r.Active); err != nil {
			return nil, eris.Wrap(err, "postgres: scan filter")
		}
		if err := json.Unmarshal(patterns, &r.Patterns); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal filter patterns")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list filters iterate")
}

func (s *PostgresStore) SeedFilters(ctx context.Context, rules []model.FilterRule) error {
	for _, r := range rules {
		patterns, err := json.Marshal(r.Patterns)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal filter patterns")
		}
		id := r.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO compliance_filters (id, filter_type, name, severity, patterns, active) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (name) DO NOTHING`,
			id, r.FilterType, r.Name, string(r.Severity), patterns, r.Active,
		); err != nil {
			return eris.Wrapf(err, "postgres: seed filter %s", r.Name)
		}
	}
	return nil
}

// helpers

func checkTag(tag pgconn.CommandTag, entity, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func scanPgJob(row pgx.Row) (*model.IngestionJob, error) {
	var j model.IngestionJob
	var payload []byte
	err := row.Scan(&j.ID, &j.TenantID, &j.SourceKind, &payload, &j.Status, &j.RetryCount, &j.Priority, &j.LastError, &j.ProspectID, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan job")
	}
	j.RawPayload = json.RawMessage(payload)
	return &j, nil
}

func scanPgProspect(row pgx.Row) (*model.Prospect, error) {
	var data []byte
	err := row.Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan prospect")
	}
	var p model.Prospect
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal prospect")
	}
	return &p, nil
}

func scanPgPattern(row pgx.Row) (*model.LearningPattern, error) {
	var p model.LearningPattern
	var data, industries []byte
	err := row.Scan(&p.ID, &p.Type, &p.Key, &data, &industries, &p.OccurrenceCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan pattern")
	}
	if err := json.Unmarshal(data, &p.Data); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal pattern data")
	}
	if err := json.Unmarshal(industries, &p.Industries); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal pattern industries")
	}
	return &p, nil
}

