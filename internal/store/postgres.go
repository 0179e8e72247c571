package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/bicep/income-sg/internal/db"
	"github.com/bicep/income-sg/internal/export"
	"github.com/bicep/income-sg/internal/model"
)

// PostgresStore implements Store using pgxpool. Estimates carry a PostGIS
// point so runs can be mapped directly from the database.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	stage      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	seed       TEXT NOT NULL DEFAULT '0',
	result     JSONB,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS estimates (
	run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq            INTEGER NOT NULL,
	region         TEXT NOT NULL,
	subzone        TEXT NOT NULL,
	latitude       DOUBLE PRECISION NOT NULL,
	longitude      DOUBLE PRECISION NOT NULL,
	property_price DOUBLE PRECISION NOT NULL,
	price_decile   INTEGER NOT NULL,
	income_bracket TEXT NOT NULL,
	pop_density    DOUBLE PRECISION NOT NULL,
	average_income DOUBLE PRECISION NOT NULL,
	geom           geometry(Point, 4326),
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_estimates_run_region ON estimates(run_id, region);
CREATE INDEX IF NOT EXISTS idx_estimates_geom ON estimates USING GIST (geom);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

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

func (s *PostgresStore) CreateRun(ctx context.Context, stage model.Stage, seed uint64) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, stage, status, seed, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, string(stage), string(model.RunStatusRunning), formatSeed(seed), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Stage:     stage,
		Status:    model.RunStatusRunning,
		Seed:      seed,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusComplete), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET error = $1, status = $2, updated_at = $3 WHERE id = $4`,
		errMsg, string(model.RunStatusFailed), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM runs WHERE id = $1`, runID)
	r, err := scanPostgresRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "run %s", runID)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Stage != "" {
		query += fmt.Sprintf(` AND stage = $%d`, argIdx)
		args = append(args, string(filter.Stage))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultRunLimit
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// SaveEstimates bulk loads a run's records with COPY.
func (s *PostgresStore) SaveEstimates(ctx context.Context, runID string, records []model.IncomeRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(records))
	for i, r := range records {
		geom, err := export.EncodePoint(r.Lon, r.Lat)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: encode record %d", i)
		}
		rows[i] = append(estimateRow(runID, i, r), geom)
	}

	cols := append(append([]string(nil), estimateCopyColumns...), "geom")
	n, err := db.CopyFrom(ctx, s.pool, "estimates", cols, rows)
	if err != nil {
		return n, eris.Wrapf(err, "postgres: save estimates for run %s", runID)
	}
	return n, nil
}

func (s *PostgresStore) ListEstimates(ctx context.Context, runID string, filter EstimateFilter) ([]model.IncomeRecord, error) {
	query := `SELECT ` + estimateColumns + ` FROM estimates WHERE run_id = $1`
	args := []any{runID}
	argIdx := 2

	if filter.Region != "" {
		query += fmt.Sprintf(` AND region = $%d`, argIdx)
		args = append(args, model.NormalizeRegion(filter.Region))
		argIdx++
	}
	query += ` ORDER BY seq`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, argIdx)
		args = append(args, filter.Limit)
		argIdx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list estimates for run %s", runID)
	}
	defer rows.Close()

	var out []model.IncomeRecord
	for rows.Next() {
		r, err := scanEstimate(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan estimate")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list estimates iterate")
}

func (s *PostgresStore) RegionSummaries(ctx context.Context, runID string) ([]model.RegionSummary, error) {
	rows, err := s.pool.Query(ctx, regionSummaryQuery(`$1`), runID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: region summaries for run %s", runID)
	}
	defer rows.Close()

	var out []model.RegionSummary
	for rows.Next() {
		var rs model.RegionSummary
		if err := rows.Scan(&rs.Region, &rs.Records, &rs.MeanPrice, &rs.MeanIncome, &rs.MinIncome, &rs.MaxIncome); err != nil {
			return nil, eris.Wrap(err, "postgres: scan region summary")
		}
		out = append(out, rs)
	}
	return out, eris.Wrap(rows.Err(), "postgres: region summaries iterate")
}

// scanPostgresRun reads a run row. result is JSONB and may be NULL.
func scanPostgresRun(row scannable) (*model.Run, error) {
	var r model.Run
	var seed string
	var resultJSON []byte

	if err := row.Scan(&r.ID, &r.Stage, &r.Status, &seed, &resultJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if r.Seed, err = parseSeed(seed); err != nil {
		return nil, err
	}
	if len(resultJSON) > 0 {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal(resultJSON, r.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
	}
	return &r, nil
}
