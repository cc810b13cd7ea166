package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/veracity/internal/model"
)

// Pool abstracts the pgxpool methods the store needs, so tests can swap in
// pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// preparedStatements lists queries to prepare on each new connection for
// the hot-path store operations.
var preparedStatements = map[string]string{
	"insert_result": `INSERT INTO results (id, provider, level, confidence, is_valid, issues, evaluated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"get_result":    `SELECT id, provider, level, confidence, is_valid, issues, evaluated_at FROM results WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
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

	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS results (
	id           TEXT PRIMARY KEY,
	provider     TEXT NOT NULL DEFAULT '',
	level        TEXT NOT NULL,
	confidence   DOUBLE PRECISION NOT NULL,
	is_valid     BOOLEAN NOT NULL,
	issues       JSONB,
	evaluated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_provider ON results(provider);
CREATE INDEX IF NOT EXISTS idx_results_evaluated_at ON results(evaluated_at);
CREATE INDEX IF NOT EXISTS idx_results_is_valid ON results(is_valid);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, res *model.ValidationResult) error {
	issuesJSON, err := json.Marshal(res.Issues)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal issues")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO results (id, provider, level, confidence, is_valid, issues, evaluated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		res.ID, res.Provider, string(res.Level), res.Confidence, res.IsValid,
		string(issuesJSON), res.EvaluatedAt.UTC(),
	)
	return eris.Wrap(err, "postgres: insert result")
}

func (s *PostgresStore) GetResult(ctx context.Context, id string) (*model.ValidationResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, provider, level, confidence, is_valid, issues, evaluated_at FROM results WHERE id = $1`,
		id,
	)
	res, err := scanPgResult(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get result %s", id)
	}
	return res, nil
}

func (s *PostgresStore) ListResults(ctx context.Context, filter Filter) ([]model.ValidationResult, error) {
	query := `SELECT id, provider, level, confidence, is_valid, issues, evaluated_at FROM results WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.Provider != "" {
		query += ` AND provider = ` + arg(filter.Provider)
	}
	if !filter.From.IsZero() {
		query += ` AND evaluated_at >= ` + arg(filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query += ` AND evaluated_at <= ` + arg(filter.To.UTC())
	}
	if filter.OnlyInvalid {
		query += ` AND is_valid = FALSE`
	}
	query += ` ORDER BY evaluated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var results []model.ValidationResult
	for rows.Next() {
		r, err := scanPgResult(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		results = append(results, *r)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list results iterate")
}

func scanPgResult(row pgx.Row) (*model.ValidationResult, error) {
	var r model.ValidationResult
	var issuesJSON *string

	err := row.Scan(&r.ID, &r.Provider, &r.Level, &r.Confidence, &r.IsValid, &issuesJSON, &r.EvaluatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("result not found")
	}
	if err != nil {
		return nil, err
	}

	if issuesJSON != nil && *issuesJSON != "" {
		if err := json.Unmarshal([]byte(*issuesJSON), &r.Issues); err != nil {
			return nil, eris.Wrap(err, "unmarshal issues")
		}
	}
	return &r, nil
}

func placeholder(n int) string {
	// Small fixed set; queries never exceed a handful of args.
	return [...]string{"$1", "$2", "$3", "$4", "$5", "$6", "$7", "$8"}[n-1]
}
