package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/veracity/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS results (
	id           TEXT PRIMARY KEY,
	provider     TEXT NOT NULL DEFAULT '',
	level        TEXT NOT NULL,
	confidence   REAL NOT NULL,
	is_valid     INTEGER NOT NULL,
	issues       TEXT,
	evaluated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_provider ON results(provider);
CREATE INDEX IF NOT EXISTS idx_results_evaluated_at ON results(evaluated_at);
CREATE INDEX IF NOT EXISTS idx_results_is_valid ON results(is_valid);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveResult(ctx context.Context, res *model.ValidationResult) error {
	issuesJSON, err := json.Marshal(res.Issues)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal issues")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO results (id, provider, level, confidence, is_valid, issues, evaluated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.Provider, string(res.Level), res.Confidence, boolToInt(res.IsValid),
		string(issuesJSON), res.EvaluatedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: insert result")
}

func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*model.ValidationResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, provider, level, confidence, is_valid, issues, evaluated_at FROM results WHERE id = ?`,
		id,
	)
	return scanResult(row)
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter Filter) ([]model.ValidationResult, error) {
	query := `SELECT id, provider, level, confidence, is_valid, issues, evaluated_at FROM results WHERE 1=1`
	var args []any

	if filter.Provider != "" {
		query += ` AND provider = ?`
		args = append(args, filter.Provider)
	}
	if !filter.From.IsZero() {
		query += ` AND evaluated_at >= ?`
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query += ` AND evaluated_at <= ?`
		args = append(args, filter.To.UTC())
	}
	if filter.OnlyInvalid {
		query += ` AND is_valid = 0`
	}
	query += ` ORDER BY evaluated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close()

	var results []model.ValidationResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list results iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanResult(row scannable) (*model.ValidationResult, error) {
	var r model.ValidationResult
	var isValid int
	var issuesJSON sql.NullString
	var evaluatedAt time.Time

	err := row.Scan(&r.ID, &r.Provider, &r.Level, &r.Confidence, &isValid, &issuesJSON, &evaluatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("result not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan result")
	}

	r.IsValid = isValid != 0
	r.EvaluatedAt = evaluatedAt
	if issuesJSON.Valid && issuesJSON.String != "" {
		if err := json.Unmarshal([]byte(issuesJSON.String), &r.Issues); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal issues")
		}
	}
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
