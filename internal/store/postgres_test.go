package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/veracity/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func pgResultColumns() []string {
	return []string{"id", "provider", "level", "confidence", "is_valid", "issues", "evaluated_at"}
}

func TestPostgresStore_SaveResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	res := testResult("res-1", false)

	mock.ExpectExec(`INSERT INTO results`).
		WithArgs(res.ID, res.Provider, string(res.Level), res.Confidence, res.IsValid,
			pgxmock.AnyArg(), res.EvaluatedAt.UTC()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveResult(context.Background(), res))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	evaluatedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	issues := `[{"code":"enum_violation","message":"bad status","severity":"hard","penalty":0.6}]`

	mock.ExpectQuery(`SELECT id, provider, level, confidence, is_valid, issues, evaluated_at FROM results WHERE id = \$1`).
		WithArgs("res-1").
		WillReturnRows(pgxmock.NewRows(pgResultColumns()).
			AddRow("res-1", "github_actions", "strict", 0.3, false, &issues, evaluatedAt))

	got, err := s.GetResult(context.Background(), "res-1")
	require.NoError(t, err)
	assert.Equal(t, "res-1", got.ID)
	assert.Equal(t, model.LevelStrict, got.Level)
	assert.False(t, got.IsValid)
	require.Len(t, got.Issues, 1)
	assert.Equal(t, "enum_violation", got.Issues[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetResult_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, provider, level, confidence, is_valid, issues, evaluated_at FROM results WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetResult(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListResults(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	evaluatedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM results WHERE 1=1 AND provider = \$1 AND is_valid = FALSE ORDER BY evaluated_at DESC LIMIT \$2`).
		WithArgs("github_actions", 50).
		WillReturnRows(pgxmock.NewRows(pgResultColumns()).
			AddRow("res-1", "github_actions", "strict", 0.3, false, (*string)(nil), evaluatedAt).
			AddRow("res-2", "github_actions", "paranoid", 0.1, false, (*string)(nil), evaluatedAt))

	results, err := s.ListResults(context.Background(), Filter{
		Provider:    "github_actions",
		OnlyInvalid: true,
		Limit:       50,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "res-1", results[0].ID)
	assert.Empty(t, results[0].Issues)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS results`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
