package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/veracity/internal/model"
	"github.com/sells-group/veracity/internal/store"
)

// fakeStore serves canned results and records the filter it was asked for.
type fakeStore struct {
	results []model.ValidationResult
	filter  store.Filter
	err     error
}

func (f *fakeStore) SaveResult(ctx context.Context, res *model.ValidationResult) error { return nil }
func (f *fakeStore) GetResult(ctx context.Context, id string) (*model.ValidationResult, error) {
	return nil, nil
}
func (f *fakeStore) ListResults(ctx context.Context, filter store.Filter) ([]model.ValidationResult, error) {
	f.filter = filter
	return f.results, f.err
}
func (f *fakeStore) Migrate(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                      { return nil }

func TestSummarize(t *testing.T) {
	st := &fakeStore{results: []model.ValidationResult{
		{ID: "a", Level: model.LevelStrict, Confidence: 1.0, IsValid: true},
		{ID: "b", Level: model.LevelStrict, Confidence: 0.6, IsValid: false, Issues: []model.ValidationIssue{
			{Code: "enum_violation", Penalty: 0.6},
		}},
		{ID: "c", Level: model.LevelParanoid, Confidence: 0.2, IsValid: false, Issues: []model.ValidationIssue{
			{Code: "enum_violation", Penalty: 0.6},
			{Code: "bad_format", Penalty: 0.3},
		}},
	}}

	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	summary, err := NewReporter(st).Summarize(context.Background(), "github_actions", from, to)
	require.NoError(t, err)

	assert.Equal(t, "github_actions", st.filter.Provider)
	assert.Equal(t, from, st.filter.From)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Valid)
	assert.Equal(t, 2, summary.Invalid)
	assert.InDelta(t, 0.6, summary.AvgConfidence, 0.0001)
	assert.Equal(t, 2, summary.ByLevel["strict"])
	assert.Equal(t, 1, summary.ByLevel["paranoid"])

	require.Len(t, summary.TopIssues, 2)
	assert.Equal(t, IssueCount{Code: "enum_violation", Count: 2}, summary.TopIssues[0])
	assert.Equal(t, IssueCount{Code: "bad_format", Count: 1}, summary.TopIssues[1])
}

func TestSummarizeEmpty(t *testing.T) {
	summary, err := NewReporter(&fakeStore{}).Summarize(context.Background(), "", time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.AvgConfidence)
	assert.Nil(t, summary.TopIssues)
}

func TestSummarizeStoreError(t *testing.T) {
	st := &fakeStore{err: assert.AnError}

	_, err := NewReporter(st).Summarize(context.Background(), "", time.Time{}, time.Time{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list results")
}
