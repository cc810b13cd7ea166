package behavior

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/veracity/internal/config"
	"github.com/sells-group/veracity/internal/model"
)

func testBehaviorConfig() config.BehaviorConfig {
	return config.DefaultValidation().Behavior
}

func TestAnalyzeSmallBatchNoOp(t *testing.T) {
	a := New(testBehaviorConfig())

	assert.Nil(t, a.Analyze(nil, model.RecordContext{}))
	assert.Nil(t, a.Analyze([]model.Record{{"id": "1"}}, model.RecordContext{}))
}

func TestDuplicateExactClones(t *testing.T) {
	a := New(testBehaviorConfig())
	clone := func() model.Record {
		return model.Record{
			"name":   "Deploy production release",
			"status": "completed",
		}
	}
	batch := []model.Record{clone(), clone(), clone()}

	issues := a.Analyze(batch, model.RecordContext{})

	// Three identical records yield two duplicate issues.
	dups := issuesByCode(issues, CodeNearDuplicate)
	require.Len(t, dups, 2)
	for _, iss := range dups {
		assert.Equal(t, model.SeveritySoft, iss.Severity)
		// Cluster of 3: base 0.1 scaled by 1.5.
		assert.InDelta(t, 0.15, iss.Penalty, 0.0001)
	}
}

func TestDuplicateNearMatch(t *testing.T) {
	a := New(testBehaviorConfig())
	batch := []model.Record{
		{"name": "Deploy service alpha to cluster east"},
		{"name": "Deploy service alphb to cluster east"},
	}

	issues := a.Analyze(batch, model.RecordContext{})
	dups := issuesByCode(issues, CodeNearDuplicate)
	require.Len(t, dups, 1)
	assert.Contains(t, dups[0].Message, "duplicates record 0")
}

func TestDuplicateDistinctRecords(t *testing.T) {
	a := New(testBehaviorConfig())
	batch := []model.Record{
		{"name": "Nightly integration suite for billing"},
		{"name": "Canary rollout of search indexer"},
		{"name": "Hotfix pipeline for payment gateway"},
	}

	issues := a.Analyze(batch, model.RecordContext{})
	assert.Empty(t, issuesByCode(issues, CodeNearDuplicate))
}

func TestDuplicatePenaltyCapped(t *testing.T) {
	cfg := testBehaviorConfig()
	cfg.DuplicatePenalty = 0.3
	a := New(cfg)

	clone := func() model.Record {
		return model.Record{"name": "Deploy production release"}
	}
	batch := []model.Record{clone(), clone(), clone(), clone(), clone()}

	issues := a.Analyze(batch, model.RecordContext{})
	dups := issuesByCode(issues, CodeNearDuplicate)
	require.Len(t, dups, 4)

	total := 0.0
	for _, iss := range dups {
		total += iss.Penalty
	}
	assert.InDelta(t, cfg.DuplicatePenaltyCap, total, 0.0001)
}

func TestDistributionSkewed(t *testing.T) {
	a := New(testBehaviorConfig())

	var batch []model.Record
	for i := 0; i < 20; i++ {
		batch = append(batch, model.Record{
			"name":       fmt.Sprintf("Run pipeline stage %d of release train", i),
			"conclusion": "success",
		})
	}

	issues := a.Analyze(batch, model.RecordContext{})
	skews := issuesByCode(issues, CodeTooSkewed)
	require.Len(t, skews, 1)
	assert.Contains(t, skews[0].Message, `"conclusion"`)
}

func TestDistributionTooUniform(t *testing.T) {
	a := New(testBehaviorConfig())

	conclusions := []string{"success", "failure", "cancelled", "skipped"}
	var batch []model.Record
	for i := 0; i < 8; i++ {
		batch = append(batch, model.Record{
			"name":       fmt.Sprintf("Stage %d of the checkout deployment train", i*7),
			"conclusion": conclusions[i%4],
		})
	}

	issues := a.Analyze(batch, model.RecordContext{})
	uniform := issuesByCode(issues, CodeTooUniform)
	require.Len(t, uniform, 1)
	assert.Contains(t, uniform[0].Message, `"conclusion"`)
}

func TestDistributionAllDistinctIgnored(t *testing.T) {
	a := New(testBehaviorConfig())

	// Every value distinct means the field is an identifier, not a
	// category.
	var batch []model.Record
	for i := 0; i < 6; i++ {
		batch = append(batch, model.Record{
			"sha": fmt.Sprintf("commit hash value number %d%d%d", i, i*31, i*97),
		})
	}

	issues := a.Analyze(batch, model.RecordContext{})
	assert.Empty(t, issuesByCode(issues, CodeTooUniform))
}

func TestCheckContextWindow(t *testing.T) {
	a := New(testBehaviorConfig())
	rctx := model.RecordContext{
		WindowStart: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	batch := []model.Record{
		{"created_at": "2024-06-01T12:00:00Z"},
		{"created_at": "2024-05-20T12:00:00Z"},
	}

	issues := a.CheckContext(batch, rctx)
	require.Len(t, issues, 1)
	assert.Equal(t, CodeWindowMismatch, issues[0].Code)
	assert.Equal(t, model.SeverityHard, issues[0].Severity)
	assert.InDelta(t, 0.5, issues[0].Penalty, 0.0001)
	assert.Contains(t, issues[0].Message, "record 1")
}

func TestCheckContextSingleRecord(t *testing.T) {
	a := New(testBehaviorConfig())
	rctx := model.RecordContext{
		WindowStart: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		WindowEnd:   time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
	}

	issues := a.CheckContext([]model.Record{{"created_at": "2024-07-01T00:00:00Z"}}, rctx)
	require.Len(t, issues, 1)
	assert.Equal(t, CodeWindowMismatch, issues[0].Code)
}

func TestCheckContextProviderMismatch(t *testing.T) {
	a := New(testBehaviorConfig())
	rctx := model.RecordContext{Provider: "github_actions"}
	batch := []model.Record{
		{"provider": "github_actions"},
		{"provider": "jenkins"},
		{"id": "3"},
	}

	issues := a.CheckContext(batch, rctx)
	require.Len(t, issues, 1)
	assert.Equal(t, CodeProviderMismatch, issues[0].Code)
	assert.Equal(t, model.SeverityHard, issues[0].Severity)
}

func TestCheckContextExpectedCount(t *testing.T) {
	a := New(testBehaviorConfig())
	rctx := model.RecordContext{ExpectedCount: 10}

	issues := a.CheckContext([]model.Record{{"id": "1"}, {"id": "2"}}, rctx)
	require.Len(t, issues, 1)
	assert.Equal(t, CodeCountMismatch, issues[0].Code)
	assert.Equal(t, model.SeveritySoft, issues[0].Severity)
}

func TestCheckContextCountWithinTolerance(t *testing.T) {
	a := New(testBehaviorConfig())
	rctx := model.RecordContext{ExpectedCount: 10}

	var batch []model.Record
	for i := 0; i < 8; i++ {
		batch = append(batch, model.Record{"id": fmt.Sprintf("%d", i)})
	}

	assert.Empty(t, a.CheckContext(batch, rctx))
}

func issuesByCode(issues []model.ValidationIssue, code string) []model.ValidationIssue {
	var out []model.ValidationIssue
	for _, iss := range issues {
		if iss.Code == code {
			out = append(out, iss)
		}
	}
	return out
}
