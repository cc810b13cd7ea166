package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/veracity/internal/config"
	"github.com/sells-group/veracity/internal/model"
)

func testRuleConfig() config.RuleConfig {
	return config.RuleConfig{
		RequiredPenalty: 0.2,
		EnumPenalty:     0.6,
		FormatPenalty:   0.3,
		TokenPenalty:    0.15,
		TokenPenaltyCap: 0.45,
	}
}

func githubSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewRegistry().Get("github_actions")
	require.NoError(t, err)
	return s
}

func TestCheckCleanRecord(t *testing.T) {
	rec := model.Record{
		"id":         "8204312911",
		"status":     "completed",
		"conclusion": "success",
		"created_at": "2024-05-30T10:00:00Z",
		"html_url":   "https://github.com/acme/api/actions/runs/8204312911",
	}

	issues := githubSchema(t).Check(rec, testRuleConfig())
	assert.Empty(t, issues)
}

func TestCheckRequiredMissing(t *testing.T) {
	rec := model.Record{"id": "1", "status": "completed"}

	issues := githubSchema(t).Check(rec, testRuleConfig())
	require.Len(t, issues, 2)
	for _, iss := range issues {
		assert.Equal(t, CodeRequiredMissing, iss.Code)
		assert.Equal(t, model.SeverityHard, iss.Severity)
		assert.InDelta(t, 0.2, iss.Penalty, 0.0001)
	}
}

func TestCheckEnumViolation(t *testing.T) {
	rec := model.Record{
		"id":         "1",
		"status":     "done",
		"created_at": "2024-05-30T10:00:00Z",
		"html_url":   "https://github.com/acme/api/actions/runs/1",
	}

	issues := githubSchema(t).Check(rec, testRuleConfig())
	require.Len(t, issues, 1)
	assert.Equal(t, CodeEnumViolation, issues[0].Code)
	assert.InDelta(t, 0.6, issues[0].Penalty, 0.0001)
	assert.Contains(t, issues[0].Message, `"done"`)
}

func TestCheckBadFormat(t *testing.T) {
	rec := model.Record{
		"id":         "run-1",
		"status":     "completed",
		"created_at": "2024-05-30T10:00:00Z",
		"html_url":   "http://example.com/runs/1",
	}

	issues := githubSchema(t).Check(rec, testRuleConfig())
	require.Len(t, issues, 2)
	for _, iss := range issues {
		assert.Equal(t, CodeBadFormat, iss.Code)
		assert.InDelta(t, 0.3, iss.Penalty, 0.0001)
	}
}

func TestCheckNumericIDMatchesFormat(t *testing.T) {
	// JSON decoders hand numeric IDs over as float64.
	rec := model.Record{
		"id":         float64(8204312911),
		"status":     "completed",
		"created_at": "2024-05-30T10:00:00Z",
		"html_url":   "https://github.com/acme/api/actions/runs/1",
	}

	issues := githubSchema(t).Check(rec, testRuleConfig())
	assert.Empty(t, issues)
}

func TestCheckSuspiciousTokens(t *testing.T) {
	rec := model.Record{
		"id":         "1",
		"status":     "completed",
		"created_at": "2024-05-30T10:00:00Z",
		"html_url":   "https://github.com/acme/api/actions/runs/1",
		"name":       "placeholder pipeline",
	}

	issues := githubSchema(t).Check(rec, testRuleConfig())
	require.Len(t, issues, 1)
	assert.Equal(t, CodeSuspiciousToken, issues[0].Code)
	assert.Equal(t, model.SeveritySoft, issues[0].Severity)
	assert.InDelta(t, 0.15, issues[0].Penalty, 0.0001)
}

func TestCheckSuspiciousTokenCap(t *testing.T) {
	rec := model.Record{
		"id":         "1",
		"status":     "completed",
		"created_at": "2024-05-30T10:00:00Z",
		"html_url":   "https://github.com/acme/api/actions/runs/1",
		"name":       "dummy mock stub fake sample",
	}

	issues := githubSchema(t).Check(rec, testRuleConfig())
	require.Len(t, issues, 1)
	// 5 hits at 0.15 each, capped at 0.45.
	assert.InDelta(t, 0.45, issues[0].Penalty, 0.0001)
}

func TestCheckFixedOrder(t *testing.T) {
	rec := model.Record{
		"id":       "run-1",
		"status":   "done",
		"html_url": "https://github.com/acme/api/actions/runs/1",
		"name":     "fake run",
	}

	issues := githubSchema(t).Check(rec, testRuleConfig())
	require.Len(t, issues, 4)
	assert.Equal(t, CodeRequiredMissing, issues[0].Code) // created_at
	assert.Equal(t, CodeEnumViolation, issues[1].Code)
	assert.Equal(t, CodeBadFormat, issues[2].Code)
	assert.Equal(t, CodeSuspiciousToken, issues[3].Code)
}
