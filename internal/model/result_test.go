package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"basic", "strict", "paranoid"} {
		lv, err := ParseLevel(s)
		require.NoError(t, err)
		assert.Equal(t, ValidationLevel(s), lv)
		assert.True(t, lv.Valid())
	}

	_, err := ParseLevel("extreme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid validation level")

	assert.False(t, ValidationLevel("").Valid())
}

func TestResultTotalPenalty(t *testing.T) {
	res := &ValidationResult{
		Issues: []ValidationIssue{
			{Code: "required_field_missing", Severity: SeverityHard, Penalty: 0.2},
			{Code: "suspicious_token", Severity: SeveritySoft, Penalty: 0.15},
			{Code: "suspicious_token", Severity: SeveritySoft, Penalty: 0.15},
		},
	}

	assert.InDelta(t, 0.5, res.TotalPenalty(), 0.0001)
	assert.Equal(t, 1, res.HardIssueCount())
}

func TestResultNoIssues(t *testing.T) {
	res := &ValidationResult{}

	assert.Zero(t, res.TotalPenalty())
	assert.Zero(t, res.HardIssueCount())
}
