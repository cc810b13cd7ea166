//go:build !integration

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContext_FlagsOnly(t *testing.T) {
	rctx, err := buildContext("gitlab_ci", "", "", 50)
	require.NoError(t, err)

	assert.Equal(t, "gitlab_ci", rctx.Provider)
	assert.Equal(t, 50, rctx.ExpectedCount)
	assert.False(t, rctx.HasWindow())
}

func TestBuildContext_Window(t *testing.T) {
	rctx, err := buildContext("github_actions", "2024-06-01T00:00:00Z", "2024-06-02T00:00:00Z", 0)
	require.NoError(t, err)

	assert.True(t, rctx.HasWindow())
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), rctx.WindowStart)
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), rctx.WindowEnd)
}

func TestBuildContext_BadTimestamps(t *testing.T) {
	tests := []struct {
		name  string
		since string
		until string
	}{
		{"bad since", "yesterday", ""},
		{"bad until", "", "2024-06-02"},
		{"date only since", "2024-06-01", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildContext("", tt.since, tt.until, 0)
			require.Error(t, err)
		})
	}
}
