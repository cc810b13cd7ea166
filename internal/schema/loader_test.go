package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSchemaFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeSchemaFile(t, `
schemas:
  - name: circleci
    required: [id, status, created_at]
    enums:
      status: [success, failed, running]
    formats:
      id: "^[0-9a-f-]+$"
    non_negative: [duration]
`)

	r := NewRegistry()
	require.NoError(t, r.LoadFile(path))

	s, err := r.Get("circleci")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "status", "created_at"}, s.Required)
	assert.Equal(t, []string{"success", "failed", "running"}, s.Enums["status"])
	assert.Equal(t, []string{"duration"}, s.NonNegative)

	// Format predicates are compiled at load time.
	issues := s.Check(map[string]any{
		"id":         "NOT-HEX",
		"status":     "success",
		"created_at": "2024-05-30T10:00:00Z",
	}, testRuleConfig())
	require.Len(t, issues, 1)
	assert.Equal(t, CodeBadFormat, issues[0].Code)
}

func TestLoadFileMissing(t *testing.T) {
	r := NewRegistry()
	err := r.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadFileBadYAML(t *testing.T) {
	path := writeSchemaFile(t, "schemas: [}")

	r := NewRegistry()
	err := r.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoadFileBadPattern(t *testing.T) {
	path := writeSchemaFile(t, `
schemas:
  - name: broken
    formats:
      id: "([0-9"
`)

	r := NewRegistry()
	err := r.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad format")
}
