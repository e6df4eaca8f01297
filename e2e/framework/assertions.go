//go:build e2e

package framework

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertSuccess asserts that obsidian-plugins exited 0.
func AssertSuccess(t *testing.T, r *Result) {
	t.Helper()
	assert.Zero(t, r.ExitCode, "obsidian-plugins failed\nstdout: %s\nstderr: %s", r.Stdout, r.Stderr)
}

// AssertUserError asserts a failed run that explained itself: exit code 1,
// message on stderr and a suggestion for the user.
func AssertUserError(t *testing.T, r *Result, message string) {
	t.Helper()
	assert.Equal(t, 1, r.ExitCode, "stdout: %s\nstderr: %s", r.Stdout, r.Stderr)
	assert.Contains(t, r.Stderr, "Error:")
	assert.Contains(t, r.Stderr, message)
	assert.Contains(t, r.Stderr, "Suggestion:")
}

// AssertStdoutContains asserts that stdout contains expected.
func AssertStdoutContains(t *testing.T, r *Result, expected string) {
	t.Helper()
	assert.Contains(t, r.Stdout, expected)
}

// AssertStdoutNotContains asserts that stdout does not contain unexpected.
func AssertStdoutNotContains(t *testing.T, r *Result, unexpected string) {
	t.Helper()
	assert.NotContains(t, r.Stdout, unexpected)
}

// AssertStderrContains asserts that stderr contains expected.
func AssertStderrContains(t *testing.T, r *Result, expected string) {
	t.Helper()
	assert.Contains(t, r.Stderr, expected)
}

// AssertInstalledIDs decodes the output of `list --json` and compares it
// with want, in order.
func AssertInstalledIDs(t *testing.T, r *Result, want ...string) {
	t.Helper()
	var ids []string
	require.NoError(t, json.Unmarshal([]byte(r.Stdout), &ids), "list --json printed %q", r.Stdout)
	if want == nil {
		want = []string{}
	}
	assert.Equal(t, want, ids)
}
