package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(ConsoleOutput(os.Stderr))
	})
	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		log     func()
		level   string
		message string
	}{
		{"debug verbose", true, func() { Debug("test message %s", "arg") }, "debug", "test message arg"},
		{"info verbose", true, func() { Info("count=%d", 3) }, "info", "count=3"},
		{"warn verbose", true, func() { Warn("careful") }, "warn", "careful"},
		{"section verbose", true, func() { Section("Sync") }, "info", "=== Sync ==="},
		{"error quiet", false, func() { Error("boom %v", 1) }, "error", "boom 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.verbose)
			tt.log()

			got := lines(t, buf)
			require.Len(t, got, 1)
			assert.Equal(t, tt.level, got[0]["level"])
			assert.Equal(t, tt.message, got[0]["message"])
			assert.Contains(t, got[0], "time")
		})
	}
}

func TestQuietSuppressesNonErrors(t *testing.T) {
	buf := capture(t, false)

	Debug("d")
	Info("i")
	Warn("w")
	Section("s")

	assert.Zero(t, buf.Len())
}

func TestWithFields(t *testing.T) {
	buf := capture(t, true)

	entry := With(Fields{"connection": "c1", "tenant": "acme"})
	entry.With(Fields{"kind": "sql"}).Info("batch committed")
	entry.Error("failed")

	got := lines(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0]["connection"])
	assert.Equal(t, "acme", got[0]["tenant"])
	assert.Equal(t, "sql", got[0]["kind"])
	assert.Equal(t, "batch committed", got[0]["message"])
	assert.NotContains(t, got[1], "kind")
	assert.Equal(t, "error", got[1]["level"])
}
