package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func TestSettingsCmd_ShowDefaults(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "[Sync]")
	assert.Contains(t, out, "Batch size: 100")
	assert.Contains(t, out, "Backend: none")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsCmd_Set(t *testing.T) {
	a := setupTestServices(t)

	out, err := executeCommand(t, "settings", "set", "sync.batch_size", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "sync.batch_size updated.")

	settings, err := a.SettingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, 50, settings.Sync.BatchSize)

	out, err = executeCommand(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Batch size: 50")
}

func TestSettingsCmd_SetInvalid(t *testing.T) {
	setupTestServices(t)

	tests := []struct {
		key   string
		value string
	}{
		{"no.such.key", "1"},
		{"sync.batch_size", "0"},
		{"secondary.backend", "elastic"},
		{"writer.timeout", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := executeCommand(t, "settings", "set", tt.key, tt.value)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsCmd_ShowWarnsOnInvalidConfig(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "settings", "set", "secondary.backend", "azure")
	require.NoError(t, err)
	_, err = executeCommand(t, "settings", "set", "secondary.azure.api_key", "abcd1234efgh5678")
	require.NoError(t, err)

	out, err := executeCommand(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Backend: azure")
	assert.Contains(t, out, "API key: abcd...5678")
	assert.Contains(t, out, "Warning:")
}

func TestSettingsCmd_Keys(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "settings", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "sync.workers")
	assert.Contains(t, out, "secondary.azure.endpoint")
	assert.Contains(t, out, "scheduler.interval")
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "(not set)", maskAPIKey(""))
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk-1...cdef", maskAPIKey("sk-1234567890abcdef"))
}
