package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

func TestSettingsService_Defaults(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore())

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSyncWorkers, got.Sync.Workers)
	assert.Equal(t, domain.DefaultWriterTimeout, got.Writer.Timeout)
	assert.Equal(t, domain.DefaultWriterMaxAttempts, got.Writer.MaxAttempts)
	assert.Equal(t, domain.SecondaryNone, got.Secondary.Backend)
	assert.Equal(t, domain.DefaultAzureAPIVersion, got.Secondary.Azure.APIVersion)
	assert.Equal(t, domain.AIProviderOllama, got.Embedding.Provider)
	assert.False(t, got.Scheduler.Enabled)
}

func TestSettingsService_Set(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store)

	tests := []struct {
		key     string
		value   string
		wantErr bool
	}{
		{"sync.workers", "8", false},
		{"sync.workers", "0", true},
		{"sync.workers", "many", true},
		{"writer.timeout", "30s", false},
		{"writer.timeout", "-1s", true},
		{"writer.timeout", "soon", true},
		{"secondary.backend", "vector", false},
		{"secondary.backend", "elastic", true},
		{"embedding.provider", "openai", false},
		{"embedding.provider", "cohere", true},
		{"scheduler.enabled", "true", false},
		{"scheduler.enabled", "sometimes", true},
		{"extractor.remote_url", " http://tika:9998 ", false},
		{"no.such.key", "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := svc.Set(tt.key, tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 8, got.Sync.Workers)
	assert.Equal(t, 30*time.Second, got.Writer.Timeout)
	assert.Equal(t, domain.SecondaryVector, got.Secondary.Backend)
	assert.Equal(t, domain.AIProviderOpenAI, got.Embedding.Provider)
	assert.True(t, got.Scheduler.Enabled)
	assert.Equal(t, "http://tika:9998", got.Extractor.RemoteURL)
}

func TestSettingsService_Keys(t *testing.T) {
	keys := NewSettingsService(memory.NewConfigStore()).Keys()
	assert.IsIncreasing(t, keys)
	assert.Contains(t, keys, "writer.max_attempts")
	assert.Contains(t, keys, "scheduler.prune_interval")
}

func TestSettingsService_SchedulePlan(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore())

	plan := svc.SchedulePlan()
	assert.False(t, plan.Enabled)
	syncTask, ok := plan.Task(domain.TaskIDDocumentSync)
	require.True(t, ok)
	assert.Equal(t, domain.DefaultSchedulerInterval, syncTask.Interval)
	pruneTask, ok := plan.Task(domain.TaskIDSearchLogPrune)
	require.True(t, ok)
	assert.Equal(t, domain.DefaultPruneInterval, pruneTask.Interval)

	require.NoError(t, svc.Set("scheduler.enabled", "true"))
	require.NoError(t, svc.Set("scheduler.interval", "5m"))
	require.NoError(t, svc.Set("scheduler.prune_interval", "1h"))

	plan = svc.SchedulePlan()
	assert.True(t, plan.Enabled)
	syncTask, _ = plan.Task(domain.TaskIDDocumentSync)
	assert.Equal(t, 5*time.Minute, syncTask.Interval)
	pruneTask, _ = plan.Task(domain.TaskIDSearchLogPrune)
	assert.Equal(t, time.Hour, pruneTask.Interval)
}
