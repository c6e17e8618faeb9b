package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultNumTasks, cfg.Pipeline.NumTasks)
	assert.Equal(t, DefaultBatchSize, cfg.Pipeline.BatchSize)
	assert.Equal(t, DefaultCapacity, cfg.Pipeline.Capacity)
	assert.Equal(t, DefaultReadQueuePutTimeout, cfg.Pipeline.ReadQueuePutTimeout)
	assert.False(t, cfg.Pipeline.AbortOnFail)
	assert.False(t, cfg.Pipeline.Sorted)
	assert.Equal(t, "batch-runner", cfg.App.Name)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
pipeline:
  num_tasks: 8
  batch_size: 50
  capacity: 2
  abort_on_fail: true
  read_queue_put_timeout_ms: 1000
app:
  log_level: debug
  log_format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Pipeline.NumTasks)
	assert.Equal(t, 50, cfg.Pipeline.BatchSize)
	assert.Equal(t, 2, cfg.Pipeline.Capacity)
	assert.True(t, cfg.Pipeline.AbortOnFail)
	assert.Equal(t, time.Second, cfg.Pipeline.ReadQueuePutTimeout)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "json", cfg.App.LogFormat)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  num_tasks: 2\n"), 0o600))

	t.Setenv("PIPELINE_NUM_TASKS", "16")
	t.Setenv("PIPELINE_ABORT_ON_FAIL", "true")
	t.Setenv("PIPELINE_READ_QUEUE_PUT_TIMEOUT_MS", "1500")
	t.Setenv("REDIS_ADDRESSES", "redis-a:6379, redis-b:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Pipeline.NumTasks)
	assert.True(t, cfg.Pipeline.AbortOnFail)
	assert.Equal(t, 1500*time.Millisecond, cfg.Pipeline.ReadQueuePutTimeout)
	assert.Equal(t, []string{"redis-a:6379", "redis-b:6379"}, cfg.Redis.Addresses)
}

func TestLoad_MalformedEnvIgnored(t *testing.T) {
	t.Setenv("PIPELINE_NUM_TASKS", "not-a-number")
	t.Setenv("PIPELINE_ABORT_ON_FAIL", "maybe")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultNumTasks, cfg.Pipeline.NumTasks)
	assert.False(t, cfg.Pipeline.AbortOnFail)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline: [not a map"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
