package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPipeline() PipelineConfig {
	return PipelineConfig{
		NumTasks:            2,
		BatchSize:           10,
		Capacity:            4,
		ReadQueuePutTimeout: 500 * time.Millisecond,
	}
}

func TestPipelineConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*PipelineConfig)
		wantErr bool
	}{
		{"valid", func(*PipelineConfig) {}, false},
		{"zero num_tasks", func(p *PipelineConfig) { p.NumTasks = 0 }, true},
		{"negative num_tasks", func(p *PipelineConfig) { p.NumTasks = -3 }, true},
		{"zero batch_size", func(p *PipelineConfig) { p.BatchSize = 0 }, true},
		{"zero capacity", func(p *PipelineConfig) { p.Capacity = 0 }, true},
		{"negative timeout", func(p *PipelineConfig) { p.ReadQueuePutTimeout = -time.Second }, true},
		{"zero timeout allowed", func(p *PipelineConfig) { p.ReadQueuePutTimeout = 0 }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validPipeline()
			tc.mutate(&p)
			err := p.Validate()
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateLogFormat(t *testing.T) {
	cfg := Defaults()
	cfg.App.LogFormat = "xml"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.App.LogFormat = "json"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ValidateMetricsPort(t *testing.T) {
	cfg := Defaults()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.Metrics.Port = 9090
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ValidateRedisSource(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.ValidateRedisSource())

	cfg.Redis.Stream = ""
	assert.ErrorIs(t, cfg.ValidateRedisSource(), ErrInvalidConfig)

	cfg = Defaults()
	cfg.Redis.Addresses = nil
	assert.ErrorIs(t, cfg.ValidateRedisSource(), ErrInvalidConfig)

	cfg = Defaults()
	cfg.Redis.Group = ""
	assert.ErrorIs(t, cfg.ValidateRedisSource(), ErrInvalidConfig)
}

func TestConfig_ValidateMQTTSink(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.ValidateMQTTSink())

	cfg.MQTT.QoS = 3
	assert.ErrorIs(t, cfg.ValidateMQTTSink(), ErrInvalidConfig)

	cfg = Defaults()
	cfg.MQTT.Topic = ""
	assert.ErrorIs(t, cfg.ValidateMQTTSink(), ErrInvalidConfig)
}
