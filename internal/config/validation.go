package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig wraps every validation failure so callers can test for the
// class of error with errors.Is.
var ErrInvalidConfig = errors.New("invalid configuration")

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if c.App.LogFormat != "" && c.App.LogFormat != "json" && c.App.LogFormat != "text" {
		return invalidf("app.log_format must be json or text, got %q", c.App.LogFormat)
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return invalidf("metrics.port must be in (0, 65535], got %d", c.Metrics.Port)
	}
	return nil
}

// Validate checks the runner tuning record.
func (p *PipelineConfig) Validate() error {
	if p.NumTasks < 1 {
		return invalidf("pipeline.num_tasks must be at least 1, got %d", p.NumTasks)
	}
	if p.BatchSize < 1 {
		return invalidf("pipeline.batch_size must be at least 1, got %d", p.BatchSize)
	}
	if p.Capacity < 1 {
		return invalidf("pipeline.capacity must be at least 1, got %d", p.Capacity)
	}
	if p.ReadQueuePutTimeout < 0 {
		return invalidf("pipeline.read_queue_put_timeout must not be negative, got %s", p.ReadQueuePutTimeout)
	}
	return nil
}

// ValidateRedisSource checks the fields the Redis stream reader needs.
func (c *Config) ValidateRedisSource() error {
	if len(c.Redis.Addresses) == 0 {
		return invalidf("redis.addresses must not be empty")
	}
	if c.Redis.Stream == "" {
		return invalidf("redis.stream must not be empty")
	}
	if c.Redis.Group == "" {
		return invalidf("redis.group must not be empty")
	}
	return nil
}

// ValidateRedisSink checks the fields the Redis stream writer needs.
func (c *Config) ValidateRedisSink() error {
	if len(c.Redis.Addresses) == 0 {
		return invalidf("redis.addresses must not be empty")
	}
	if c.Redis.SinkStream == "" {
		return invalidf("redis.sink_stream must not be empty")
	}
	return nil
}

// ValidateMQTTSink checks the fields the MQTT publisher needs.
func (c *Config) ValidateMQTTSink() error {
	if len(c.MQTT.Brokers) == 0 {
		return invalidf("mqtt.brokers must not be empty")
	}
	if c.MQTT.Topic == "" {
		return invalidf("mqtt.topic must not be empty")
	}
	if c.MQTT.QoS > 2 {
		return invalidf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	return nil
}
