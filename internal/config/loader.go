package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ibs-source/batch/runner/golang/internal/timeutil"
)

// Load builds the effective configuration: defaults, then the optional YAML
// file at path, then environment overrides, then validation. An empty path
// skips the file layer.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnvironment(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig is the on-disk schema. Durations are integer milliseconds, like
// the environment variables; pointer fields distinguish "absent" from zero so
// the file only overrides what it mentions.
type fileConfig struct {
	App struct {
		Name              *string `yaml:"name"`
		Environment       *string `yaml:"environment"`
		LogLevel          *string `yaml:"log_level"`
		LogFormat         *string `yaml:"log_format"`
		ShutdownTimeoutMs *int64  `yaml:"shutdown_timeout_ms"`
	} `yaml:"app"`
	Pipeline struct {
		NumTasks              *int   `yaml:"num_tasks"`
		BatchSize             *int   `yaml:"batch_size"`
		Capacity              *int   `yaml:"capacity"`
		AbortOnFail           *bool  `yaml:"abort_on_fail"`
		Sorted                *bool  `yaml:"sorted"`
		ReadQueuePutTimeoutMs *int64 `yaml:"read_queue_put_timeout_ms"`
	} `yaml:"pipeline"`
	Redis struct {
		Addresses      []string `yaml:"addresses"`
		Username       *string  `yaml:"username"`
		Password       *string  `yaml:"password"`
		DB             *int     `yaml:"db"`
		Stream         *string  `yaml:"stream"`
		Group          *string  `yaml:"group"`
		SinkStream     *string  `yaml:"sink_stream"`
		SinkMaxLen     *int64   `yaml:"sink_max_len"`
		BlockTimeoutMs *int64   `yaml:"block_timeout_ms"`
		PoolSize       *int     `yaml:"pool_size"`
	} `yaml:"redis"`
	MQTT struct {
		Brokers          []string `yaml:"brokers"`
		ClientID         *string  `yaml:"client_id"`
		Topic            *string  `yaml:"topic"`
		QoS              *int     `yaml:"qos"`
		KeepAliveMs      *int64   `yaml:"keep_alive_ms"`
		ConnectTimeoutMs *int64   `yaml:"connect_timeout_ms"`
		PublishTimeoutMs *int64   `yaml:"publish_timeout_ms"`
	} `yaml:"mqtt"`
	Metrics struct {
		Enabled *bool `yaml:"enabled"`
		Port    *int  `yaml:"port"`
	} `yaml:"metrics"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(fc.App.Name, &cfg.App.Name)
	setString(fc.App.Environment, &cfg.App.Environment)
	setString(fc.App.LogLevel, &cfg.App.LogLevel)
	setString(fc.App.LogFormat, &cfg.App.LogFormat)
	setMillis(fc.App.ShutdownTimeoutMs, &cfg.App.ShutdownTimeout)

	setInt(fc.Pipeline.NumTasks, &cfg.Pipeline.NumTasks)
	setInt(fc.Pipeline.BatchSize, &cfg.Pipeline.BatchSize)
	setInt(fc.Pipeline.Capacity, &cfg.Pipeline.Capacity)
	setBool(fc.Pipeline.AbortOnFail, &cfg.Pipeline.AbortOnFail)
	setBool(fc.Pipeline.Sorted, &cfg.Pipeline.Sorted)
	setMillis(fc.Pipeline.ReadQueuePutTimeoutMs, &cfg.Pipeline.ReadQueuePutTimeout)

	if len(fc.Redis.Addresses) > 0 {
		cfg.Redis.Addresses = fc.Redis.Addresses
	}
	setString(fc.Redis.Username, &cfg.Redis.Username)
	setString(fc.Redis.Password, &cfg.Redis.Password)
	setInt(fc.Redis.DB, &cfg.Redis.DB)
	setString(fc.Redis.Stream, &cfg.Redis.Stream)
	setString(fc.Redis.Group, &cfg.Redis.Group)
	setString(fc.Redis.SinkStream, &cfg.Redis.SinkStream)
	if fc.Redis.SinkMaxLen != nil {
		cfg.Redis.SinkMaxLen = *fc.Redis.SinkMaxLen
	}
	setMillis(fc.Redis.BlockTimeoutMs, &cfg.Redis.BlockTimeout)
	setInt(fc.Redis.PoolSize, &cfg.Redis.PoolSize)

	if len(fc.MQTT.Brokers) > 0 {
		cfg.MQTT.Brokers = fc.MQTT.Brokers
	}
	setString(fc.MQTT.ClientID, &cfg.MQTT.ClientID)
	setString(fc.MQTT.Topic, &cfg.MQTT.Topic)
	if fc.MQTT.QoS != nil {
		cfg.MQTT.QoS = byte(*fc.MQTT.QoS)
	}
	setMillis(fc.MQTT.KeepAliveMs, &cfg.MQTT.KeepAlive)
	setMillis(fc.MQTT.ConnectTimeoutMs, &cfg.MQTT.ConnectTimeout)
	setMillis(fc.MQTT.PublishTimeoutMs, &cfg.MQTT.PublishTimeout)

	setBool(fc.Metrics.Enabled, &cfg.Metrics.Enabled)
	setInt(fc.Metrics.Port, &cfg.Metrics.Port)
	return nil
}

func setString(src *string, dst *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(src *int, dst *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(src *bool, dst *bool) {
	if src != nil {
		*dst = *src
	}
}

func setMillis(src *int64, dst *time.Duration) {
	if src != nil {
		*dst = timeutil.FromMillis(*src)
	}
}
