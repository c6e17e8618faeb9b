// Package config provides configuration loading and validation from YAML
// files, environment variables and defaults.
package config

import "time"

// Config holds the complete configuration
type Config struct {
	App      AppConfig
	Pipeline PipelineConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	Metrics  MetricsConfig
}

// AppConfig holds process-level settings
type AppConfig struct {
	Name            string
	Environment     string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// PipelineConfig holds the runner tuning record. It is immutable once
// validated; the runner only reads it.
type PipelineConfig struct {
	// NumTasks is the number of concurrent workers.
	NumTasks int
	// BatchSize is the number of items requested per read call.
	BatchSize int
	// Capacity is the maximum number of batches held by each handoff queue.
	Capacity int
	// AbortOnFail stops the whole pipeline on the first recorded error.
	AbortOnFail bool
	// Sorted is reserved; accepted but not acted upon.
	Sorted bool
	// ReadQueuePutTimeout is the soft deadline for stuck-queue detection on
	// the read queue.
	ReadQueuePutTimeout time.Duration
}

// RedisConfig holds Redis stream source/sink configuration
type RedisConfig struct {
	Addresses      []string
	Username       string
	Password       string
	DB             int
	Stream         string
	Group          string
	SinkStream     string
	SinkMaxLen     int64
	BlockTimeout   time.Duration
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PoolSize       int
}

// MQTTConfig holds MQTT sink configuration
type MQTTConfig struct {
	Brokers           []string
	ClientID          string
	Topic             string
	QoS               byte
	KeepAlive         time.Duration
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

// MetricsConfig holds the Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool
	Port    int
}
