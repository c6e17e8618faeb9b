package config

import "time"

// Default values for the tuning record. ReadQueuePutTimeout intentionally
// defaults to 500ms: one full offer attempt runs for a second, so the budget
// always allows at least one attempt before the stuck-queue error fires.
const (
	DefaultNumTasks            = 4
	DefaultBatchSize           = 100
	DefaultCapacity            = 8
	DefaultReadQueuePutTimeout = 500 * time.Millisecond
)

// Defaults returns a configuration populated with default values. Callers
// layer file and environment settings on top.
func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:            "batch-runner",
			Environment:     "development",
			LogLevel:        "info",
			LogFormat:       "text",
			ShutdownTimeout: 30 * time.Second,
		},
		Pipeline: PipelineConfig{
			NumTasks:            DefaultNumTasks,
			BatchSize:           DefaultBatchSize,
			Capacity:            DefaultCapacity,
			AbortOnFail:         false,
			Sorted:              false,
			ReadQueuePutTimeout: DefaultReadQueuePutTimeout,
		},
		Redis: RedisConfig{
			Addresses:      []string{"localhost:6379"},
			Stream:         "batch-source",
			Group:          "batch-runner",
			SinkStream:     "batch-sink",
			BlockTimeout:   2 * time.Second,
			ConnectTimeout: 5 * time.Second,
			ReadTimeout:    3 * time.Second,
			WriteTimeout:   3 * time.Second,
			PoolSize:       10,
		},
		MQTT: MQTTConfig{
			Brokers:           []string{"tcp://localhost:1883"},
			ClientID:          "batch-runner",
			Topic:             "batch/out",
			QoS:               1,
			KeepAlive:         30 * time.Second,
			ConnectTimeout:    10 * time.Second,
			PublishTimeout:    5 * time.Second,
			DisconnectTimeout: 250 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}
