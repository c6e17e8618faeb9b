package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ibs-source/batch/runner/golang/internal/timeutil"
)

// applyEnvironment overlays environment variables onto cfg. Unset variables
// leave the current value untouched; malformed numeric values are ignored.
func applyEnvironment(cfg *Config) {
	lookupString("APP_NAME", &cfg.App.Name)
	lookupString("APP_ENVIRONMENT", &cfg.App.Environment)
	lookupString("APP_LOG_LEVEL", &cfg.App.LogLevel)
	lookupString("APP_LOG_FORMAT", &cfg.App.LogFormat)
	lookupMillis("APP_SHUTDOWN_TIMEOUT_MS", &cfg.App.ShutdownTimeout)

	lookupInt("PIPELINE_NUM_TASKS", &cfg.Pipeline.NumTasks)
	lookupInt("PIPELINE_BATCH_SIZE", &cfg.Pipeline.BatchSize)
	lookupInt("PIPELINE_CAPACITY", &cfg.Pipeline.Capacity)
	lookupBool("PIPELINE_ABORT_ON_FAIL", &cfg.Pipeline.AbortOnFail)
	lookupBool("PIPELINE_SORTED", &cfg.Pipeline.Sorted)
	lookupMillis("PIPELINE_READ_QUEUE_PUT_TIMEOUT_MS", &cfg.Pipeline.ReadQueuePutTimeout)

	lookupStrings("REDIS_ADDRESSES", &cfg.Redis.Addresses)
	lookupString("REDIS_USERNAME", &cfg.Redis.Username)
	lookupString("REDIS_PASSWORD", &cfg.Redis.Password)
	lookupInt("REDIS_DB", &cfg.Redis.DB)
	lookupString("REDIS_STREAM", &cfg.Redis.Stream)
	lookupString("REDIS_GROUP", &cfg.Redis.Group)
	lookupString("REDIS_SINK_STREAM", &cfg.Redis.SinkStream)
	lookupMillis("REDIS_BLOCK_TIMEOUT_MS", &cfg.Redis.BlockTimeout)

	lookupStrings("MQTT_BROKERS", &cfg.MQTT.Brokers)
	lookupString("MQTT_CLIENT_ID", &cfg.MQTT.ClientID)
	lookupString("MQTT_TOPIC", &cfg.MQTT.Topic)

	lookupBool("METRICS_ENABLED", &cfg.Metrics.Enabled)
	lookupInt("METRICS_PORT", &cfg.Metrics.Port)
}

func lookupString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func lookupStrings(key string, dst *[]string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}

func lookupInt(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func lookupBool(key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}

func lookupMillis(key string, dst *time.Duration) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
		*dst = timeutil.FromMillis(ms)
	}
}
