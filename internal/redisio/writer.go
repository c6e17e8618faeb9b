package redisio

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ibs-source/batch/runner/golang/internal/config"
	"github.com/ibs-source/batch/runner/golang/internal/ports"
)

// StreamWriter appends entries to a Redis stream, one XADD per entry,
// pipelined per batch.
type StreamWriter struct {
	cfg    *config.RedisConfig
	log    ports.Logger
	client goredis.UniversalClient
}

// NewStreamWriter validates the sink configuration and prepares a writer.
// The connection is established by Open.
func NewStreamWriter(cfg *config.Config, logger ports.Logger) (*StreamWriter, error) {
	if err := cfg.ValidateRedisSink(); err != nil {
		return nil, err
	}
	return &StreamWriter{
		cfg: &cfg.Redis,
		log: logger.WithFields(ports.F("component", "redis-writer")),
	}, nil
}

// Open connects to Redis.
func (w *StreamWriter) Open() error {
	w.client = newUniversalClient(w.cfg)
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.ConnectTimeout)
	defer cancel()
	if err := w.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Pre logs the sink identity before the first write.
func (w *StreamWriter) Pre() error {
	w.log.Info("redis stream writer ready", ports.F("stream", w.cfg.SinkStream))
	return nil
}

// Write appends the batch to the sink stream.
func (w *StreamWriter) Write(items []Entry) error {
	if len(items) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.WriteTimeout)
	defer cancel()

	pipe := w.client.Pipeline()
	for _, e := range items {
		pipe.XAdd(ctx, &goredis.XAddArgs{
			Stream: w.cfg.SinkStream,
			MaxLen: w.cfg.SinkMaxLen,
			Approx: w.cfg.SinkMaxLen > 0,
			Values: e.Values,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("xadd batch of %d: %w", len(items), err)
	}
	return nil
}

// Post is a no-op; the stream needs no finalization.
func (w *StreamWriter) Post() error { return nil }

// Close releases the connection.
func (w *StreamWriter) Close() error {
	if w.client == nil {
		return nil
	}
	return w.client.Close()
}
