// Package redisio provides Redis Streams implementations of the pipeline
// source and sink contracts.
package redisio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ibs-source/batch/runner/golang/internal/config"
	"github.com/ibs-source/batch/runner/golang/internal/ports"
)

// Entry is one stream record flowing through the pipeline.
type Entry struct {
	ID     string
	Values map[string]interface{}
}

// StreamReader consumes a Redis stream through a consumer group. Each Read
// pulls up to max entries and acknowledges them immediately; an empty poll
// after the block timeout is treated as end of stream, which suits batch
// relays that drain a stream and stop.
type StreamReader struct {
	cfg      *config.RedisConfig
	log      ports.Logger
	client   goredis.UniversalClient
	consumer string
}

// NewStreamReader validates the source configuration and prepares a reader.
// The connection is established by Open.
func NewStreamReader(cfg *config.Config, logger ports.Logger) (*StreamReader, error) {
	if err := cfg.ValidateRedisSource(); err != nil {
		return nil, err
	}
	return &StreamReader{
		cfg:      &cfg.Redis,
		log:      logger.WithFields(ports.F("component", "redis-reader")),
		consumer: fmt.Sprintf("consumer-%s", uuid.New().String()),
	}, nil
}

// Open connects to Redis and ensures the consumer group exists.
func (r *StreamReader) Open() error {
	r.client = newUniversalClient(r.cfg)

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.ConnectTimeout)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	// XGROUP CREATE with MKSTREAM creates the stream as needed; BUSYGROUP
	// means the group already exists.
	err := r.client.XGroupCreateMkStream(ctx, r.cfg.Stream, r.cfg.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// Pre logs the consumer identity before the first read.
func (r *StreamReader) Pre() error {
	r.log.Info("redis stream reader ready",
		ports.F("stream", r.cfg.Stream),
		ports.F("group", r.cfg.Group),
		ports.F("consumer", r.consumer),
	)
	return nil
}

// Read pulls up to max entries from the stream. Returns an empty slice once
// the stream stays quiet for the configured block timeout.
func (r *StreamReader) Read(max int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.BlockTimeout+r.cfg.ReadTimeout)
	defer cancel()

	streams, err := r.client.XReadGroup(ctx, &goredis.XReadGroupArgs{
		Group:    r.cfg.Group,
		Consumer: r.consumer,
		Streams:  []string{r.cfg.Stream, ">"},
		Count:    int64(max),
		Block:    r.cfg.BlockTimeout,
	}).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	entries := convertStreams(streams)
	if ids := entryIDs(entries); len(ids) > 0 {
		if err := r.client.XAck(ctx, r.cfg.Stream, r.cfg.Group, ids...).Err(); err != nil &&
			!errors.Is(err, goredis.Nil) && !strings.Contains(err.Error(), "NOGROUP") {
			r.log.Warn("failed to ack entries", ports.F("error", err), ports.F("count", len(ids)))
		}
	}
	return entries, nil
}

// Post removes this consumer from the group so idle consumers do not pile up.
func (r *StreamReader) Post() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
	defer cancel()
	err := r.client.XGroupDelConsumer(ctx, r.cfg.Stream, r.cfg.Group, r.consumer).Err()
	if err != nil && !errors.Is(err, goredis.Nil) && !strings.Contains(err.Error(), "NOGROUP") {
		r.log.Warn("failed to remove consumer", ports.F("error", err))
	}
	return nil
}

// Close releases the connection.
func (r *StreamReader) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// ConsumerName exposes the generated consumer identity.
func (r *StreamReader) ConsumerName() string {
	return r.consumer
}

func newUniversalClient(cfg *config.RedisConfig) goredis.UniversalClient {
	return goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:        cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.ConnectTimeout,
		ReadTimeout:  cfg.BlockTimeout + cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

func convertStreams(streams []goredis.XStream) []Entry {
	var out []Entry
	for _, s := range streams {
		for _, msg := range s.Messages {
			out = append(out, Entry{ID: msg.ID, Values: msg.Values})
		}
	}
	return out
}

func entryIDs(entries []Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}
