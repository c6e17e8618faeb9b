package redisio

import (
	"strings"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibs-source/batch/runner/golang/internal/config"
	"github.com/ibs-source/batch/runner/golang/internal/logger"
)

func TestNewStreamReader_Validation(t *testing.T) {
	cfg := config.Defaults()
	cfg.Redis.Stream = ""
	_, err := NewStreamReader(cfg, logger.Nop())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg = config.Defaults()
	cfg.Redis.Group = ""
	_, err = NewStreamReader(cfg, logger.Nop())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewStreamReader_UniqueConsumerNames(t *testing.T) {
	cfg := config.Defaults()
	a, err := NewStreamReader(cfg, logger.Nop())
	require.NoError(t, err)
	b, err := NewStreamReader(cfg, logger.Nop())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a.ConsumerName(), "consumer-"))
	assert.NotEqual(t, a.ConsumerName(), b.ConsumerName())
}

func TestNewStreamWriter_Validation(t *testing.T) {
	cfg := config.Defaults()
	cfg.Redis.SinkStream = ""
	_, err := NewStreamWriter(cfg, logger.Nop())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestConvertStreams(t *testing.T) {
	streams := []goredis.XStream{
		{
			Stream: "s1",
			Messages: []goredis.XMessage{
				{ID: "1-0", Values: map[string]interface{}{"k": "v"}},
				{ID: "2-0", Values: map[string]interface{}{"k": "w"}},
			},
		},
		{
			Stream: "s2",
			Messages: []goredis.XMessage{
				{ID: "3-0", Values: map[string]interface{}{"x": "y"}},
			},
		},
	}

	entries := convertStreams(streams)
	require.Len(t, entries, 3)
	assert.Equal(t, "1-0", entries[0].ID)
	assert.Equal(t, "v", entries[0].Values["k"])
	assert.Equal(t, "3-0", entries[2].ID)
}

func TestConvertStreams_Empty(t *testing.T) {
	assert.Empty(t, convertStreams(nil))
	assert.Empty(t, convertStreams([]goredis.XStream{{Stream: "s"}}))
}

func TestEntryIDs(t *testing.T) {
	ids := entryIDs([]Entry{{ID: "1-0"}, {ID: "2-0"}})
	assert.Equal(t, []string{"1-0", "2-0"}, ids)
	assert.Empty(t, entryIDs(nil))
}

func TestStreamReader_CloseWithoutOpen(t *testing.T) {
	r, err := NewStreamReader(config.Defaults(), logger.Nop())
	require.NoError(t, err)
	assert.NoError(t, r.Close())
}

func TestStreamWriter_CloseWithoutOpen(t *testing.T) {
	w, err := NewStreamWriter(config.Defaults(), logger.Nop())
	require.NoError(t, err)
	assert.NoError(t, w.Close())
}

func TestStreamWriter_WriteEmptyBatchIsNoop(t *testing.T) {
	w, err := NewStreamWriter(config.Defaults(), logger.Nop())
	require.NoError(t, err)
	// No connection needed: empty batches short-circuit.
	assert.NoError(t, w.Write(nil))
}
