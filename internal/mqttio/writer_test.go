package mqttio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibs-source/batch/runner/golang/internal/config"
	"github.com/ibs-source/batch/runner/golang/internal/logger"
)

func TestNewPublishWriter_Validation(t *testing.T) {
	cfg := config.Defaults()
	cfg.MQTT.Topic = ""
	_, err := NewPublishWriter(cfg, logger.Nop())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg = config.Defaults()
	cfg.MQTT.Brokers = nil
	_, err = NewPublishWriter(cfg, logger.Nop())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg = config.Defaults()
	cfg.MQTT.QoS = 7
	_, err = NewPublishWriter(cfg, logger.Nop())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestPublishWriter_WriteBeforeOpen(t *testing.T) {
	w, err := NewPublishWriter(config.Defaults(), logger.Nop())
	require.NoError(t, err)
	assert.ErrorIs(t, w.Write([][]byte{[]byte("x")}), ErrNotConnected)
}

func TestPublishWriter_CloseWithoutOpen(t *testing.T) {
	w, err := NewPublishWriter(config.Defaults(), logger.Nop())
	require.NoError(t, err)
	assert.NoError(t, w.Close())
}

func TestPublishWriter_LifecycleNoops(t *testing.T) {
	w, err := NewPublishWriter(config.Defaults(), logger.Nop())
	require.NoError(t, err)
	assert.NoError(t, w.Pre())
	assert.NoError(t, w.Post())
}
