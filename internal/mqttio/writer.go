// Package mqttio provides an MQTT implementation of the pipeline sink
// contract: each item of a batch is published as one message.
package mqttio

import (
	"errors"
	"fmt"
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"

	"github.com/ibs-source/batch/runner/golang/internal/config"
	"github.com/ibs-source/batch/runner/golang/internal/ports"
)

// ErrNotConnected reports a write attempted before Open connected the client.
var ErrNotConnected = errors.New("mqttio: client not connected")

const (
	breakerThreshold = 5
	breakerCooldown  = 5 * time.Second
)

// PublishWriter publishes each payload of a batch to a fixed topic. A small
// circuit breaker keeps a dead broker from stalling every write at the full
// publish timeout.
type PublishWriter struct {
	cfg     *config.MQTTConfig
	log     ports.Logger
	client  mqttlib.Client
	breaker *publishBreaker
}

// NewPublishWriter validates the sink configuration and prepares a writer.
// The connection is established by Open.
func NewPublishWriter(cfg *config.Config, logger ports.Logger) (*PublishWriter, error) {
	if err := cfg.ValidateMQTTSink(); err != nil {
		return nil, err
	}
	return &PublishWriter{
		cfg:     &cfg.MQTT,
		log:     logger.WithFields(ports.F("component", "mqtt-writer")),
		breaker: newPublishBreaker(breakerThreshold, breakerCooldown),
	}, nil
}

// Open connects to the broker.
func (w *PublishWriter) Open() error {
	opts := mqttlib.NewClientOptions()
	for _, broker := range w.cfg.Brokers {
		opts.AddBroker(broker)
	}
	opts.SetClientID(w.cfg.ClientID)
	opts.SetKeepAlive(w.cfg.KeepAlive)
	opts.SetConnectTimeout(w.cfg.ConnectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetProtocolVersion(4) // MQTT 3.1.1
	opts.SetConnectionLostHandler(func(_ mqttlib.Client, err error) {
		w.log.Warn("mqtt connection lost", ports.F("error", err))
	})

	w.client = mqttlib.NewClient(opts)
	token := w.client.Connect()
	if !token.WaitTimeout(w.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt connect to %v: timeout", w.cfg.Brokers)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %v: %w", w.cfg.Brokers, err)
	}
	return nil
}

// Pre logs the sink identity before the first write.
func (w *PublishWriter) Pre() error {
	w.log.Info("mqtt writer ready",
		ports.F("topic", w.cfg.Topic),
		ports.F("qos", w.cfg.QoS),
	)
	return nil
}

// Write publishes every payload of the batch. The first failed publish fails
// the whole batch; the runner records the error and decides whether to abort.
func (w *PublishWriter) Write(items [][]byte) error {
	if w.client == nil {
		return ErrNotConnected
	}
	for i, payload := range items {
		if !w.breaker.allow() {
			return fmt.Errorf("%w: dropping batch at item %d", ErrBreakerOpen, i)
		}
		token := w.client.Publish(w.cfg.Topic, w.cfg.QoS, false, payload)
		if !token.WaitTimeout(w.cfg.PublishTimeout) {
			w.breaker.failure()
			return fmt.Errorf("publish item %d: timeout after %s", i, w.cfg.PublishTimeout)
		}
		if err := token.Error(); err != nil {
			w.breaker.failure()
			return fmt.Errorf("publish item %d: %w", i, err)
		}
		w.breaker.success()
	}
	return nil
}

// Post is a no-op; nothing to flush beyond the last publish.
func (w *PublishWriter) Post() error { return nil }

// Close disconnects from the broker.
func (w *PublishWriter) Close() error {
	if w.client == nil {
		return nil
	}
	w.client.Disconnect(uint(w.cfg.DisconnectTimeout.Milliseconds()))
	return nil
}
