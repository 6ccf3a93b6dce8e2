// Package mqttsource receives RFX frames from an MQTT topic, one frame per
// message.
package mqttsource

import (
	"context"
	"fmt"
	"time"

	"github.com/chrissnell/rfxweather/internal/mqttconn"
	"github.com/chrissnell/rfxweather/pkg/config"
	"github.com/chrissnell/rfxweather/pkg/rfx"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Message encodings.
const (
	EncodingBinary = "binary"
	EncodingHex    = "hex"
)

const subscribeTimeout = 10 * time.Second

// Submitter accepts raw frames for decoding.
type Submitter interface {
	Submit(ctx context.Context, origin string, raw []byte) (rfx.Result, error)
}

// Source subscribes to one topic and submits every message payload.
type Source struct {
	name      string
	cfg       config.MQTTSourceData
	client    mqtt.Client
	submitter Submitter
	logger    *zap.SugaredLogger
}

func New(name string, cfg config.MQTTSourceData, client mqtt.Client, submitter Submitter, logger *zap.SugaredLogger) *Source {
	return &Source{
		name:      name,
		cfg:       cfg,
		client:    client,
		submitter: submitter,
		logger:    logger,
	}
}

// Name returns the configured source name.
func (s *Source) Name() string { return s.name }

// Origin is the label attached to events from this source.
func (s *Source) Origin() string { return "mqtt:" + s.name }

// Start connects, subscribes and keeps the subscription until ctx ends.
func (s *Source) Start(ctx context.Context) error {
	if err := mqttconn.Connect(ctx, s.client); err != nil {
		return fmt.Errorf("source %q: %w", s.name, err)
	}

	token := s.client.Subscribe(s.cfg.Topic, byte(s.cfg.QoS), func(_ mqtt.Client, msg mqtt.Message) {
		s.handle(ctx, msg.Payload())
	})
	if err := mqttconn.Wait(token, subscribeTimeout, "subscribe "+s.cfg.Topic); err != nil {
		s.client.Disconnect(250)
		return fmt.Errorf("source %q: %w", s.name, err)
	}

	s.logger.Infow("mqtt source subscribed", "source", s.name, "topic", s.cfg.Topic, "encoding", s.encoding())
	return nil
}

// Stop unsubscribes and disconnects.
func (s *Source) Stop() {
	s.client.Unsubscribe(s.cfg.Topic)
	s.client.Disconnect(250)
}

func (s *Source) encoding() string {
	if s.cfg.Encoding == "" {
		return EncodingBinary
	}
	return s.cfg.Encoding
}

func (s *Source) handle(ctx context.Context, payload []byte) {
	raw := payload
	if s.encoding() == EncodingHex {
		var err error
		raw, err = rfx.ParseHex(string(payload))
		if err != nil {
			s.logger.Debugw("discarding message", "source", s.name, "error", err)
			return
		}
	}

	// Decode failures are counted by the submitter.
	_, _ = s.submitter.Submit(ctx, s.Origin(), raw)
}
