package sinks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chrissnell/rfxweather/internal/mqttconn"
	"github.com/chrissnell/rfxweather/internal/types"
	"github.com/chrissnell/rfxweather/pkg/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	defaultTopicPrefix = "rfxweather"
	publishTimeout     = 10 * time.Second
)

// MQTTSink publishes readings to <prefix>/<family>/<sensor id>.
type MQTTSink struct {
	name   string
	client mqtt.Client
	prefix string
	qos    byte
	retain bool
	format string
	logger *zap.SugaredLogger
}

// NewMQTTSink connects client and returns a sink publishing through it.
func NewMQTTSink(ctx context.Context, name string, cfg config.MQTTSinkData, client mqtt.Client, logger *zap.SugaredLogger) (*MQTTSink, error) {
	prefix := strings.TrimSuffix(cfg.TopicPrefix, "/")
	if prefix == "" {
		prefix = defaultTopicPrefix
	}

	s := &MQTTSink{
		name:   name,
		client: client,
		prefix: prefix,
		qos:    byte(cfg.QoS),
		retain: cfg.Retain,
		format: cfg.Format,
		logger: logger,
	}

	if err := mqttconn.Connect(ctx, client); err != nil {
		return nil, fmt.Errorf("sink %q: %w", name, err)
	}
	return s, nil
}

func (s *MQTTSink) Name() string { return s.name }

// Topic returns the topic e is published on.
func (s *MQTTSink) Topic(e types.Event) string {
	return fmt.Sprintf("%s/%s/%s", s.prefix, e.Family, e.SensorKey())
}

func (s *MQTTSink) Deliver(_ context.Context, e types.Event) error {
	payload, err := Encode(s.format, e)
	if err != nil {
		return err
	}

	topic := s.Topic(e)
	token := s.client.Publish(topic, s.qos, s.retain, payload)
	if err := mqttconn.Wait(token, publishTimeout, "publish "+topic); err != nil {
		return err
	}

	s.logger.Debugw("published reading", "sink", s.name, "topic", topic, "bytes", len(payload))
	return nil
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}
