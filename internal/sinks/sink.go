// Package sinks delivers decoded readings to their consumers.
package sinks

import (
	"context"
	"fmt"

	"github.com/chrissnell/rfxweather/internal/mqttconn"
	"github.com/chrissnell/rfxweather/internal/types"
	"github.com/chrissnell/rfxweather/pkg/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// ReadingSink consumes decoded readings. Deliver is called from a single
// worker goroutine per sink.
type ReadingSink interface {
	Name() string
	Deliver(ctx context.Context, e types.Event) error
	Close() error
}

// New builds the sink described by cfg. MQTT sinks connect before returning.
func New(ctx context.Context, cfg config.SinkData, logger *zap.SugaredLogger) (ReadingSink, error) {
	switch cfg.Type {
	case config.SinkTypeLog:
		return NewLogSink(cfg.Name, logger), nil
	case config.SinkTypeMQTT:
		if cfg.MQTT == nil {
			return nil, fmt.Errorf("sink %q: missing mqtt settings", cfg.Name)
		}
		opts := mqttconn.ClientOptions(mqttconn.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		}, logger)
		return NewMQTTSink(ctx, cfg.Name, *cfg.MQTT, mqtt.NewClient(opts), logger)
	default:
		return nil, fmt.Errorf("sink %q: unknown type %q", cfg.Name, cfg.Type)
	}
}
