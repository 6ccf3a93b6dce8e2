package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/chrissnell/rfxweather/internal/mqttconn"
	"github.com/chrissnell/rfxweather/internal/sources/mqttsource"
	"github.com/chrissnell/rfxweather/pkg/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Source is a running frame producer.
type Source interface {
	Name() string
	Start(ctx context.Context) error
	Stop()
}

// SourceManager starts the configured sources and stops them on shutdown.
type SourceManager struct {
	sources []Source
	logger  *zap.SugaredLogger
	// newClient is replaced in tests.
	newClient mqttconn.NewClientFunc
}

// NewSourceManager builds a source for every entry in cfgs.
func NewSourceManager(cfgs []config.SourceData, submitter mqttsource.Submitter, logger *zap.SugaredLogger) (*SourceManager, error) {
	return newSourceManager(cfgs, submitter, logger, mqtt.NewClient)
}

func newSourceManager(cfgs []config.SourceData, submitter mqttsource.Submitter, logger *zap.SugaredLogger, newClient mqttconn.NewClientFunc) (*SourceManager, error) {
	sm := &SourceManager{logger: logger, newClient: newClient}

	for _, sc := range cfgs {
		switch sc.Type {
		case config.SourceTypeMQTT:
			if sc.MQTT == nil {
				return nil, fmt.Errorf("source %q: missing mqtt settings", sc.Name)
			}
			opts := mqttconn.ClientOptions(mqttconn.Options{
				Broker:   sc.MQTT.Broker,
				ClientID: sc.MQTT.ClientID,
				Username: sc.MQTT.Username,
				Password: sc.MQTT.Password,
			}, logger)
			sm.sources = append(sm.sources, mqttsource.New(sc.Name, *sc.MQTT, sm.newClient(opts), submitter, logger))
		default:
			return nil, fmt.Errorf("source %q: unknown type %q", sc.Name, sc.Type)
		}
	}

	return sm, nil
}

// Sources returns the managed sources.
func (sm *SourceManager) Sources() []Source {
	return sm.sources
}

// StartSources starts every source and stops them all when ctx ends.
func (sm *SourceManager) StartSources(ctx context.Context, wg *sync.WaitGroup) error {
	for _, s := range sm.sources {
		if err := s.Start(ctx); err != nil {
			return err
		}
		sm.logger.Infof("source %s started", s.Name())
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		for _, s := range sm.sources {
			s.Stop()
		}
		sm.logger.Info("sources stopped")
	}()

	return nil
}
