package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/rfxweather/internal/controllers/restserver"
	"github.com/chrissnell/rfxweather/internal/ingest"
	"github.com/chrissnell/rfxweather/internal/managers"
	"github.com/chrissnell/rfxweather/internal/sinks"
	"github.com/chrissnell/rfxweather/pkg/config"
	"github.com/chrissnell/rfxweather/pkg/rfx"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	newSink        func(context.Context, config.SinkData, *zap.SugaredLogger) (sinks.ReadingSink, error)
}

// Pipeline holds the running components.
type Pipeline struct {
	Decoder  *rfx.Decoder
	Ingestor *ingest.Ingestor
	Sinks    *managers.SinkManager
	Sources  *managers.SourceManager
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
		newSink:        sinks.New,
	}
}

// Start loads configuration, verifies every enabled calibration and starts the
// sinks, sources and controllers. A calibration that fails its reference
// frames aborts startup.
func (a *App) Start(ctx context.Context, wg *sync.WaitGroup) (*Pipeline, error) {
	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opts, err := config.DecoderOptions(cfg.Calibrations)
	if err != nil {
		return nil, err
	}
	decoder := rfx.NewDecoder(opts...)
	for _, spec := range rfx.Families() {
		a.logger.Infow("packet family",
			"packet_type", fmt.Sprintf("0x%02X", spec.PacketType),
			"family", spec.Family.String(),
			"supported", decoder.Supported(spec.PacketType),
		)
	}

	sinkCfgs := cfg.Sinks
	if len(sinkCfgs) == 0 {
		a.logger.Info("no sinks configured; readings will be logged")
		sinkCfgs = []config.SinkData{{Name: "log", Type: config.SinkTypeLog}}
	}
	readingSinks := make([]sinks.ReadingSink, 0, len(sinkCfgs))
	for _, sc := range sinkCfgs {
		s, err := a.newSink(ctx, sc, a.logger)
		if err != nil {
			for _, opened := range readingSinks {
				if cerr := opened.Close(); cerr != nil {
					a.logger.Warnw("closing sink", "sink", opened.Name(), "error", cerr)
				}
			}
			return nil, err
		}
		readingSinks = append(readingSinks, s)
	}

	p := &Pipeline{Decoder: decoder}
	p.Sinks = managers.NewSinkManager(ctx, wg, readingSinks, a.logger)
	p.Ingestor = ingest.New(decoder, p.Sinks.GetReadingDistributor(), a.logger)

	p.Sources, err = managers.NewSourceManager(cfg.Sources, p.Ingestor, a.logger)
	if err != nil {
		return nil, err
	}
	if err := p.Sources.StartSources(ctx, wg); err != nil {
		return nil, err
	}

	cm, err := managers.NewControllerManager(ctx, wg, cfg.Controllers, restserver.Service{
		Ingestor: p.Ingestor,
		Health:   p.Sinks.Health,
	}, a.logger)
	if err != nil {
		return nil, err
	}
	if err := cm.StartControllers(); err != nil {
		return nil, err
	}

	return p, nil
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if _, err := a.Start(ctx, &wg); err != nil {
		cancel()
		wg.Wait()
		return err
	}

	a.logger.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
