package managers

import (
	"context"
	"sync"

	"github.com/chrissnell/rfxweather/internal/sinks"
	"github.com/chrissnell/rfxweather/internal/types"
	"go.uber.org/zap"
)

const sinkQueueDepth = 20

// SinkManager fans readings from the ingestor out to every configured sink.
type SinkManager struct {
	ReadingDistributor chan types.Event
	Sinks              []Sink
	Health             *sinks.HealthTracker
	logger             *zap.SugaredLogger
}

// Sink pairs a sink with the channel its worker reads from.
type Sink struct {
	Sink sinks.ReadingSink
	C    chan<- types.Event
}

// NewSinkManager starts the distributor and one worker per sink. Workers and
// the distributor exit when ctx ends; each worker closes its sink on the way out.
func NewSinkManager(ctx context.Context, wg *sync.WaitGroup, readingSinks []sinks.ReadingSink, logger *zap.SugaredLogger) *SinkManager {
	s := &SinkManager{
		ReadingDistributor: make(chan types.Event, sinkQueueDepth),
		Health:             sinks.NewHealthTracker(),
		logger:             logger,
	}

	for _, rs := range readingSinks {
		c := make(chan types.Event, sinkQueueDepth)
		s.Sinks = append(s.Sinks, Sink{Sink: rs, C: c})

		wg.Add(1)
		go s.runSink(ctx, wg, rs, c)
	}

	wg.Add(1)
	go s.startReadingDistributor(ctx, wg)

	return s
}

// GetReadingDistributor returns the channel the ingestor sends events on.
func (s *SinkManager) GetReadingDistributor() chan types.Event {
	return s.ReadingDistributor
}

func (s *SinkManager) startReadingDistributor(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case e := <-s.ReadingDistributor:
			for _, sk := range s.Sinks {
				select {
				case sk.C <- e:
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *SinkManager) runSink(ctx context.Context, wg *sync.WaitGroup, rs sinks.ReadingSink, c <-chan types.Event) {
	defer wg.Done()
	defer func() {
		if err := rs.Close(); err != nil {
			s.logger.Warnw("closing sink", "sink", rs.Name(), "error", err)
		}
	}()

	for {
		select {
		case e := <-c:
			err := rs.Deliver(ctx, e)
			s.Health.Record(rs.Name(), err)
			if err != nil {
				s.logger.Errorw("delivery failed", "sink", rs.Name(), "sensor", e.SensorKey(), "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
