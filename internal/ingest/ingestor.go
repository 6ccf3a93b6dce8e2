// Package ingest decodes frames handed in by sources and forwards the readings
// to the sink distributor.
package ingest

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/chrissnell/rfxweather/internal/types"
	"github.com/chrissnell/rfxweather/pkg/rfx"
	"go.uber.org/zap"
)

// Stats is a snapshot of ingest counters.
type Stats struct {
	Received    uint64            `json:"received"`
	Accepted    uint64            `json:"accepted"`
	Dropped     uint64            `json:"dropped"`
	Errors      map[string]uint64 `json:"errors"`
	Families    map[string]uint64 `json:"families"`
	LastReading time.Time         `json:"last_reading,omitempty"`
}

// Ingestor is safe for concurrent use by multiple sources.
type Ingestor struct {
	decoder *rfx.Decoder
	out     chan<- types.Event
	logger  *zap.SugaredLogger
	now     func() time.Time

	mu    sync.Mutex
	stats Stats
}

// New creates an Ingestor that sends decoded events to out.
func New(decoder *rfx.Decoder, out chan<- types.Event, logger *zap.SugaredLogger) *Ingestor {
	return &Ingestor{
		decoder: decoder,
		out:     out,
		logger:  logger,
		now:     time.Now,
		stats: Stats{
			Errors:   make(map[string]uint64),
			Families: make(map[string]uint64),
		},
	}
}

// Decoder returns the decoder frames are run through.
func (i *Ingestor) Decoder() *rfx.Decoder {
	return i.decoder
}

// Submit decodes raw and queues the reading. Decode failures are counted and
// returned; they never stop later frames. If ctx ends before the distributor
// accepts the event, the reading is dropped and ctx.Err() is returned.
func (i *Ingestor) Submit(ctx context.Context, origin string, raw []byte) (rfx.Result, error) {
	res, err := i.decoder.Decode(raw)
	if err != nil {
		kind := rfx.KindOf(err).String()
		i.mu.Lock()
		i.stats.Received++
		i.stats.Errors[kind]++
		i.mu.Unlock()

		i.logger.Debugw("frame rejected",
			"origin", origin,
			"kind", kind,
			"packet_type", types.PacketTypeString(res.PacketType),
			"frame", hex.EncodeToString(raw),
			"error", err,
		)
		return res, err
	}

	event := types.NewEvent(origin, i.now(), res)

	i.mu.Lock()
	i.stats.Received++
	i.mu.Unlock()

	select {
	case i.out <- event:
	case <-ctx.Done():
		i.mu.Lock()
		i.stats.Dropped++
		i.mu.Unlock()
		i.logger.Warnw("reading dropped", "origin", origin, "sensor", event.SensorKey(), "error", ctx.Err())
		return res, ctx.Err()
	}

	i.mu.Lock()
	i.stats.Accepted++
	i.stats.Families[res.Family.String()]++
	i.stats.LastReading = event.ReceivedAt
	i.mu.Unlock()

	i.logger.Debugw("reading queued",
		"origin", origin,
		"family", res.Family.String(),
		"model", res.Model,
		"sensor", event.SensorKey(),
	)
	return res, nil
}

// Stats returns a copy of the counters.
func (i *Ingestor) Stats() Stats {
	i.mu.Lock()
	defer i.mu.Unlock()

	s := i.stats
	s.Errors = make(map[string]uint64, len(i.stats.Errors))
	for k, v := range i.stats.Errors {
		s.Errors[k] = v
	}
	s.Families = make(map[string]uint64, len(i.stats.Families))
	for k, v := range i.stats.Families {
		s.Families[k] = v
	}
	return s
}
