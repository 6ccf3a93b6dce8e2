package sinks

import (
	"context"

	"github.com/chrissnell/rfxweather/internal/types"
	"go.uber.org/zap"
)

// LogSink writes one structured log line per reading.
type LogSink struct {
	name   string
	logger *zap.SugaredLogger
}

func NewLogSink(name string, logger *zap.SugaredLogger) *LogSink {
	return &LogSink{name: name, logger: logger}
}

func (s *LogSink) Name() string { return s.name }

func (s *LogSink) Deliver(_ context.Context, e types.Event) error {
	kv := []interface{}{"sink", s.name}
	for k, v := range e.ToMap() {
		kv = append(kv, k, v)
	}
	s.logger.Infow("reading", kv...)
	return nil
}

func (s *LogSink) Close() error { return nil }
