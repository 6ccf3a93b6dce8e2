package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/rfxweather/internal/sinks"
	"github.com/chrissnell/rfxweather/internal/types"
	"github.com/chrissnell/rfxweather/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const calibratedConfig = `
calibrations:
  - name: rfxmngr-0x52
    packet-type: 0x52
    enabled: true
    layout: {sequence: 1, sensor-id: 2, channel: 3, temperature: 4, humidity: 6, humidity-status: 7, status: 8}
    references:
      - name: rfxmngr
        frame: "0A520D35680300D4270289"
        expect:
          subtype: 0x0D
          sequence: 53
          sensor-id: 0x6803
          channel: 3
          temperature-tenths-c: 212
          humidity-percent: 39
          humidity-status: dry
          battery-level: 9
          signal-level: 8
sinks:
  - name: console
    type: log
`

func writeConfig(t *testing.T, body string) config.ConfigProvider {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return config.NewYAMLProvider(path)
}

func TestStartPipeline(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	a := New(writeConfig(t, calibratedConfig), zap.New(core).Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	p, err := a.Start(ctx, &wg)
	require.NoError(t, err)

	assert.True(t, p.Decoder.Supported(0x52))
	assert.False(t, p.Decoder.Supported(0x01))

	res, err := p.Ingestor.Submit(ctx, "test", []byte{0x0A, 0x52, 0x0D, 0x35, 0x68, 0x03, 0x00, 0xD4, 0x27, 0x02, 0x89})
	require.NoError(t, err)
	assert.Equal(t, "TH13/WS1700", res.Model)

	assert.Eventually(t, func() bool {
		return p.Sinks.Health.IsHealthy("console", time.Minute)
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, logs.FilterMessage("reading").Len())

	cancel()
	wg.Wait()
}

func TestStartRejectsFailedCalibration(t *testing.T) {
	// Temperature offset shifted by one byte no longer reproduces the reference.
	body := `
calibrations:
  - name: shifted
    packet-type: 0x52
    enabled: true
    layout: {sequence: 1, sensor-id: 2, channel: 3, temperature: 5, humidity: 6, humidity-status: 7, status: 8}
    references:
      - name: rfxmngr
        frame: "0A520D35680300D4270289"
        expect: {subtype: 0x0D, sequence: 53, sensor-id: 0x6803, channel: 3, temperature-tenths-c: 212, humidity-percent: 39, humidity-status: dry, battery-level: 9, signal-level: 8}
`
	a := New(writeConfig(t, body), zap.NewNop().Sugar())

	var wg sync.WaitGroup
	_, err := a.Start(context.Background(), &wg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shifted")
	wg.Wait()
}

func TestStartDefaultsToLogSink(t *testing.T) {
	a := New(writeConfig(t, "sinks: []\n"), zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	p, err := a.Start(ctx, &wg)
	require.NoError(t, err)
	require.Len(t, p.Sinks.Sinks, 1)
	assert.Equal(t, "log", p.Sinks.Sinks[0].Sink.Name())
	assert.False(t, p.Decoder.Supported(0x52))

	cancel()
	wg.Wait()
}

type closeFailSink struct {
	name   string
	closed bool
}

func (s *closeFailSink) Name() string { return s.name }
func (s *closeFailSink) Deliver(context.Context, types.Event) error { return nil }
func (s *closeFailSink) Close() error {
	s.closed = true
	return errors.New("flush failed")
}

func TestStartClosesOpenedSinksOnError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	a := New(writeConfig(t, `
sinks:
  - name: first
    type: log
  - name: second
    type: log
`), zap.New(core).Sugar())

	first := &closeFailSink{name: "first"}
	a.newSink = func(_ context.Context, sc config.SinkData, _ *zap.SugaredLogger) (sinks.ReadingSink, error) {
		if sc.Name == "first" {
			return first, nil
		}
		return nil, errors.New("broker unreachable")
	}

	var wg sync.WaitGroup
	_, err := a.Start(context.Background(), &wg)
	require.ErrorContains(t, err, "broker unreachable")
	assert.True(t, first.closed)

	warned := logs.FilterMessage("closing sink").All()
	require.Len(t, warned, 1)
	assert.Equal(t, "first", warned[0].ContextMap()["sink"])
	assert.Equal(t, "flush failed", warned[0].ContextMap()["error"])
}
