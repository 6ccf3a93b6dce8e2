package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chrissnell/rfxweather/pkg/rfx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const calibrationFile = "testdata/th13-calibration.yaml"

const serviceYAML = `
sources:
  - name: gateway
    type: mqtt
    mqtt:
      broker: tcp://localhost:1883
      topic: rfxcom/raw
      encoding: hex
sinks:
  - name: console
    type: log
  - name: broker
    type: mqtt
    mqtt:
      broker: tcp://localhost:1883
      topic-prefix: weather
      qos: 1
      retain: true
      format: msgpack
controllers:
  - type: rest
    rest:
      listen-addr: 127.0.0.1
      port: 8080
      enable-cors: true
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestYAMLProviderCalibrations(t *testing.T) {
	p := NewYAMLProvider(calibrationFile)
	defer p.Close()

	cals, err := p.GetCalibrations()
	require.NoError(t, err)
	require.Len(t, cals, 4)

	first := cals[0]
	assert.Equal(t, "rfxmngr-0x52", first.Name)
	assert.Equal(t, 0x52, first.PacketType)
	assert.True(t, first.Enabled)
	assert.Equal(t, 2, first.Layout.SensorID)
	require.Len(t, first.References, 1)
	assert.Equal(t, 0x6803, first.References[0].Expect.SensorID)

	// The node capture is shared between candidates through a YAML anchor.
	for _, c := range cals[1:] {
		assert.False(t, c.Enabled, c.Name)
		require.Len(t, c.References, 1, c.Name)
		assert.Equal(t, "node-th13", c.References[0].Name)
	}
	assert.True(t, p.IsReadOnly())
}

func TestCalibrationEntries(t *testing.T) {
	cfg, err := NewYAMLProvider(calibrationFile).LoadConfig()
	require.NoError(t, err)

	cl, err := cfg.Calibrations[0].Calibrate()
	require.NoError(t, err)
	assert.Equal(t, rfx.PacketTypeTemperatureHumidity, cl.PacketType())

	// None of the interface-message candidates explains the node capture.
	for _, c := range cfg.Calibrations[1:] {
		report, err := c.Evaluate()
		require.NoError(t, err, c.Name)
		assert.False(t, report.OK(), c.Name)

		_, err = c.Calibrate()
		var ce *rfx.CalibrationError
		assert.ErrorAs(t, err, &ce, c.Name)
	}

	opts, err := DecoderOptions(cfg.Calibrations)
	require.NoError(t, err)
	require.Len(t, opts, 1)

	dec := rfx.NewDecoder(opts...)
	assert.True(t, dec.Supported(rfx.PacketTypeTemperatureHumidity))
	assert.False(t, dec.Supported(rfx.PacketTypeInterfaceMessage))

	res, err := dec.DecodeHex("0A520D35680300D4270289")
	require.NoError(t, err)
	assert.Equal(t, uint16(0x6803), res.Reading.Sensor())
}

func TestDecoderOptionsFailures(t *testing.T) {
	cfg, err := NewYAMLProvider(calibrationFile).LoadConfig()
	require.NoError(t, err)

	enabledCandidate := cfg.Calibrations[1]
	enabledCandidate.Enabled = true
	_, err = DecoderOptions([]CalibrationData{cfg.Calibrations[0], enabledCandidate})
	assert.Error(t, err, "a failing enabled layout must stop startup")

	dup := cfg.Calibrations[0]
	dup.Name = "copy"
	_, err = DecoderOptions([]CalibrationData{cfg.Calibrations[0], dup})
	assert.ErrorContains(t, err, "both enabled")
}

func TestReferenceVectorErrors(t *testing.T) {
	tests := []struct {
		name string
		ref  ReferenceData
	}{
		{name: "bad hex", ref: ReferenceData{Name: "x", Frame: "0G"}},
		{name: "bad status", ref: ReferenceData{Name: "x", Frame: "00", Expect: ExpectedData{HumidityStatus: "soggy"}}},
		{name: "battery out of range", ref: ReferenceData{Name: "x", Frame: "00", Expect: ExpectedData{BatteryLevel: 16}}},
		{name: "sensor id out of range", ref: ReferenceData{Name: "x", Frame: "00", Expect: ExpectedData{SensorID: 0x10000}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CalibrationData{Name: "c", PacketType: 0x52, References: []ReferenceData{tt.ref}}
			_, err := c.ReferenceVectors()
			assert.Error(t, err)
		})
	}

	_, err := CalibrationData{Name: "c", PacketType: 0x152}.Calibrate()
	assert.ErrorContains(t, err, "out of range")
}

func TestYAMLProviderService(t *testing.T) {
	p := NewYAMLProvider(writeFile(t, serviceYAML))

	cfg, err := p.LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "hex", cfg.Sources[0].MQTT.Encoding)

	sinks, err := p.GetSinks()
	require.NoError(t, err)
	require.Len(t, sinks, 2)
	assert.Nil(t, sinks[0].MQTT)
	assert.Equal(t, "msgpack", sinks[1].MQTT.Format)
	assert.True(t, sinks[1].MQTT.Retain)

	ctrls, err := p.GetControllers()
	require.NoError(t, err)
	require.Len(t, ctrls, 1)
	assert.Equal(t, 8080, ctrls[0].RESTServer.Port)
	assert.True(t, ctrls[0].RESTServer.EnableCORS)
}

func TestYAMLProviderErrors(t *testing.T) {
	_, err := NewYAMLProvider(filepath.Join(t.TempDir(), "missing.yaml")).LoadConfig()
	assert.Error(t, err)

	_, err = NewYAMLProvider(writeFile(t, "sinks:\n  - name: x\n    tpye: log\n")).LoadConfig()
	assert.Error(t, err, "unknown keys are rejected")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ConfigData
		wantErr string
	}{
		{
			name: "valid",
			cfg: ConfigData{
				Sinks:       []SinkData{{Name: "log", Type: SinkTypeLog}},
				Controllers: []ControllerData{{Type: ControllerTypeREST, RESTServer: &RESTServerData{Port: 8080}}},
			},
		},
		{
			name:    "duplicate sink",
			cfg:     ConfigData{Sinks: []SinkData{{Name: "a", Type: SinkTypeLog}, {Name: "a", Type: SinkTypeLog}}},
			wantErr: "duplicate sink",
		},
		{
			name:    "mqtt sink without broker",
			cfg:     ConfigData{Sinks: []SinkData{{Name: "a", Type: SinkTypeMQTT}}},
			wantErr: "broker is required",
		},
		{
			name:    "bad format",
			cfg:     ConfigData{Sinks: []SinkData{{Name: "a", Type: SinkTypeMQTT, MQTT: &MQTTSinkData{Broker: "tcp://x:1883", Format: "xml"}}}},
			wantErr: "unknown format",
		},
		{
			name:    "unknown source type",
			cfg:     ConfigData{Sources: []SourceData{{Name: "tty", Type: "serial"}}},
			wantErr: "unknown type",
		},
		{
			name:    "bad encoding",
			cfg:     ConfigData{Sources: []SourceData{{Name: "m", Type: SourceTypeMQTT, MQTT: &MQTTSourceData{Broker: "b", Topic: "t", Encoding: "base64"}}}},
			wantErr: "unknown encoding",
		},
		{
			name:    "cert without key",
			cfg:     ConfigData{Controllers: []ControllerData{{Type: ControllerTypeREST, RESTServer: &RESTServerData{Cert: "c"}}}},
			wantErr: "cert and key",
		},
		{
			name:    "duplicate calibration",
			cfg:     ConfigData{Calibrations: []CalibrationData{{Name: "a"}, {Name: "a"}}},
			wantErr: "duplicate calibration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
