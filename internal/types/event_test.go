package types

import (
	"testing"
	"time"

	"github.com/chrissnell/rfxweather/pkg/rfx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventToMap(t *testing.T) {
	res, err := rfx.NewDecoder().DecodeHex("0A4F0101DEAD014A02EE42")
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := NewEvent("rest", at, res)

	m := e.ToMap()
	assert.Equal(t, "0x4F", m["packet_type"])
	assert.Equal(t, "temperature_rain", m["family"])
	assert.Equal(t, "WS1200", m["model"])
	assert.Equal(t, 0xDEAD, m["sensor_id"])
	assert.Equal(t, 330, m["temperature_tenths_c"])
	assert.Equal(t, 750, m["rainfall_tenths_mm"])
	assert.Equal(t, "2026-03-01T12:00:00Z", m["received_at"])
	assert.Equal(t, "rest", m["origin"])
	assert.Equal(t, e.ID.String(), m["id"])
	assert.Equal(t, "dead", e.SensorKey())
}

func TestReadingFieldsTemperatureHumidity(t *testing.T) {
	fields := ReadingFields(rfx.TemperatureHumidityReading{
		SensorID: 0x6803, Channel: 3, Temperature: -12, Humidity: 39, HumidityStatus: rfx.HumidityDry,
	})
	assert.Equal(t, -12, fields["temperature_tenths_c"])
	assert.Equal(t, "dry", fields["humidity_status"])
	assert.Equal(t, 3, fields["channel"])

	assert.Empty(t, ReadingFields(nil))
	assert.Equal(t, "", Event{}.SensorKey())
}
