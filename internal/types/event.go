// Package types holds the values passed between the ingest, sink and controller layers.
package types

import (
	"fmt"
	"time"

	"github.com/chrissnell/rfxweather/pkg/rfx"
	"github.com/google/uuid"
)

// Event is a decoded reading plus where and when it arrived.
type Event struct {
	ID         uuid.UUID
	ReceivedAt time.Time
	// Origin names the source that delivered the frame, e.g. "mqtt:gateway".
	Origin     string
	PacketType byte
	Family     rfx.Family
	Model      string
	Reading    rfx.Reading
}

// NewEvent wraps a successful decode result.
func NewEvent(origin string, receivedAt time.Time, res rfx.Result) Event {
	return Event{
		ID:         uuid.New(),
		ReceivedAt: receivedAt,
		Origin:     origin,
		PacketType: res.PacketType,
		Family:     res.Family,
		Model:      res.Model,
		Reading:    res.Reading,
	}
}

// SensorKey identifies the physical sensor, e.g. "6803".
func (e Event) SensorKey() string {
	if e.Reading == nil {
		return ""
	}
	return fmt.Sprintf("%04x", e.Reading.Sensor())
}

// ToMap flattens the event into primitive values for JSON and MessagePack
// encoders.
func (e Event) ToMap() map[string]any {
	m := ResultMap(rfx.Result{
		PacketType: e.PacketType,
		Family:     e.Family,
		Model:      e.Model,
		Reading:    e.Reading,
	})
	m["id"] = e.ID.String()
	m["received_at"] = e.ReceivedAt.UTC().Format(time.RFC3339Nano)
	m["origin"] = e.Origin
	return m
}

// ResultMap flattens a decode result.
func ResultMap(res rfx.Result) map[string]any {
	m := map[string]any{
		"packet_type": PacketTypeString(res.PacketType),
		"family":      res.Family.String(),
		"model":       res.Model,
	}
	for k, v := range ReadingFields(res.Reading) {
		m[k] = v
	}
	return m
}

// ReadingFields returns the reading's fields in native protocol units.
func ReadingFields(r rfx.Reading) map[string]any {
	switch r := r.(type) {
	case rfx.TemperatureRainReading:
		return map[string]any{
			"subtype":              int(r.Subtype),
			"sequence":             int(r.Sequence),
			"sensor_id":            int(r.SensorID),
			"temperature_tenths_c": int(r.Temperature),
			"rainfall_tenths_mm":   int(r.Rainfall),
			"battery_level":        int(r.BatteryLevel),
			"signal_level":         int(r.SignalLevel),
		}
	case rfx.TemperatureHumidityReading:
		return map[string]any{
			"subtype":              int(r.Subtype),
			"sequence":             int(r.Sequence),
			"sensor_id":            int(r.SensorID),
			"channel":              int(r.Channel),
			"temperature_tenths_c": int(r.Temperature),
			"humidity_percent":     int(r.Humidity),
			"humidity_status":      r.HumidityStatus.String(),
			"battery_level":        int(r.BatteryLevel),
			"signal_level":         int(r.SignalLevel),
		}
	}
	return map[string]any{}
}

// PacketTypeString renders a packet type the way the vendor documents it.
func PacketTypeString(pt byte) string {
	return fmt.Sprintf("0x%02X", pt)
}
