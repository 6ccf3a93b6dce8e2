package config

import (
	"errors"
	"fmt"

	"github.com/chrissnell/rfxweather/pkg/rfx"
)

// RFXLayout converts the stored offsets into an rfx.Layout.
func (c CalibrationData) RFXLayout() rfx.Layout {
	return rfx.Layout{
		Name:           c.Name,
		Sequence:       c.Layout.Sequence,
		Channel:        c.Layout.Channel,
		SensorID:       c.Layout.SensorID,
		Temperature:    c.Layout.Temperature,
		Humidity:       c.Layout.Humidity,
		HumidityStatus: c.Layout.HumidityStatus,
		Status:         c.Layout.Status,
	}
}

// ReferenceVectors parses every reference frame and expected reading.
func (c CalibrationData) ReferenceVectors() ([]rfx.ReferenceVector, error) {
	refs := make([]rfx.ReferenceVector, 0, len(c.References))
	for i, r := range c.References {
		v, err := r.vector()
		if err != nil {
			return nil, fmt.Errorf("calibration %q reference %d (%s): %w", c.Name, i, r.Name, err)
		}
		refs = append(refs, v)
	}
	return refs, nil
}

func (r ReferenceData) vector() (rfx.ReferenceVector, error) {
	raw, err := rfx.ParseHex(r.Frame)
	if err != nil {
		return rfx.ReferenceVector{}, err
	}

	e := r.Expect
	status := rfx.HumidityNormal
	if e.HumidityStatus != "" {
		if status, err = rfx.ParseHumidityStatus(e.HumidityStatus); err != nil {
			return rfx.ReferenceVector{}, err
		}
	}

	var errs []error
	byteField := func(name string, v int) uint8 {
		if v < 0 || v > 0xFF {
			errs = append(errs, fmt.Errorf("%s %d out of range", name, v))
		}
		return uint8(v)
	}
	nibbleField := func(name string, v int) uint8 {
		if v < 0 || v > 0x0F {
			errs = append(errs, fmt.Errorf("%s %d out of range", name, v))
		}
		return uint8(v)
	}
	if e.SensorID < 0 || e.SensorID > 0xFFFF {
		errs = append(errs, fmt.Errorf("sensor_id %d out of range", e.SensorID))
	}
	if e.TemperatureTenthsC < -0x7FFF || e.TemperatureTenthsC > 0x7FFF {
		errs = append(errs, fmt.Errorf("temperature_tenths_c %d out of range", e.TemperatureTenthsC))
	}

	want := rfx.TemperatureHumidityReading{
		Subtype:        byteField("subtype", e.Subtype),
		Sequence:       byteField("sequence", e.Sequence),
		SensorID:       uint16(e.SensorID),
		Channel:        byteField("channel", e.Channel),
		Temperature:    rfx.TenthsCelsius(e.TemperatureTenthsC),
		Humidity:       byteField("humidity_percent", e.HumidityPercent),
		HumidityStatus: status,
		BatteryLevel:   nibbleField("battery_level", e.BatteryLevel),
		SignalLevel:    nibbleField("signal_level", e.SignalLevel),
	}
	if err := errors.Join(errs...); err != nil {
		return rfx.ReferenceVector{}, err
	}

	return rfx.ReferenceVector{Name: r.Name, Source: r.Source, Frame: raw, Want: want}, nil
}

func (c CalibrationData) packetType() (byte, error) {
	if c.PacketType < 0 || c.PacketType > 0xFF {
		return 0, fmt.Errorf("calibration %q: packet_type %d out of range", c.Name, c.PacketType)
	}
	return byte(c.PacketType), nil
}

// Evaluate checks the layout against its references without requiring success.
func (c CalibrationData) Evaluate() (rfx.CalibrationReport, error) {
	pt, err := c.packetType()
	if err != nil {
		return rfx.CalibrationReport{}, err
	}
	refs, err := c.ReferenceVectors()
	if err != nil {
		return rfx.CalibrationReport{}, err
	}
	return rfx.Evaluate(pt, c.RFXLayout(), refs), nil
}

// Calibrate verifies the layout and returns it ready for rfx.WithCalibratedLayout.
func (c CalibrationData) Calibrate() (rfx.CalibratedLayout, error) {
	pt, err := c.packetType()
	if err != nil {
		return rfx.CalibratedLayout{}, err
	}
	refs, err := c.ReferenceVectors()
	if err != nil {
		return rfx.CalibratedLayout{}, err
	}
	return rfx.Calibrate(pt, c.RFXLayout(), refs)
}

// DecoderOptions calibrates every enabled entry. Any failure is returned so
// that startup stops instead of running with a layout nobody verified.
func DecoderOptions(calibrations []CalibrationData) ([]rfx.Option, error) {
	var opts []rfx.Option
	seen := make(map[int]string)
	for _, c := range calibrations {
		if !c.Enabled {
			continue
		}
		if prev, ok := seen[c.PacketType]; ok {
			return nil, fmt.Errorf("calibrations %q and %q are both enabled for packet type 0x%02X", prev, c.Name, c.PacketType)
		}
		seen[c.PacketType] = c.Name

		cl, err := c.Calibrate()
		if err != nil {
			return nil, err
		}
		opts = append(opts, rfx.WithCalibratedLayout(cl))
	}
	return opts, nil
}
