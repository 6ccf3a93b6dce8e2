// Package rfx decodes length-delimited telemetry frames from RFXCOM-style
// 433 MHz receivers into typed weather readings.
//
// A frame is laid out as
//
//	+--------+-------------+----------------------------+
//	| length | packet type | payload (subtype, fields)  |
//	+--------+-------------+----------------------------+
//
// where length counts every byte after itself. Decode validates the frame,
// routes it by packet type and subtype, and returns a TemperatureRainReading or
// a TemperatureHumidityReading. Failures are *FrameError values matching one of
// ErrTooShort, ErrLengthMismatch, ErrBadMarker, ErrUnknownFamily or
// ErrUnsupportedFamily.
//
// Temperature/humidity frames only decode once a Layout has been checked with
// Calibrate against packets decoded by the vendor's own tooling:
//
//	cl, err := rfx.Calibrate(rfx.PacketTypeTemperatureHumidity, layout, refs)
//	if err != nil {
//		return err
//	}
//	dec := rfx.NewDecoder(rfx.WithCalibratedLayout(cl))
//
// The package does no I/O and keeps no state between calls.
package rfx
