package rfx

import (
	"errors"
	"fmt"
	"strings"
)

// Layout maps temperature/humidity fields to payload offsets (subtype is always
// offset 0). Two-byte fields name the offset of their high byte; the low byte
// follows it. Layouts are never trusted until Calibrate has checked them against
// reference packets decoded by an authoritative tool.
type Layout struct {
	Name           string
	Sequence       int
	Channel        int
	SensorID       int
	Temperature    int
	Humidity       int
	HumidityStatus int
	Status         int
}

// ErrNoReferences is returned when Calibrate is given nothing to check against.
var ErrNoReferences = errors.New("calibration needs at least one reference vector")

type layoutField struct {
	name   string
	offset int
	width  int
}

func (l Layout) fields() []layoutField {
	return []layoutField{
		{"sequence", l.Sequence, 1},
		{"channel", l.Channel, 1},
		{"sensor_id", l.SensorID, 2},
		{"temperature", l.Temperature, 2},
		{"humidity", l.Humidity, 1},
		{"humidity_status", l.HumidityStatus, 1},
		{"status", l.Status, 1},
	}
}

// Span is the number of body bytes the layout reads.
func (l Layout) Span() int {
	span := 1
	for _, f := range l.fields() {
		if end := f.offset + f.width; end > span {
			span = end
		}
	}
	return span
}

// maxPayload is the largest payload a length byte can describe.
const maxPayload = 0xFF - 1

// Validate rejects offsets that would read the subtype byte, run negative or
// reach past the largest possible payload.
func (l Layout) Validate() error {
	var bad []string
	for _, f := range l.fields() {
		if f.offset < 1 || f.offset > maxPayload-f.width {
			bad = append(bad, fmt.Sprintf("%s=%d", f.name, f.offset))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("layout %q: fields must lie within payload bytes 1..%d: %s", l.Name, maxPayload-1, strings.Join(bad, ", "))
	}
	return nil
}

func (l Layout) decode(body []byte) TemperatureHumidityReading {
	battery, signal := splitStatus(body[l.Status])
	return TemperatureHumidityReading{
		Subtype:        body[0],
		Sequence:       body[l.Sequence],
		SensorID:       bigEndian16(body[l.SensorID], body[l.SensorID+1]),
		Channel:        body[l.Channel],
		Temperature:    signedTenths(body[l.Temperature], body[l.Temperature+1]),
		Humidity:       body[l.Humidity],
		HumidityStatus: HumidityStatus(body[l.HumidityStatus] & 0x03),
		BatteryLevel:   battery,
		SignalLevel:    signal,
	}
}

// ReferenceVector is a captured frame together with the reading an authoritative
// decoder (the vendor's tool) reported for it.
type ReferenceVector struct {
	Name   string
	Source string
	Frame  []byte
	Want   TemperatureHumidityReading
}

// FieldMismatch is one field that decoded differently from the reference.
type FieldMismatch struct {
	Field string
	Got   string
	Want  string
}

// VectorResult is the outcome of checking one reference vector.
type VectorResult struct {
	Name       string
	Err        error
	Got        TemperatureHumidityReading
	Mismatches []FieldMismatch
}

// OK reports whether the vector decoded exactly as expected.
func (v VectorResult) OK() bool {
	return v.Err == nil && len(v.Mismatches) == 0
}

// CalibrationReport collects per-vector results for one layout.
type CalibrationReport struct {
	Layout     Layout
	PacketType byte
	Err        error
	Results    []VectorResult
}

// OK reports whether the layout is usable: it is valid, it was checked against at
// least one vector and every vector matched.
func (r CalibrationReport) OK() bool {
	if r.Err != nil || len(r.Results) == 0 {
		return false
	}
	for _, v := range r.Results {
		if !v.OK() {
			return false
		}
	}
	return true
}

// CalibrationError is returned by Calibrate when any reference disagrees.
type CalibrationError struct {
	Report CalibrationReport
}

func (e *CalibrationError) Error() string {
	r := e.Report
	if r.Err != nil {
		return fmt.Sprintf("calibrate %q for packet type 0x%02X: %v", r.Layout.Name, r.PacketType, r.Err)
	}
	var failed []string
	for _, v := range r.Results {
		switch {
		case v.Err != nil:
			failed = append(failed, fmt.Sprintf("%s: %v", v.Name, v.Err))
		case len(v.Mismatches) > 0:
			parts := make([]string, len(v.Mismatches))
			for i, m := range v.Mismatches {
				parts[i] = fmt.Sprintf("%s got %s want %s", m.Field, m.Got, m.Want)
			}
			failed = append(failed, fmt.Sprintf("%s: %s", v.Name, strings.Join(parts, ", ")))
		}
	}
	return fmt.Sprintf("calibrate %q for packet type 0x%02X: %d of %d references failed: %s",
		r.Layout.Name, r.PacketType, len(failed), len(r.Results), strings.Join(failed, "; "))
}

func (e *CalibrationError) Unwrap() error {
	return e.Report.Err
}

// CalibratedLayout is a layout that has decoded every reference vector it was
// checked against. It can only be obtained from Calibrate.
type CalibratedLayout struct {
	packetType byte
	layout     Layout
	references int
}

// PacketType is the packet type the layout was verified for.
func (c CalibratedLayout) PacketType() byte { return c.packetType }

// Layout returns the verified offsets.
func (c CalibratedLayout) Layout() Layout { return c.layout }

// References is how many vectors backed the calibration.
func (c CalibratedLayout) References() int { return c.references }

// Evaluate decodes every reference with layout and reports field-level
// differences. It never fails; use Calibrate to obtain a usable layout.
func Evaluate(packetType byte, layout Layout, refs []ReferenceVector) CalibrationReport {
	report := CalibrationReport{Layout: layout, PacketType: packetType}

	spec, ok := lookupSpec(packetType)
	switch {
	case !ok:
		report.Err = &FrameError{Kind: KindUnknownFamily, PacketType: packetType}
		return report
	case !spec.Calibrated:
		report.Err = fmt.Errorf("packet type 0x%02X (%s) has a fixed layout", packetType, spec.Family)
		return report
	}
	if err := layout.Validate(); err != nil {
		report.Err = err
		return report
	}
	if len(refs) == 0 {
		report.Err = ErrNoReferences
		return report
	}

	for _, ref := range refs {
		report.Results = append(report.Results, evaluateVector(spec, layout, ref))
	}
	return report
}

func evaluateVector(spec PacketSpec, layout Layout, ref ReferenceVector) VectorResult {
	res := VectorResult{Name: ref.Name}

	f, err := Validate(ref.Frame)
	if err != nil {
		res.Err = err
		return res
	}
	if f.PacketType != spec.PacketType {
		res.Err = fmt.Errorf("reference is packet type 0x%02X, calibrating 0x%02X", f.PacketType, spec.PacketType)
		return res
	}
	if _, ok := spec.model(f.Subtype()); !ok {
		res.Err = &FrameError{Kind: KindUnknownFamily, PacketType: f.PacketType, Subtype: f.Subtype(),
			Detail: fmt.Sprintf("subtype 0x%02X", f.Subtype())}
		return res
	}
	body := f.Body()
	if len(body) < layout.Span() {
		res.Err = newFrameError(KindTooShort, f.PacketType,
			"body %d bytes, layout %q reads %d", len(body), layout.Name, layout.Span())
		return res
	}

	res.Got = layout.decode(body)
	res.Mismatches = compareReadings(res.Got, ref.Want)
	return res
}

func compareReadings(got, want TemperatureHumidityReading) []FieldMismatch {
	var out []FieldMismatch
	check := func(field string, g, w any) {
		gs, ws := fmt.Sprint(g), fmt.Sprint(w)
		if gs != ws {
			out = append(out, FieldMismatch{Field: field, Got: gs, Want: ws})
		}
	}
	check("subtype", got.Subtype, want.Subtype)
	check("sequence", got.Sequence, want.Sequence)
	check("sensor_id", got.SensorID, want.SensorID)
	check("channel", got.Channel, want.Channel)
	check("temperature", got.Temperature, want.Temperature)
	check("humidity", got.Humidity, want.Humidity)
	check("humidity_status", got.HumidityStatus, want.HumidityStatus)
	check("battery_level", got.BatteryLevel, want.BatteryLevel)
	check("signal_level", got.SignalLevel, want.SignalLevel)
	return out
}

// Calibrate verifies layout against refs for packetType and, if every vector
// matches, returns a CalibratedLayout for WithCalibratedLayout.
func Calibrate(packetType byte, layout Layout, refs []ReferenceVector) (CalibratedLayout, error) {
	report := Evaluate(packetType, layout, refs)
	if !report.OK() {
		return CalibratedLayout{}, &CalibrationError{Report: report}
	}
	return CalibratedLayout{
		packetType: packetType,
		layout:     layout,
		references: len(refs),
	}, nil
}
