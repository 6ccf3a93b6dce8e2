package rfx

import "fmt"

// Result is what Decode hands back to the caller. PacketType is set whenever the
// frame carried one, including when decoding failed.
type Result struct {
	PacketType byte
	Family     Family
	Model      string
	Reading    Reading
}

// fieldDecoder turns a validated frame body into a reading. Bodies are at least
// as long as the route requires.
type fieldDecoder func(body []byte) Reading

type route struct {
	spec   PacketSpec
	decode fieldDecoder
	// need is the body length the decoder reads.
	need int
}

// Decoder validates frames and routes them to per-family field decoders. The
// routing table is built by NewDecoder and never changes, so a Decoder can be
// shared between goroutines.
type Decoder struct {
	routes map[byte]route
}

// Option configures a Decoder.
type Option func(*decoderOptions)

type decoderOptions struct {
	layouts map[byte]CalibratedLayout
}

// WithCalibratedLayout enables a temperature/humidity route using a layout that
// has passed Calibrate. A later option for the same packet type replaces an
// earlier one.
func WithCalibratedLayout(cl CalibratedLayout) Option {
	return func(o *decoderOptions) {
		if cl.references == 0 {
			return
		}
		o.layouts[cl.packetType] = cl
	}
}

// NewDecoder builds the dispatch table. Families that need a calibrated layout
// and are not given one decode to ErrUnsupportedFamily.
func NewDecoder(opts ...Option) *Decoder {
	o := decoderOptions{layouts: make(map[byte]CalibratedLayout)}
	for _, opt := range opts {
		opt(&o)
	}

	d := &Decoder{routes: make(map[byte]route, len(packetSpecs))}
	for _, spec := range Families() {
		r := route{spec: spec}
		switch {
		case spec.Family == FamilyTemperatureRain:
			r.decode, r.need = decodeTemperatureRain, temperatureRainBodyLen
		case spec.Calibrated:
			if cl, ok := o.layouts[spec.PacketType]; ok {
				r.decode, r.need = temperatureHumidityDecoder(cl.layout), cl.layout.Span()
			}
		}
		d.routes[spec.PacketType] = r
	}
	return d
}

// Supported reports whether frames of packetType currently decode to readings.
func (d *Decoder) Supported(packetType byte) bool {
	r, ok := d.routes[packetType]
	return ok && r.decode != nil
}

// Decode validates raw and decodes it into a Reading. raw is not retained.
func (d *Decoder) Decode(raw []byte) (Result, error) {
	f, err := Validate(raw)
	if err != nil {
		return Result{PacketType: f.PacketType}, err
	}
	res := Result{PacketType: f.PacketType}

	r, ok := d.routes[f.PacketType]
	if !ok {
		return res, &FrameError{
			Kind:       KindUnknownFamily,
			PacketType: f.PacketType,
			Subtype:    f.Subtype(),
			Detail:     "no family for this packet type",
		}
	}
	model, ok := r.spec.model(f.Subtype())
	if !ok {
		return res, &FrameError{
			Kind:       KindUnknownFamily,
			PacketType: f.PacketType,
			Subtype:    f.Subtype(),
			Detail:     fmt.Sprintf("%s has no subtype 0x%02X", r.spec.Family, f.Subtype()),
		}
	}
	res.Family = r.spec.Family
	res.Model = model

	if r.decode == nil {
		return res, &FrameError{
			Kind:       KindUnsupportedFamily,
			PacketType: f.PacketType,
			Subtype:    f.Subtype(),
			Detail:     fmt.Sprintf("%s field layout is not calibrated", r.spec.Family),
		}
	}

	body := f.Body()
	if len(body) < r.need {
		return res, &FrameError{
			Kind:       KindTooShort,
			PacketType: f.PacketType,
			Subtype:    f.Subtype(),
			Detail:     fmt.Sprintf("body %d bytes, decoder reads %d", len(body), r.need),
		}
	}
	res.Reading = r.decode(body)
	return res, nil
}

// DecodeHex is Decode for frames written as hex text.
func (d *Decoder) DecodeHex(s string) (Result, error) {
	raw, err := ParseHex(s)
	if err != nil {
		return Result{}, err
	}
	return d.Decode(raw)
}
