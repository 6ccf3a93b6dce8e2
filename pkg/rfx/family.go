package rfx

import (
	"fmt"
	"slices"
	"strings"
)

// Packet type bytes routed by the dispatcher.
const (
	// PacketTypeInterfaceMessage carries temperature/humidity data from some
	// receivers, wrapped in an interface message that ends with the vendor tag.
	PacketTypeInterfaceMessage byte = 0x01
	// PacketTypeTemperatureRain carries temperature/rainfall sensors.
	PacketTypeTemperatureRain byte = 0x4F
	// PacketTypeTemperatureHumidity carries temperature/humidity sensors.
	PacketTypeTemperatureHumidity byte = 0x52
)

// MinPayload is the smallest payload (bytes after the packet type) that any known
// family can decode.
const MinPayload = 7

// Vendor markers appended by the receiver to interface messages. The shortened
// tag is what some firmware revisions emit.
var (
	vendorMarker      = []byte("RFXCOM")
	vendorMarkerShort = []byte("XCOM")
)

// Family identifies a sensor family.
type Family uint8

const (
	FamilyTemperatureRain Family = iota + 1
	FamilyTemperatureHumidity
)

func (f Family) String() string {
	switch f {
	case FamilyTemperatureRain:
		return "temperature_rain"
	case FamilyTemperatureHumidity:
		return "temperature_humidity"
	default:
		return "unknown"
	}
}

// Measurement is a single physical quantity a family reports.
type Measurement uint8

const (
	Temperature Measurement = 1 << 0
	Humidity    Measurement = 1 << 1
	Rainfall    Measurement = 1 << 2
	Battery     Measurement = 1 << 3
	Signal      Measurement = 1 << 4
)

var measurementOrder = []Measurement{Temperature, Humidity, Rainfall, Battery, Signal}

func (m Measurement) String() string {
	switch m {
	case Temperature:
		return "temperature"
	case Humidity:
		return "humidity"
	case Rainfall:
		return "rainfall"
	case Battery:
		return "battery"
	case Signal:
		return "signal"
	default:
		return "unknown"
	}
}

// Measurements is a bitmask of Measurement values.
type Measurements uint8

// Has reports whether m is in the set.
func (c Measurements) Has(m Measurement) bool {
	return uint8(c)&uint8(m) != 0
}

// List returns the measurements in the set in a stable order.
func (c Measurements) List() []Measurement {
	var out []Measurement
	for _, m := range measurementOrder {
		if c.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

func (c Measurements) String() string {
	list := c.List()
	if len(list) == 0 {
		return "none"
	}
	names := make([]string, len(list))
	for i, m := range list {
		names[i] = m.String()
	}
	return strings.Join(names, ",")
}

// Subtype names a sensor model within a packet type.
type Subtype struct {
	Code  byte
	Model string
}

// PacketSpec is one row of the dispatch table.
type PacketSpec struct {
	PacketType byte
	Family     Family
	Subtypes   []Subtype
	// BodyLen is the minimum payload length, subtype included, excluding any marker.
	BodyLen int
	// Marked families must end with the vendor tag.
	Marked   bool
	Measures Measurements
	// Calibrated families decode only after a layout has been verified against
	// reference packets.
	Calibrated bool
}

func (p PacketSpec) model(subtype byte) (string, bool) {
	for _, s := range p.Subtypes {
		if s.Code == subtype {
			return s.Model, true
		}
	}
	return "", false
}

// minPayload is the structural minimum including the shortest accepted marker.
func (p PacketSpec) minPayload() int {
	if p.Marked {
		return p.BodyLen + len(vendorMarkerShort)
	}
	return p.BodyLen
}

const thMeasures = Measurements(uint8(Temperature) | uint8(Humidity) | uint8(Battery) | uint8(Signal))

var packetSpecs = []PacketSpec{
	{
		PacketType: PacketTypeTemperatureRain,
		Family:     FamilyTemperatureRain,
		Subtypes:   []Subtype{{Code: 0x01, Model: "WS1200"}},
		BodyLen:    9,
		Measures:   Measurements(uint8(Temperature) | uint8(Rainfall) | uint8(Battery) | uint8(Signal)),
	},
	{
		PacketType: PacketTypeInterfaceMessage,
		Family:     FamilyTemperatureHumidity,
		Subtypes:   []Subtype{{Code: 0x00, Model: "TH13/WS1700"}},
		BodyLen:    9,
		Marked:     true,
		Measures:   thMeasures,
		Calibrated: true,
	},
	{
		PacketType: PacketTypeTemperatureHumidity,
		Family:     FamilyTemperatureHumidity,
		Subtypes:   []Subtype{{Code: 0x0D, Model: "TH13/WS1700"}},
		BodyLen:    9,
		Measures:   thMeasures,
		Calibrated: true,
	},
}

func lookupSpec(packetType byte) (PacketSpec, bool) {
	for _, s := range packetSpecs {
		if s.PacketType == packetType {
			return s, true
		}
	}
	return PacketSpec{}, false
}

// Families returns a copy of the dispatch table.
func Families() []PacketSpec {
	out := make([]PacketSpec, len(packetSpecs))
	for i, s := range packetSpecs {
		s.Subtypes = slices.Clone(s.Subtypes)
		out[i] = s
	}
	return out
}

// Spec returns the dispatch table row for packetType.
func Spec(packetType byte) (PacketSpec, error) {
	s, ok := lookupSpec(packetType)
	if !ok {
		return PacketSpec{}, fmt.Errorf("no family for packet type 0x%02X", packetType)
	}
	s.Subtypes = slices.Clone(s.Subtypes)
	return s, nil
}
