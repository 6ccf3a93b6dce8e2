package rfx

import (
	"fmt"
	"strconv"
)

// Reading is the decoded result of a single frame. The set of implementations is
// closed: TemperatureRainReading and TemperatureHumidityReading.
type Reading interface {
	Family() Family
	Sensor() uint16
	isReading()
}

// TenthsCelsius is a temperature in tenths of a degree Celsius, as carried on the wire.
type TenthsCelsius int16

// Celsius returns the temperature in whole degrees.
func (t TenthsCelsius) Celsius() float64 {
	return float64(t) / 10
}

func (t TenthsCelsius) String() string {
	return tenthsString(int(t)) + "°C"
}

// TenthsMillimetre is a rainfall total in tenths of a millimetre.
type TenthsMillimetre uint16

// Millimetres returns the rainfall in whole millimetres.
func (r TenthsMillimetre) Millimetres() float64 {
	return float64(r) / 10
}

func (r TenthsMillimetre) String() string {
	return tenthsString(int(r)) + "mm"
}

func tenthsString(v int) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + strconv.Itoa(v/10) + "." + strconv.Itoa(v%10)
}

// HumidityStatus is the vendor's 2-bit comfort classification.
type HumidityStatus uint8

const (
	HumidityNormal      HumidityStatus = 0x00
	HumidityComfortable HumidityStatus = 0x01
	HumidityDry         HumidityStatus = 0x02
	HumidityWet         HumidityStatus = 0x03
)

var humidityStatusNames = [4]string{"normal", "comfortable", "dry", "wet"}

func (h HumidityStatus) String() string {
	if int(h) < len(humidityStatusNames) {
		return humidityStatusNames[h]
	}
	return fmt.Sprintf("humidity_status(%d)", uint8(h))
}

// MarshalText renders the status by name so JSON output stays readable.
func (h HumidityStatus) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (h *HumidityStatus) UnmarshalText(b []byte) error {
	v, err := ParseHumidityStatus(string(b))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// ParseHumidityStatus maps a status name back to its value.
func ParseHumidityStatus(s string) (HumidityStatus, error) {
	for i, name := range humidityStatusNames {
		if name == s {
			return HumidityStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown humidity status %q", s)
}

// TemperatureRainReading is produced by temperature/rainfall sensors.
type TemperatureRainReading struct {
	Subtype      uint8            `json:"subtype"`
	Sequence     uint8            `json:"sequence"`
	SensorID     uint16           `json:"sensor_id"`
	Temperature  TenthsCelsius    `json:"temperature_tenths_c"`
	Rainfall     TenthsMillimetre `json:"rainfall_tenths_mm"`
	BatteryLevel uint8            `json:"battery_level"`
	SignalLevel  uint8            `json:"signal_level"`
}

func (TemperatureRainReading) Family() Family   { return FamilyTemperatureRain }
func (r TemperatureRainReading) Sensor() uint16 { return r.SensorID }
func (TemperatureRainReading) isReading()       {}

// TemperatureHumidityReading is produced by temperature/humidity sensors.
type TemperatureHumidityReading struct {
	Subtype        uint8          `json:"subtype"`
	Sequence       uint8          `json:"sequence"`
	SensorID       uint16         `json:"sensor_id"`
	Channel        uint8          `json:"channel"`
	Temperature    TenthsCelsius  `json:"temperature_tenths_c"`
	Humidity       uint8          `json:"humidity_percent"`
	HumidityStatus HumidityStatus `json:"humidity_status"`
	BatteryLevel   uint8          `json:"battery_level"`
	SignalLevel    uint8          `json:"signal_level"`
}

func (TemperatureHumidityReading) Family() Family   { return FamilyTemperatureHumidity }
func (r TemperatureHumidityReading) Sensor() uint16 { return r.SensorID }
func (TemperatureHumidityReading) isReading()       {}

// signedTenths decodes the sign-magnitude temperature encoding shared by every
// family: bit 7 of hi is the sign, the remaining 15 bits are the magnitude.
func signedTenths(hi, lo byte) TenthsCelsius {
	magnitude := int16(hi&0x7F)<<8 | int16(lo)
	if hi&0x80 != 0 {
		return TenthsCelsius(-magnitude)
	}
	return TenthsCelsius(magnitude)
}

// splitStatus splits the combined status byte into battery (low nibble) and
// signal (high nibble).
func splitStatus(b byte) (battery, signal uint8) {
	return b & 0x0F, b >> 4
}

func bigEndian16(hi, lo byte) uint16 {
	return uint16(hi)<<8 | uint16(lo)
}
