package rfx

// Temperature/rain body offsets.
const (
	trSubtype     = 0
	trSequence    = 1
	trSensorID    = 2
	trTemperature = 4
	trRainfall    = 6
	trStatus      = 8

	temperatureRainBodyLen = 9
)

// decodeTemperatureRain is total over any body of at least temperatureRainBodyLen bytes.
func decodeTemperatureRain(body []byte) Reading {
	battery, signal := splitStatus(body[trStatus])
	return TemperatureRainReading{
		Subtype:      body[trSubtype],
		Sequence:     body[trSequence],
		SensorID:     bigEndian16(body[trSensorID], body[trSensorID+1]),
		Temperature:  signedTenths(body[trTemperature], body[trTemperature+1]),
		Rainfall:     TenthsMillimetre(bigEndian16(body[trRainfall], body[trRainfall+1])),
		BatteryLevel: battery,
		SignalLevel:  signal,
	}
}
