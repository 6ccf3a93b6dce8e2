package rfx

// temperatureHumidityDecoder binds a calibrated layout to the field decoder
// signature. The layout is copied so the route cannot change after construction.
func temperatureHumidityDecoder(l Layout) fieldDecoder {
	return func(body []byte) Reading {
		return l.decode(body)
	}
}
