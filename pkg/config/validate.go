package config

import (
	"errors"
	"fmt"
)

// Validate checks names, types and required fields across every section.
// Calibration layouts themselves are checked by Calibrate, not here.
func (c *ConfigData) Validate() error {
	var errs []error

	names := make(map[string]bool)
	for _, cal := range c.Calibrations {
		if cal.Name == "" {
			errs = append(errs, errors.New("calibration with empty name"))
			continue
		}
		if names[cal.Name] {
			errs = append(errs, fmt.Errorf("duplicate calibration name %q", cal.Name))
		}
		names[cal.Name] = true
	}

	names = make(map[string]bool)
	for _, src := range c.Sources {
		if names[src.Name] {
			errs = append(errs, fmt.Errorf("duplicate source name %q", src.Name))
		}
		names[src.Name] = true

		switch src.Type {
		case SourceTypeMQTT:
			if src.MQTT == nil || src.MQTT.Broker == "" || src.MQTT.Topic == "" {
				errs = append(errs, fmt.Errorf("source %q: mqtt broker and topic are required", src.Name))
				continue
			}
			switch src.MQTT.Encoding {
			case "", "binary", "hex":
			default:
				errs = append(errs, fmt.Errorf("source %q: unknown encoding %q", src.Name, src.MQTT.Encoding))
			}
			if src.MQTT.QoS < 0 || src.MQTT.QoS > 2 {
				errs = append(errs, fmt.Errorf("source %q: qos must be 0, 1 or 2", src.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("source %q: unknown type %q", src.Name, src.Type))
		}
	}

	names = make(map[string]bool)
	for _, sink := range c.Sinks {
		if names[sink.Name] {
			errs = append(errs, fmt.Errorf("duplicate sink name %q", sink.Name))
		}
		names[sink.Name] = true

		switch sink.Type {
		case SinkTypeLog:
		case SinkTypeMQTT:
			if sink.MQTT == nil || sink.MQTT.Broker == "" {
				errs = append(errs, fmt.Errorf("sink %q: mqtt broker is required", sink.Name))
				continue
			}
			switch sink.MQTT.Format {
			case "", "json", "msgpack":
			default:
				errs = append(errs, fmt.Errorf("sink %q: unknown format %q", sink.Name, sink.MQTT.Format))
			}
			if sink.MQTT.QoS < 0 || sink.MQTT.QoS > 2 {
				errs = append(errs, fmt.Errorf("sink %q: qos must be 0, 1 or 2", sink.Name))
			}
		default:
			errs = append(errs, fmt.Errorf("sink %q: unknown type %q", sink.Name, sink.Type))
		}
	}

	for _, ctrl := range c.Controllers {
		switch ctrl.Type {
		case ControllerTypeREST:
			if ctrl.RESTServer == nil {
				errs = append(errs, errors.New("rest controller has no settings"))
				continue
			}
			if (ctrl.RESTServer.Cert == "") != (ctrl.RESTServer.Key == "") {
				errs = append(errs, errors.New("rest controller: cert and key must be set together"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown controller type %q", ctrl.Type))
		}
	}

	return errors.Join(errs...)
}
