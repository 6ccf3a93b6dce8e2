package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseYAML(cfgFile)
	if err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// ParseYAML decodes a YAML document into ConfigData. Calibration files handed
// to the CLI use the same format with only the calibrations section present.
func ParseYAML(data []byte) (*ConfigData, error) {
	var yamlConfig struct {
		Calibrations []CalibrationYAML `yaml:"calibrations,omitempty"`
		Sources      []SourceYAML      `yaml:"sources,omitempty"`
		Sinks        []SinkYAML        `yaml:"sinks,omitempty"`
		Controllers  []ControllerYAML  `yaml:"controllers,omitempty"`
	}

	if err := yaml.UnmarshalStrict(data, &yamlConfig); err != nil {
		return nil, err
	}

	config := &ConfigData{
		Calibrations: make([]CalibrationData, len(yamlConfig.Calibrations)),
		Sources:      make([]SourceData, len(yamlConfig.Sources)),
		Sinks:        make([]SinkData, len(yamlConfig.Sinks)),
		Controllers:  make([]ControllerData, len(yamlConfig.Controllers)),
	}

	for i, c := range yamlConfig.Calibrations {
		config.Calibrations[i] = CalibrationData{
			Name:       c.Name,
			PacketType: c.PacketType,
			Enabled:    c.Enabled,
			Layout: LayoutData{
				Sequence:       c.Layout.Sequence,
				Channel:        c.Layout.Channel,
				SensorID:       c.Layout.SensorID,
				Temperature:    c.Layout.Temperature,
				Humidity:       c.Layout.Humidity,
				HumidityStatus: c.Layout.HumidityStatus,
				Status:         c.Layout.Status,
			},
		}
		for _, r := range c.References {
			config.Calibrations[i].References = append(config.Calibrations[i].References, ReferenceData{
				Name:   r.Name,
				Source: r.Source,
				Frame:  r.Frame,
				Expect: ExpectedData{
					Subtype:            r.Expect.Subtype,
					Sequence:           r.Expect.Sequence,
					SensorID:           r.Expect.SensorID,
					Channel:            r.Expect.Channel,
					TemperatureTenthsC: r.Expect.TemperatureTenthsC,
					HumidityPercent:    r.Expect.HumidityPercent,
					HumidityStatus:     r.Expect.HumidityStatus,
					BatteryLevel:       r.Expect.BatteryLevel,
					SignalLevel:        r.Expect.SignalLevel,
				},
			})
		}
	}

	for i, s := range yamlConfig.Sources {
		config.Sources[i] = SourceData{Name: s.Name, Type: s.Type}
		if s.MQTT != nil {
			config.Sources[i].MQTT = &MQTTSourceData{
				Broker:   s.MQTT.Broker,
				ClientID: s.MQTT.ClientID,
				Username: s.MQTT.Username,
				Password: s.MQTT.Password,
				Topic:    s.MQTT.Topic,
				QoS:      s.MQTT.QoS,
				Encoding: s.MQTT.Encoding,
			}
		}
	}

	for i, s := range yamlConfig.Sinks {
		config.Sinks[i] = SinkData{Name: s.Name, Type: s.Type}
		if s.MQTT != nil {
			config.Sinks[i].MQTT = &MQTTSinkData{
				Broker:      s.MQTT.Broker,
				ClientID:    s.MQTT.ClientID,
				Username:    s.MQTT.Username,
				Password:    s.MQTT.Password,
				TopicPrefix: s.MQTT.TopicPrefix,
				QoS:         s.MQTT.QoS,
				Retain:      s.MQTT.Retain,
				Format:      s.MQTT.Format,
			}
		}
	}

	for i, controller := range yamlConfig.Controllers {
		config.Controllers[i] = ControllerData{
			Type: controller.Type,
		}

		if controller.RESTServer != nil {
			config.Controllers[i].RESTServer = &RESTServerData{
				Cert:       controller.RESTServer.Cert,
				Key:        controller.RESTServer.Key,
				Port:       controller.RESTServer.Port,
				ListenAddr: controller.RESTServer.ListenAddr,
				EnableCORS: controller.RESTServer.EnableCORS,
			}
		}
	}

	return config, nil
}

func (y *YAMLProvider) loaded() (*ConfigData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config, nil
}

// GetCalibrations returns calibration entries
func (y *YAMLProvider) GetCalibrations() ([]CalibrationData, error) {
	config, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return config.Calibrations, nil
}

// GetSources returns frame source configurations
func (y *YAMLProvider) GetSources() ([]SourceData, error) {
	config, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return config.Sources, nil
}

// GetSinks returns reading sink configurations
func (y *YAMLProvider) GetSinks() ([]SinkData, error) {
	config, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return config.Sinks, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	config, err := y.loaded()
	if err != nil {
		return nil, err
	}
	return config.Controllers, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with the file's kebab-case keys
type CalibrationYAML struct {
	Name       string          `yaml:"name"`
	PacketType int             `yaml:"packet-type"`
	Enabled    bool            `yaml:"enabled,omitempty"`
	Layout     LayoutYAML      `yaml:"layout"`
	References []ReferenceYAML `yaml:"references,omitempty"`
}

type LayoutYAML struct {
	Sequence       int `yaml:"sequence"`
	Channel        int `yaml:"channel"`
	SensorID       int `yaml:"sensor-id"`
	Temperature    int `yaml:"temperature"`
	Humidity       int `yaml:"humidity"`
	HumidityStatus int `yaml:"humidity-status"`
	Status         int `yaml:"status"`
}

type ReferenceYAML struct {
	Name   string       `yaml:"name"`
	Source string       `yaml:"source,omitempty"`
	Frame  string       `yaml:"frame"`
	Expect ExpectedYAML `yaml:"expect"`
}

type ExpectedYAML struct {
	Subtype            int    `yaml:"subtype"`
	Sequence           int    `yaml:"sequence"`
	SensorID           int    `yaml:"sensor-id"`
	Channel            int    `yaml:"channel"`
	TemperatureTenthsC int    `yaml:"temperature-tenths-c"`
	HumidityPercent    int    `yaml:"humidity-percent"`
	HumidityStatus     string `yaml:"humidity-status,omitempty"`
	BatteryLevel       int    `yaml:"battery-level"`
	SignalLevel        int    `yaml:"signal-level"`
}

type SourceYAML struct {
	Name string          `yaml:"name"`
	Type string          `yaml:"type"`
	MQTT *MQTTSourceYAML `yaml:"mqtt,omitempty"`
}

type MQTTSourceYAML struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client-id,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Topic    string `yaml:"topic"`
	QoS      int    `yaml:"qos,omitempty"`
	Encoding string `yaml:"encoding,omitempty"`
}

type SinkYAML struct {
	Name string        `yaml:"name"`
	Type string        `yaml:"type"`
	MQTT *MQTTSinkYAML `yaml:"mqtt,omitempty"`
}

type MQTTSinkYAML struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client-id,omitempty"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic-prefix,omitempty"`
	QoS         int    `yaml:"qos,omitempty"`
	Retain      bool   `yaml:"retain,omitempty"`
	Format      string `yaml:"format,omitempty"`
}

type ControllerYAML struct {
	Type       string          `yaml:"type,omitempty"`
	RESTServer *RESTServerYAML `yaml:"rest,omitempty"`
}

type RESTServerYAML struct {
	Cert       string `yaml:"cert,omitempty"`
	Key        string `yaml:"key,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	ListenAddr string `yaml:"listen-addr,omitempty"`
	EnableCORS bool   `yaml:"enable-cors,omitempty"`
}
