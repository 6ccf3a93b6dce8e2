package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetCalibrations() ([]CalibrationData, error)
	GetSources() ([]SourceData, error)
	GetSinks() ([]SinkData, error)
	GetControllers() ([]ControllerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Calibrations []CalibrationData `json:"calibrations,omitempty"`
	Sources      []SourceData      `json:"sources,omitempty"`
	Sinks        []SinkData        `json:"sinks,omitempty"`
	Controllers  []ControllerData  `json:"controllers,omitempty"`
}

// CalibrationData is a candidate field layout for a temperature/humidity packet
// type plus the reference packets it must reproduce. Only enabled calibrations
// are loaded into the decoder; the rest are evaluated by the calibrate command.
type CalibrationData struct {
	Name       string          `json:"name"`
	PacketType int             `json:"packet_type"`
	Enabled    bool            `json:"enabled"`
	Layout     LayoutData      `json:"layout"`
	References []ReferenceData `json:"references,omitempty"`
}

// LayoutData holds payload offsets. Two-byte fields name their high byte.
type LayoutData struct {
	Sequence       int `json:"sequence"`
	Channel        int `json:"channel"`
	SensorID       int `json:"sensor_id"`
	Temperature    int `json:"temperature"`
	Humidity       int `json:"humidity"`
	HumidityStatus int `json:"humidity_status"`
	Status         int `json:"status"`
}

// ReferenceData is one captured frame and the reading the vendor tool showed.
type ReferenceData struct {
	Name   string       `json:"name"`
	Source string       `json:"source,omitempty"`
	Frame  string       `json:"frame"`
	Expect ExpectedData `json:"expect"`
}

// ExpectedData is the authoritative decode of a reference frame.
type ExpectedData struct {
	Subtype            int    `json:"subtype"`
	Sequence           int    `json:"sequence"`
	SensorID           int    `json:"sensor_id"`
	Channel            int    `json:"channel"`
	TemperatureTenthsC int    `json:"temperature_tenths_c"`
	HumidityPercent    int    `json:"humidity_percent"`
	HumidityStatus     string `json:"humidity_status"`
	BatteryLevel       int    `json:"battery_level"`
	SignalLevel        int    `json:"signal_level"`
}

// SourceData describes where delimited frames come from
type SourceData struct {
	Name string          `json:"name"`
	Type string          `json:"type"`
	MQTT *MQTTSourceData `json:"mqtt,omitempty"`
}

// MQTTSourceData subscribes to a topic carrying one frame per message
type MQTTSourceData struct {
	Broker   string `json:"broker"`
	ClientID string `json:"client_id,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Topic    string `json:"topic"`
	QoS      int    `json:"qos,omitempty"`
	// Encoding is "binary" (raw bytes) or "hex" (hex text).
	Encoding string `json:"encoding,omitempty"`
}

// SinkData describes a consumer of decoded readings
type SinkData struct {
	Name string        `json:"name"`
	Type string        `json:"type"`
	MQTT *MQTTSinkData `json:"mqtt,omitempty"`
}

// MQTTSinkData publishes each reading to <topic_prefix>/<family>/<sensor id>
type MQTTSinkData struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	TopicPrefix string `json:"topic_prefix,omitempty"`
	QoS         int    `json:"qos,omitempty"`
	Retain      bool   `json:"retain,omitempty"`
	// Format is "json" or "msgpack".
	Format string `json:"format,omitempty"`
}

// ControllerData holds the configuration for various controller backends
type ControllerData struct {
	Type       string          `json:"type,omitempty"`
	RESTServer *RESTServerData `json:"rest,omitempty"`
}

type RESTServerData struct {
	Cert       string `json:"cert,omitempty"`
	Key        string `json:"key,omitempty"`
	Port       int    `json:"port,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty"`
	EnableCORS bool   `json:"enable_cors,omitempty"`
}

// Source, sink and controller type names.
const (
	SourceTypeMQTT     = "mqtt"
	SinkTypeLog        = "log"
	SinkTypeMQTT       = "mqtt"
	ControllerTypeREST = "rest"
)
