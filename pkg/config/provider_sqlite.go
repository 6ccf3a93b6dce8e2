package config

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/chrissnell/rfxweather/pkg/migrate"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// NewSchemaMigrator returns a migrator for the configuration schema embedded in
// this package.
func NewSchemaMigrator(db *sql.DB, logger *zap.SugaredLogger) *migrate.Migrator {
	return migrate.NewMigrator(db, migrate.NewFSProvider(migrationFS, "migrations", "config_migrations"), logger)
}

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens dbPath, creating it if needed, and brings its schema
// up to date. logger may be nil.
func NewSQLiteProvider(dbPath string, logger *zap.SugaredLogger) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if err := NewSchemaMigrator(db, logger).MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate config schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}
	var err error

	if config.Calibrations, err = s.GetCalibrations(); err != nil {
		return nil, fmt.Errorf("failed to load calibrations: %w", err)
	}
	if config.Sources, err = s.GetSources(); err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}
	if config.Sinks, err = s.GetSinks(); err != nil {
		return nil, fmt.Errorf("failed to load sinks: %w", err)
	}
	if config.Controllers, err = s.GetControllers(); err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}

	return config, nil
}

// GetCalibrations returns calibration entries with their reference vectors
func (s *SQLiteProvider) GetCalibrations() ([]CalibrationData, error) {
	rows, err := s.db.Query(`
		SELECT id, name, packet_type, enabled,
		       sequence_offset, channel_offset, sensor_id_offset, temperature_offset,
		       humidity_offset, humidity_status_offset, status_offset
		FROM calibrations
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query calibrations: %w", err)
	}
	defer rows.Close()

	var calibrations []CalibrationData
	var ids []int64
	for rows.Next() {
		var c CalibrationData
		var id int64
		err := rows.Scan(
			&id, &c.Name, &c.PacketType, &c.Enabled,
			&c.Layout.Sequence, &c.Layout.Channel, &c.Layout.SensorID, &c.Layout.Temperature,
			&c.Layout.Humidity, &c.Layout.HumidityStatus, &c.Layout.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calibration row: %w", err)
		}
		calibrations = append(calibrations, c)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read calibrations: %w", err)
	}

	for i, id := range ids {
		refs, err := s.getReferences(id)
		if err != nil {
			return nil, fmt.Errorf("calibration %q: %w", calibrations[i].Name, err)
		}
		calibrations[i].References = refs
	}

	return calibrations, nil
}

func (s *SQLiteProvider) getReferences(calibrationID int64) ([]ReferenceData, error) {
	rows, err := s.db.Query(`
		SELECT name, source, frame_hex, subtype, sequence, sensor_id, channel,
		       temperature_tenths_c, humidity_percent, humidity_status,
		       battery_level, signal_level
		FROM reference_vectors
		WHERE calibration_id = ?
		ORDER BY position
	`, calibrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference vectors: %w", err)
	}
	defer rows.Close()

	var refs []ReferenceData
	for rows.Next() {
		var r ReferenceData
		var source, humidityStatus sql.NullString
		err := rows.Scan(
			&r.Name, &source, &r.Frame, &r.Expect.Subtype, &r.Expect.Sequence,
			&r.Expect.SensorID, &r.Expect.Channel, &r.Expect.TemperatureTenthsC,
			&r.Expect.HumidityPercent, &humidityStatus,
			&r.Expect.BatteryLevel, &r.Expect.SignalLevel,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reference vector row: %w", err)
		}
		if source.Valid {
			r.Source = source.String
		}
		if humidityStatus.Valid {
			r.Expect.HumidityStatus = humidityStatus.String
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// GetSources returns frame source configurations from the database
func (s *SQLiteProvider) GetSources() ([]SourceData, error) {
	rows, err := s.db.Query(`
		SELECT name, type, mqtt_broker, mqtt_client_id, mqtt_username, mqtt_password,
		       mqtt_topic, mqtt_qos, mqtt_encoding
		FROM sources
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	var sources []SourceData
	for rows.Next() {
		var src SourceData
		var broker, clientID, username, password, topic, encoding sql.NullString
		var qos sql.NullInt64

		err := rows.Scan(&src.Name, &src.Type, &broker, &clientID, &username, &password, &topic, &qos, &encoding)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}

		if broker.Valid {
			src.MQTT = &MQTTSourceData{
				Broker:   broker.String,
				ClientID: clientID.String,
				Username: username.String,
				Password: password.String,
				Topic:    topic.String,
				QoS:      int(qos.Int64),
				Encoding: encoding.String,
			}
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// GetSinks returns reading sink configurations from the database
func (s *SQLiteProvider) GetSinks() ([]SinkData, error) {
	rows, err := s.db.Query(`
		SELECT name, type, mqtt_broker, mqtt_client_id, mqtt_username, mqtt_password,
		       mqtt_topic_prefix, mqtt_qos, mqtt_retain, mqtt_format
		FROM sinks
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sinks: %w", err)
	}
	defer rows.Close()

	var sinks []SinkData
	for rows.Next() {
		var sink SinkData
		var broker, clientID, username, password, prefix, format sql.NullString
		var qos sql.NullInt64
		var retain sql.NullBool

		err := rows.Scan(&sink.Name, &sink.Type, &broker, &clientID, &username, &password, &prefix, &qos, &retain, &format)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sink row: %w", err)
		}

		if broker.Valid {
			sink.MQTT = &MQTTSinkData{
				Broker:      broker.String,
				ClientID:    clientID.String,
				Username:    username.String,
				Password:    password.String,
				TopicPrefix: prefix.String,
				QoS:         int(qos.Int64),
				Retain:      retain.Bool,
				Format:      format.String,
			}
		}
		sinks = append(sinks, sink)
	}
	return sinks, rows.Err()
}

// GetControllers returns controller configurations from the database
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	rows, err := s.db.Query(`
		SELECT type, cert, key, port, listen_addr, enable_cors
		FROM controllers
		ORDER BY type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var c ControllerData
		var cert, key, listenAddr sql.NullString
		var port sql.NullInt64
		var enableCORS bool

		if err := rows.Scan(&c.Type, &cert, &key, &port, &listenAddr, &enableCORS); err != nil {
			return nil, fmt.Errorf("failed to scan controller row: %w", err)
		}

		if c.Type == ControllerTypeREST {
			c.RESTServer = &RESTServerData{
				Cert:       cert.String,
				Key:        key.String,
				Port:       int(port.Int64),
				ListenAddr: listenAddr.String,
				EnableCORS: enableCORS,
			}
		}
		controllers = append(controllers, c)
	}
	return controllers, rows.Err()
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored configuration with configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.clearExistingConfig(tx); err != nil {
		return fmt.Errorf("failed to clear existing config: %w", err)
	}

	for _, c := range configData.Calibrations {
		if err := s.insertCalibration(tx, &c); err != nil {
			return fmt.Errorf("failed to insert calibration %s: %w", c.Name, err)
		}
	}
	for _, src := range configData.Sources {
		if err := s.insertSource(tx, &src); err != nil {
			return fmt.Errorf("failed to insert source %s: %w", src.Name, err)
		}
	}
	for _, sink := range configData.Sinks {
		if err := s.insertSink(tx, &sink); err != nil {
			return fmt.Errorf("failed to insert sink %s: %w", sink.Name, err)
		}
	}
	for _, c := range configData.Controllers {
		if err := s.insertController(tx, &c); err != nil {
			return fmt.Errorf("failed to insert controller %s: %w", c.Type, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SetCalibrationEnabled flips whether a calibration is loaded at startup
func (s *SQLiteProvider) SetCalibrationEnabled(name string, enabled bool) error {
	res, err := s.db.Exec("UPDATE calibrations SET enabled = ? WHERE name = ?", enabled, name)
	if err != nil {
		return fmt.Errorf("failed to update calibration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("calibration not found: %s", name)
	}
	return nil
}

func (s *SQLiteProvider) clearExistingConfig(tx *sql.Tx) error {
	for _, table := range []string{"reference_vectors", "calibrations", "sources", "sinks", "controllers"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *SQLiteProvider) insertCalibration(tx *sql.Tx, c *CalibrationData) error {
	res, err := tx.Exec(`
		INSERT INTO calibrations (name, packet_type, enabled,
		                          sequence_offset, channel_offset, sensor_id_offset, temperature_offset,
		                          humidity_offset, humidity_status_offset, status_offset)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.Name, c.PacketType, c.Enabled,
		c.Layout.Sequence, c.Layout.Channel, c.Layout.SensorID, c.Layout.Temperature,
		c.Layout.Humidity, c.Layout.HumidityStatus, c.Layout.Status)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for i, r := range c.References {
		_, err := tx.Exec(`
			INSERT INTO reference_vectors (calibration_id, position, name, source, frame_hex,
			                               subtype, sequence, sensor_id, channel,
			                               temperature_tenths_c, humidity_percent, humidity_status,
			                               battery_level, signal_level)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, i, r.Name, nullString(r.Source), r.Frame,
			r.Expect.Subtype, r.Expect.Sequence, r.Expect.SensorID, r.Expect.Channel,
			r.Expect.TemperatureTenthsC, r.Expect.HumidityPercent, nullString(r.Expect.HumidityStatus),
			r.Expect.BatteryLevel, r.Expect.SignalLevel)
		if err != nil {
			return fmt.Errorf("reference %s: %w", r.Name, err)
		}
	}
	return nil
}

func (s *SQLiteProvider) insertSource(tx *sql.Tx, src *SourceData) error {
	var m MQTTSourceData
	var broker sql.NullString
	if src.MQTT != nil {
		m = *src.MQTT
		broker = nullString(m.Broker)
	}
	_, err := tx.Exec(`
		INSERT INTO sources (name, type, mqtt_broker, mqtt_client_id, mqtt_username, mqtt_password,
		                     mqtt_topic, mqtt_qos, mqtt_encoding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, src.Name, src.Type, broker, nullString(m.ClientID), nullString(m.Username), nullString(m.Password),
		nullString(m.Topic), m.QoS, nullString(m.Encoding))
	return err
}

func (s *SQLiteProvider) insertSink(tx *sql.Tx, sink *SinkData) error {
	var m MQTTSinkData
	var broker sql.NullString
	if sink.MQTT != nil {
		m = *sink.MQTT
		broker = nullString(m.Broker)
	}
	_, err := tx.Exec(`
		INSERT INTO sinks (name, type, mqtt_broker, mqtt_client_id, mqtt_username, mqtt_password,
		                   mqtt_topic_prefix, mqtt_qos, mqtt_retain, mqtt_format)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sink.Name, sink.Type, broker, nullString(m.ClientID), nullString(m.Username), nullString(m.Password),
		nullString(m.TopicPrefix), m.QoS, m.Retain, nullString(m.Format))
	return err
}

func (s *SQLiteProvider) insertController(tx *sql.Tx, c *ControllerData) error {
	var r RESTServerData
	if c.RESTServer != nil {
		r = *c.RESTServer
	}
	_, err := tx.Exec(`
		INSERT INTO controllers (type, cert, key, port, listen_addr, enable_cors)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.Type, nullString(r.Cert), nullString(r.Key), r.Port, nullString(r.ListenAddr), r.EnableCORS)
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
