package config

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from the SQLite database. The
// schema is three single-row tables mirroring the YAML sections.
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	err := s.loadSource(&config.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to load source config: %w", err)
	}

	err = s.loadStation(&config.Station)
	if err != nil {
		return nil, fmt.Errorf("failed to load station config: %w", err)
	}

	err = s.loadUpload(&config.Upload)
	if err != nil {
		return nil, fmt.Errorf("failed to load upload config: %w", err)
	}

	return config, nil
}

func (s *SQLiteProvider) loadSource(src *SourceData) error {
	row := s.db.QueryRow(`
		SELECT type, command, args, serial_device, baud,
		       mqtt_broker, mqtt_topic, mqtt_client_id
		FROM source LIMIT 1
	`)

	var command, args, serialDevice sql.NullString
	var baud sql.NullInt64
	var mqttBroker, mqttTopic, mqttClientID sql.NullString

	err := row.Scan(&src.Type, &command, &args, &serialDevice, &baud,
		&mqttBroker, &mqttTopic, &mqttClientID)
	if err != nil {
		return fmt.Errorf("failed to scan source row: %w", err)
	}

	if command.Valid {
		src.Command = command.String
	}
	if args.Valid && args.String != "" {
		src.Args = strings.Fields(args.String)
	}
	if serialDevice.Valid {
		src.SerialDevice = serialDevice.String
	}
	if baud.Valid {
		src.Baud = int(baud.Int64)
	}
	if mqttBroker.Valid && mqttBroker.String != "" {
		src.MQTT = &MQTTData{
			Broker: mqttBroker.String,
			Topic:  mqttTopic.String,
		}
		if mqttClientID.Valid {
			src.MQTT.ClientID = mqttClientID.String
		}
	}

	return nil
}

func (s *SQLiteProvider) loadStation(st *StationData) error {
	row := s.db.QueryRow(`
		SELECT name, temp_offset_c, wind_dir_correction, warmup_threshold,
		       silence_threshold, read_timeout_seconds, queue_size,
		       temperature_tolerance
		FROM station LIMIT 1
	`)

	var name sql.NullString
	var tempOffset, windDirCorrection, tempTolerance sql.NullFloat64
	var warmup, silence, readTimeout, queueSize sql.NullInt64

	err := row.Scan(&name, &tempOffset, &windDirCorrection, &warmup,
		&silence, &readTimeout, &queueSize, &tempTolerance)
	if err != nil {
		return fmt.Errorf("failed to scan station row: %w", err)
	}

	if name.Valid {
		st.Name = name.String
	}
	if tempOffset.Valid {
		st.TempOffsetC = tempOffset.Float64
	}
	if windDirCorrection.Valid {
		st.WindDirCorrection = windDirCorrection.Float64
	} else {
		st.WindDirCorrection = -90
	}
	if warmup.Valid {
		st.WarmupThreshold = int(warmup.Int64)
	}
	if silence.Valid {
		st.SilenceThreshold = int(silence.Int64)
	}
	if readTimeout.Valid {
		st.ReadTimeoutSeconds = int(readTimeout.Int64)
	}
	if queueSize.Valid {
		st.QueueSize = int(queueSize.Int64)
	}
	if tempTolerance.Valid {
		st.TemperatureTolerance = tempTolerance.Float64
	}

	return nil
}

func (s *SQLiteProvider) loadUpload(up *UploadData) error {
	row := s.db.QueryRow(`
		SELECT enabled, station_id, station_key, api_endpoint, interval
		FROM upload LIMIT 1
	`)

	var enabled sql.NullBool
	var stationID, stationKey, apiEndpoint sql.NullString
	var interval sql.NullInt64

	err := row.Scan(&enabled, &stationID, &stationKey, &apiEndpoint, &interval)
	if err != nil {
		return fmt.Errorf("failed to scan upload row: %w", err)
	}

	if enabled.Valid {
		up.Enabled = enabled.Bool
	}
	if stationID.Valid {
		up.StationID = stationID.String
	}
	if stationKey.Valid {
		up.StationKey = stationKey.String
	}
	if apiEndpoint.Valid {
		up.APIEndpoint = apiEndpoint.String
	}
	if interval.Valid {
		up.Interval = int(interval.Int64)
	}

	return nil
}

// IsReadOnly returns false since SQLite configs are editable in place
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
