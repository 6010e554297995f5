// Package config provides configuration loading for the telemetry daemon from
// pluggable backends.
package config

import "fmt"

// DefaultUploadEndpoint is the Weather Underground PWS upload URL.
const DefaultUploadEndpoint = "https://weatherstation.wunderground.com/weatherstation/updateweatherstation.php"

// DefaultRadioCommand is the radio decoder invocation used when the source
// config does not override it.
const DefaultRadioCommand = "/usr/local/bin/rtl_433"

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Source  SourceData  `json:"source"`
	Station StationData `json:"station"`
	Upload  UploadData  `json:"upload"`
}

// SourceData selects and configures the raw line source
type SourceData struct {
	// Type is one of "exec", "serial", or "mqtt"
	Type         string    `json:"type"`
	Command      string    `json:"command,omitempty"`
	Args         []string  `json:"args,omitempty"`
	SerialDevice string    `json:"serial_device,omitempty"`
	Baud         int       `json:"baud,omitempty"`
	MQTT         *MQTTData `json:"mqtt,omitempty"`
}

// MQTTData holds broker connection details for the MQTT source
type MQTTData struct {
	Broker   string `json:"broker"`
	Topic    string `json:"topic"`
	ClientID string `json:"client_id,omitempty"`
}

// StationData holds per-station calibration and pipeline tunables
type StationData struct {
	Name                 string  `json:"name"`
	TempOffsetC          float64 `json:"temp_offset_c,omitempty"`
	WindDirCorrection    float64 `json:"wind_dir_correction"`
	WarmupThreshold      int     `json:"warmup_threshold,omitempty"`
	SilenceThreshold     int     `json:"silence_threshold,omitempty"`
	ReadTimeoutSeconds   int     `json:"read_timeout_seconds,omitempty"`
	QueueSize            int     `json:"queue_size,omitempty"`
	TemperatureTolerance float64 `json:"temperature_tolerance,omitempty"`
}

// UploadData holds Weather Underground upload configuration
type UploadData struct {
	Enabled     bool   `json:"enabled"`
	StationID   string `json:"station_id,omitempty"`
	StationKey  string `json:"station_key,omitempty"`
	APIEndpoint string `json:"api_endpoint,omitempty"`
	// Interval between uploads, in seconds
	Interval int `json:"interval,omitempty"`
}

// ApplyDefaults fills in unset fields with working defaults.
func (c *ConfigData) ApplyDefaults() {
	if c.Source.Type == "" {
		c.Source.Type = "exec"
	}
	if c.Source.Command == "" {
		c.Source.Command = DefaultRadioCommand
	}
	if len(c.Source.Args) == 0 {
		c.Source.Args = []string{"-F", "json"}
	}
	if c.Source.Baud == 0 {
		c.Source.Baud = 9600
	}
	if c.Station.SilenceThreshold == 0 {
		c.Station.SilenceThreshold = 400000
	}
	if c.Station.ReadTimeoutSeconds == 0 {
		c.Station.ReadTimeoutSeconds = 1
	}
	if c.Station.QueueSize == 0 {
		c.Station.QueueSize = 256
	}
	if c.Upload.APIEndpoint == "" {
		c.Upload.APIEndpoint = DefaultUploadEndpoint
	}
	if c.Upload.Interval == 0 {
		c.Upload.Interval = 60
	}
}

// Validate checks the configuration for fatal problems. Callers are expected
// to abort startup on any returned error.
func (c *ConfigData) Validate() error {
	switch c.Source.Type {
	case "exec":
		if c.Source.Command == "" {
			return fmt.Errorf("source type 'exec' requires a command")
		}
	case "serial":
		if c.Source.SerialDevice == "" {
			return fmt.Errorf("source type 'serial' requires a serial device")
		}
	case "mqtt":
		if c.Source.MQTT == nil || c.Source.MQTT.Broker == "" || c.Source.MQTT.Topic == "" {
			return fmt.Errorf("source type 'mqtt' requires a broker and topic")
		}
	default:
		return fmt.Errorf("unknown source type: %q (use 'exec', 'serial', or 'mqtt')", c.Source.Type)
	}

	if c.Upload.Interval <= 0 || c.Upload.Interval > 3600 {
		return fmt.Errorf("upload interval must be in (0, 3600] seconds, got %d", c.Upload.Interval)
	}

	if c.Upload.Enabled {
		if c.Upload.StationID == "" || c.Upload.StationKey == "" {
			return fmt.Errorf("uploads are enabled but station ID or key is missing")
		}
	}

	return nil
}
