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

	// Load into temporary structs with YAML tags
	var yamlConfig struct {
		Source  SourceYAML  `yaml:"source"`
		Station StationYAML `yaml:"station"`
		Upload  UploadYAML  `yaml:"upload"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Source: SourceData{
			Type:         yamlConfig.Source.Type,
			Command:      yamlConfig.Source.Command,
			Args:         yamlConfig.Source.Args,
			SerialDevice: yamlConfig.Source.SerialDevice,
			Baud:         yamlConfig.Source.Baud,
		},
		Station: StationData{
			Name:                 yamlConfig.Station.Name,
			TempOffsetC:          yamlConfig.Station.TempOffsetC,
			WarmupThreshold:      yamlConfig.Station.WarmupThreshold,
			SilenceThreshold:     yamlConfig.Station.SilenceThreshold,
			ReadTimeoutSeconds:   yamlConfig.Station.ReadTimeoutSeconds,
			QueueSize:            yamlConfig.Station.QueueSize,
			TemperatureTolerance: yamlConfig.Station.TemperatureTolerance,
		},
		Upload: UploadData{
			Enabled:     yamlConfig.Upload.Enabled,
			StationID:   yamlConfig.Upload.StationID,
			StationKey:  yamlConfig.Upload.StationKey,
			APIEndpoint: yamlConfig.Upload.APIEndpoint,
			Interval:    yamlConfig.Upload.Interval,
		},
	}

	if yamlConfig.Source.MQTT != nil {
		config.Source.MQTT = &MQTTData{
			Broker:   yamlConfig.Source.MQTT.Broker,
			Topic:    yamlConfig.Source.MQTT.Topic,
			ClientID: yamlConfig.Source.MQTT.ClientID,
		}
	}

	// The anemometer mast on the original installation is rotated a quarter
	// turn, so the correction defaults to -90 unless the file says otherwise.
	if yamlConfig.Station.WindDirCorrection != nil {
		config.Station.WindDirCorrection = *yamlConfig.Station.WindDirCorrection
	} else {
		config.Station.WindDirCorrection = -90
	}

	y.config = config
	return config, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing the on-disk format
type SourceYAML struct {
	Type         string    `yaml:"type,omitempty"`
	Command      string    `yaml:"command,omitempty"`
	Args         []string  `yaml:"args,omitempty"`
	SerialDevice string    `yaml:"serial-device,omitempty"`
	Baud         int       `yaml:"baud,omitempty"`
	MQTT         *MQTTYAML `yaml:"mqtt,omitempty"`
}

type MQTTYAML struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client-id,omitempty"`
}

type StationYAML struct {
	Name                 string   `yaml:"name,omitempty"`
	TempOffsetC          float64  `yaml:"temp-offset-c,omitempty"`
	WindDirCorrection    *float64 `yaml:"wind-dir-correction,omitempty"`
	WarmupThreshold      int      `yaml:"warmup-threshold,omitempty"`
	SilenceThreshold     int      `yaml:"silence-threshold,omitempty"`
	ReadTimeoutSeconds   int      `yaml:"read-timeout-seconds,omitempty"`
	QueueSize            int      `yaml:"queue-size,omitempty"`
	TemperatureTolerance float64  `yaml:"temperature-tolerance,omitempty"`
}

type UploadYAML struct {
	Enabled     bool   `yaml:"enabled"`
	StationID   string `yaml:"station-id,omitempty"`
	StationKey  string `yaml:"station-key,omitempty"`
	APIEndpoint string `yaml:"api-endpoint,omitempty"`
	Interval    int    `yaml:"interval,omitempty"`
}
