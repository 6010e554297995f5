// Package types holds the telemetry data structures shared across the pipeline.
package types

import "time"

// TelemetryRecord is one parsed line of rtl_433 JSON output. A single radio
// frame carries only a subset of the known channels, so the channel fields are
// pointers: nil means the field was absent from the line. Unknown fields in
// the JSON are ignored by encoding/json.
type TelemetryRecord struct {
	Time          string   `json:"time"`
	Model         string   `json:"model"`
	ID            int      `json:"id"`
	Humidity      *float64 `json:"humidity"`
	WindDirection *float64 `json:"wind_direction"`
	WindSpeedMS   *float64 `json:"wind_speed_ms"`
	TemperatureC  *float64 `json:"temperature_C"`
}

// Snapshot is a complete reading set assembled over one cycle, handed to the
// reporters when every channel has been observed. The wind and humidity
// channels carry every raw value seen during the cycle so reporters can
// compute their own aggregates; temperature carries only the latest value that
// survived outlier rejection.
type Snapshot struct {
	Timestamp     time.Time
	Humidity      []float64
	WindDirection []float64
	WindSpeed     []float64
	TemperatureC  float64
}
