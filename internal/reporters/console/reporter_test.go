package console

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/movations/rtlweather/internal/types"
	"github.com/movations/rtlweather/pkg/config"
)

func TestReporterDisplay(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(config.StationData{
		TempOffsetC:       10.0,
		WindDirCorrection: -90,
	}, &buf)

	r.Display(types.Snapshot{
		Timestamp:     time.Date(2026, time.January, 15, 8, 30, 0, 0, time.UTC),
		TemperatureC:  10.0, // +10 offset = 20°C = 68°F
		Humidity:      []float64{50, 60},
		WindSpeed:     []float64{1.0, 3.0},
		WindDirection: []float64{45, 100},
	})

	out := buf.String()

	if !strings.Contains(out, "2026-01-15 08:30:00") {
		t.Errorf("output missing timestamp header:\n%s", out)
	}
	if !strings.Contains(out, "Temperature:              68.00 F") {
		t.Errorf("output missing calibrated temperature:\n%s", out)
	}
	if !strings.Contains(out, "Relative Humidity:        55.00 %") {
		t.Errorf("output missing mean humidity:\n%s", out)
	}
	// Max raw bearing is 100°, corrected by -90 to 10°
	if !strings.Contains(out, "Wind Direction:           10.00 deg") {
		t.Errorf("output missing corrected wind direction:\n%s", out)
	}
}
