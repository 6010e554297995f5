package wunderground

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/movations/rtlweather/internal/types"
	"github.com/movations/rtlweather/pkg/config"
	"go.uber.org/zap"
)

func testSnapshot() types.Snapshot {
	return types.Snapshot{
		Timestamp:     time.Now(),
		TemperatureC:  10.0,
		Humidity:      []float64{50, 60},
		WindSpeed:     []float64{1.0, 2.0, 3.0},
		WindDirection: []float64{45, 100},
	}
}

func newTestReporter(endpoint string) *Reporter {
	return NewReporter(context.Background(),
		config.UploadData{
			StationID:   "KMIMAPLE8",
			StationKey:  "secret",
			APIEndpoint: endpoint,
		},
		config.StationData{
			TempOffsetC:       10.0,
			WindDirCorrection: -90,
		},
		zap.NewNop().Sugar())
}

func TestUploadSendsExpectedParameters(t *testing.T) {
	var got url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got = req.URL.Query()
		w.Write([]byte("success\n"))
	}))
	defer server.Close()

	r := newTestReporter(server.URL)
	if err := r.Upload(testSnapshot()); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	checks := map[string]string{
		"action":   "updateraw",
		"ID":       "KMIMAPLE8",
		"PASSWORD": "secret",
		"dateutc":  "now",
		// 10°C + 10 offset = 20°C = 68°F
		"tempf": "68.00",
		// dew point at 68°F and 55% mean humidity: 68 - 0.36*45 = 51.80
		"dewPtF":   "51.80",
		"humidity": "55.00",
		// mean raw bearing 72.5°, corrected -90 → 342.50
		"winddir_avg2m": "342.50",
		// max raw bearing 100°, corrected -90 → 10.00
		"winddir":     "10.00",
		"windgustdir": "10.00",
		// median 2 m/s → 4.474 mph → knots-corrected 5.1486
		"windspeedmph": "5.15",
	}
	for key, want := range checks {
		if got.Get(key) != want {
			t.Errorf("parameter %s = %q, want %q", key, got.Get(key), want)
		}
	}

	for _, key := range []string{"windspdmph_avg2m", "windgustmph"} {
		if got.Get(key) == "" {
			t.Errorf("parameter %s missing from request", key)
		}
	}
}

func TestUploadReturnsErrorOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "bad password", http.StatusUnauthorized)
	}))
	defer server.Close()

	r := newTestReporter(server.URL)
	if err := r.Upload(testSnapshot()); err == nil {
		t.Error("Upload() returned nil for a 401 response, want error")
	}
}

func TestUploadReturnsErrorOnConnectionFailure(t *testing.T) {
	// A server that is already closed refuses connections.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {}))
	server.Close()

	r := newTestReporter(server.URL)
	if err := r.Upload(testSnapshot()); err == nil {
		t.Error("Upload() returned nil for a refused connection, want error")
	}
}

func TestNewReporterDefaultsEndpoint(t *testing.T) {
	r := NewReporter(context.Background(), config.UploadData{}, config.StationData{}, zap.NewNop().Sugar())
	if r.cfg.APIEndpoint != config.DefaultUploadEndpoint {
		t.Errorf("APIEndpoint = %q, want default", r.cfg.APIEndpoint)
	}
}
