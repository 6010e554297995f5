// Package wunderground uploads complete reading sets to the Weather
// Underground PWS upload endpoint.
package wunderground

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/movations/rtlweather/internal/reporters"
	"github.com/movations/rtlweather/internal/types"
	"github.com/movations/rtlweather/pkg/config"
	"github.com/movations/rtlweather/pkg/units"
	"go.uber.org/zap"
)

// Reporter performs one best-effort updateraw request per upload cycle.
// Failures are returned to the caller for logging and otherwise forgotten;
// the ingestion loop must never stall because the network did.
type Reporter struct {
	ctx        context.Context
	cfg        config.UploadData
	station    config.StationData
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// NewReporter creates a Weather Underground uploader.
func NewReporter(ctx context.Context, cfg config.UploadData, station config.StationData, logger *zap.SugaredLogger) *Reporter {
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = config.DefaultUploadEndpoint
	}

	return &Reporter{
		ctx:        ctx,
		cfg:        cfg,
		station:    station,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

// Upload builds the updateraw parameter set from the snapshot and sends it.
func (r *Reporter) Upload(snap types.Snapshot) error {
	r.logger.Infof("Uploading reading to Weather Underground as %s", r.cfg.StationID)

	tempF := units.CToF(snap.TemperatureC + r.station.TempOffsetC)
	meanHumidity := reporters.Mean(snap.Humidity)
	meanDir := units.CorrectWindDirection(reporters.Mean(snap.WindDirection), r.station.WindDirCorrection)
	maxDir := units.CorrectWindDirection(reporters.Max(snap.WindDirection), r.station.WindDirCorrection)

	v := url.Values{}
	v.Set("action", "updateraw")
	v.Set("ID", r.cfg.StationID)
	v.Set("PASSWORD", r.cfg.StationKey)
	v.Set("dateutc", "now")
	v.Set("tempf", fmt.Sprintf("%.2f", tempF))
	v.Set("dewPtF", fmt.Sprintf("%.2f", units.DewPoint(tempF, meanHumidity)))
	v.Set("humidity", fmt.Sprintf("%.2f", meanHumidity))
	v.Set("winddir_avg2m", fmt.Sprintf("%.2f", meanDir))
	v.Set("windspdmph_avg2m", fmt.Sprintf("%.2f", units.KnotsCorrection(units.MSToMPH(reporters.Mean(snap.WindSpeed)))))
	v.Set("windspeedmph", fmt.Sprintf("%.2f", units.KnotsCorrection(units.MSToMPH(reporters.Median(snap.WindSpeed)))))
	v.Set("winddir", fmt.Sprintf("%.2f", maxDir))
	v.Set("windgustmph", fmt.Sprintf("%.2f", units.KnotsCorrection(units.MSToMPH(reporters.Max(snap.WindSpeed)))))
	v.Set("windgustdir", fmt.Sprintf("%.2f", maxDir))

	return r.sendHTTPRequest(r.cfg.APIEndpoint, v)
}

// sendHTTPRequest sends an HTTP GET request with URL-encoded parameters
func (r *Reporter) sendHTTPRequest(endpoint string, params url.Values) error {
	fullURL := fmt.Sprint(endpoint + "?" + params.Encode())

	req, err := http.NewRequest("GET", fullURL, nil)
	if err != nil {
		return fmt.Errorf("error creating HTTP request: %v", err)
	}
	req = req.WithContext(r.ctx)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending HTTP request: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %v", err)
	}

	// The endpoint answers "success" in plain text; log it, don't parse it.
	r.logger.Debugf("server response: %s", string(body))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad response from server (status %d): %v", resp.StatusCode, string(body))
	}

	return nil
}
