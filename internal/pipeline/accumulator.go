package pipeline

import (
	"time"

	"github.com/movations/rtlweather/internal/types"
	"go.uber.org/zap"
)

// Accumulator assembles a complete reading set from the sparse per-frame
// records the radio emits. Each cycle it buffers every observed value per
// channel and tracks which channels have reported; the temperature channel is
// additionally filtered through the rolling smoother, so a rejected spike
// withholds completeness instead of poisoning the cycle.
//
// The accumulator is owned and mutated by the ingestion loop only, so it needs
// no locking of its own.
type Accumulator struct {
	humidity      []float64
	windDirection []float64
	windSpeed     []float64
	temperatureC  float64

	haveHumidity  bool
	haveTemp      bool
	haveWindDir   bool
	haveWindSpeed bool

	smoother *TemperatureSmoother
	logger   *zap.SugaredLogger
}

// NewAccumulator creates an empty accumulator whose temperature channel is
// filtered with the given rejection tolerance.
func NewAccumulator(tempTolerance float64, logger *zap.SugaredLogger) *Accumulator {
	return &Accumulator{
		smoother: NewTemperatureSmoother(tempTolerance),
		logger:   logger,
	}
}

// Ingest routes every channel present in the record into its buffer and marks
// that channel as observed. Order of arrival does not matter; a channel only
// needs to appear once per cycle. Temperature is accepted or rejected by the
// smoother each time it appears, so a late spike can clear an earlier accept.
func (a *Accumulator) Ingest(rec *types.TelemetryRecord) {
	if rec.Humidity != nil {
		a.humidity = append(a.humidity, *rec.Humidity)
		a.haveHumidity = true
	}
	if rec.WindDirection != nil {
		a.windDirection = append(a.windDirection, *rec.WindDirection)
		a.haveWindDir = true
	}
	if rec.WindSpeedMS != nil {
		a.windSpeed = append(a.windSpeed, *rec.WindSpeedMS)
		a.haveWindSpeed = true
	}
	if rec.TemperatureC != nil {
		estimate, accepted := a.smoother.Observe(*rec.TemperatureC)
		if accepted {
			a.temperatureC = *rec.TemperatureC
		} else {
			a.logger.Debugf("rejecting temperature spike: reading %.2f°C vs rolling estimate %.2f°C", *rec.TemperatureC, estimate)
		}
		a.haveTemp = accepted
	}
}

// Complete reports whether every channel has been observed since the last
// flush, with the temperature observation having survived spike rejection.
func (a *Accumulator) Complete() bool {
	return a.haveHumidity && a.haveTemp && a.haveWindDir && a.haveWindSpeed
}

// Snapshot returns the cycle's deliverable reading set. The slices are copies;
// a subsequent Flush does not disturb a snapshot already handed out.
func (a *Accumulator) Snapshot() types.Snapshot {
	snap := types.Snapshot{
		Timestamp:     time.Now(),
		Humidity:      make([]float64, len(a.humidity)),
		WindDirection: make([]float64, len(a.windDirection)),
		WindSpeed:     make([]float64, len(a.windSpeed)),
		TemperatureC:  a.temperatureC,
	}
	copy(snap.Humidity, a.humidity)
	copy(snap.WindDirection, a.windDirection)
	copy(snap.WindSpeed, a.windSpeed)
	return snap
}

// Flush clears every channel buffer and completeness flag in one step. The
// smoother's rolling window deliberately survives: it tracks the sensor, not
// the cycle.
func (a *Accumulator) Flush() {
	a.humidity = nil
	a.windDirection = nil
	a.windSpeed = nil
	a.temperatureC = 0
	a.haveHumidity = false
	a.haveTemp = false
	a.haveWindDir = false
	a.haveWindSpeed = false
}
