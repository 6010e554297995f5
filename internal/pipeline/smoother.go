package pipeline

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// historyCapacity bounds the rolling temperature window
	historyCapacity = 5

	// estimateWindow is how many of the most recent readings feed the estimate
	estimateWindow = 3

	// DefaultTemperatureTolerance is the maximum deviation, in the sensor's
	// native unit, between a reading and its rolling estimate before the
	// reading is rejected as a spike.
	DefaultTemperatureTolerance = 5.0
)

// TemperatureSmoother keeps a short rolling window of raw temperature readings
// and flags readings that deviate too far from a local rolling estimate. The
// sensor occasionally emits single-sample spikes; this filters them out
// without discarding genuine trends.
type TemperatureSmoother struct {
	history   []float64
	tolerance float64
}

// NewTemperatureSmoother creates a smoother with the given rejection
// tolerance. A tolerance <= 0 selects the default.
func NewTemperatureSmoother(tolerance float64) *TemperatureSmoother {
	if tolerance <= 0 {
		tolerance = DefaultTemperatureTolerance
	}
	return &TemperatureSmoother{
		history:   make([]float64, 0, historyCapacity),
		tolerance: tolerance,
	}
}

// Observe pushes a raw reading into the rolling window, evicting the oldest
// entry once the window is full, and returns the rolling estimate along with
// whether the reading is close enough to it to be accepted.
func (s *TemperatureSmoother) Observe(latest float64) (estimate float64, accepted bool) {
	s.history = append(s.history, latest)
	if len(s.history) > historyCapacity {
		s.history = s.history[len(s.history)-historyCapacity:]
	}

	estimate = s.estimate()
	return estimate, math.Abs(latest-estimate) <= s.tolerance
}

// estimate computes a moving average over the most recent readings with a
// correction term that weights the latest sample more heavily. It is an
// exponential-style nudge on top of a plain mean rather than a full EWMA.
func (s *TemperatureSmoother) estimate() float64 {
	window := s.history
	if len(window) > estimateWindow {
		window = window[len(window)-estimateWindow:]
	}

	mean := stat.Mean(window, nil)
	latest := window[len(window)-1]
	return mean + (latest-mean)/float64(len(window))
}

// Len returns the number of readings currently held in the rolling window.
func (s *TemperatureSmoother) Len() int {
	return len(s.history)
}
