package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/movations/rtlweather/internal/types"
	"go.uber.org/zap"
)

// LoopConfig holds the tunables for the ingestion loop.
type LoopConfig struct {
	// ReadTimeout bounds each queue dequeue so the loop can always service
	// its counters even when the radio is quiet.
	ReadTimeout time.Duration

	// WarmupThreshold gates line processing: lines are ingested only while
	// pulse > WarmupThreshold. At startup the decoder prints a burst of
	// header and error lines that drive the pulse negative; those lines are
	// dropped until timeouts pull the pulse back up.
	WarmupThreshold int

	// SilenceThreshold is the pulse value above which the stream is
	// considered dead and the silence hook fires.
	SilenceThreshold int

	// UploadInterval is the number of loop iterations between uploads.
	UploadInterval int

	// UploadEnabled skips the upload (with a log line) when false.
	UploadEnabled bool
}

// DefaultLoopConfig returns the tunables the original station ran with.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		ReadTimeout:      time.Second,
		WarmupThreshold:  0,
		SilenceThreshold: 400000,
		UploadInterval:   60,
		UploadEnabled:    true,
	}
}

// Displayer renders a complete reading set to local output.
type Displayer interface {
	Display(types.Snapshot)
}

// Uploader delivers a complete reading set to a remote service. Errors are
// logged by the loop and never interrupt ingestion.
type Uploader interface {
	Upload(types.Snapshot) error
}

// Loop is the single consumer of the raw line queue. It demultiplexes sparse
// telemetry records into the accumulator, tracks stream liveness via the
// pulse counter, and triggers the periodic display and upload actions when a
// cycle completes. All counter and accumulator state is owned by this one
// goroutine.
type Loop struct {
	cfg      LoopConfig
	queue    <-chan []byte
	acc      *Accumulator
	display  Displayer
	uploader Uploader
	logger   *zap.SugaredLogger

	// onSilence is the restart-policy hook; the loop only detects silence,
	// it never acts on it itself.
	onSilence func()

	// pulse climbs on queue timeouts and falls on received lines. Its trend
	// distinguishes an idle radio from an active one; it may go negative
	// during the startup burst.
	pulse int

	// uploadCounter increments once per loop iteration whether or not data
	// arrived, and resets after every upload opportunity.
	uploadCounter int
}

// NewLoop creates an ingestion loop. Zero-valued config fields fall back to
// defaults.
func NewLoop(cfg LoopConfig, queue <-chan []byte, acc *Accumulator, display Displayer, uploader Uploader, logger *zap.SugaredLogger) *Loop {
	def := DefaultLoopConfig()
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.SilenceThreshold <= 0 {
		cfg.SilenceThreshold = def.SilenceThreshold
	}
	if cfg.UploadInterval <= 0 {
		cfg.UploadInterval = def.UploadInterval
	}

	return &Loop{
		cfg:      cfg,
		queue:    queue,
		acc:      acc,
		display:  display,
		uploader: uploader,
		logger:   logger,
	}
}

// OnSilence registers a hook invoked when the pulse exceeds the silence
// threshold at a cycle boundary.
func (l *Loop) OnSilence(fn func()) {
	l.onSilence = fn
}

// Run consumes the queue until the context is cancelled. There is no normal
// exit path; the loop runs for the life of the process.
func (l *Loop) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	timer := time.NewTimer(l.cfg.ReadTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("cancellation request received, stopping ingestion loop")
			return
		default:
		}
		l.iterate(ctx, timer)
	}
}

// iterate performs one pass: a bounded dequeue, counter bookkeeping, and any
// cycle-boundary actions. Split out from Run so tests can drive the loop
// deterministically.
func (l *Loop) iterate(ctx context.Context, timer *time.Timer) {
	l.uploadCounter++

	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(l.cfg.ReadTimeout)

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		// No data this interval
		l.pulse++
		l.logger.Debugf("pulse: %d", l.pulse)
	case line, ok := <-l.queue:
		if !ok {
			// Queue closed under us; idle until cancellation.
			l.pulse++
			return
		}
		l.pulse--
		l.processLine(line)
	}
}

// processLine parses one raw line and routes it through the accumulator.
// Malformed lines are a recoverable failure: skip and move on.
func (l *Loop) processLine(line []byte) {
	var rec types.TelemetryRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		l.logger.Debugf("skipping unparseable line %q: %v", string(line), err)
		return
	}

	// During the startup burst the pulse is still settling; drop lines until
	// it climbs past the warm-up threshold.
	if l.pulse <= l.cfg.WarmupThreshold {
		l.logger.Debugf("dropping line during warm-up (pulse %d)", l.pulse)
		return
	}

	l.acc.Ingest(&rec)

	if l.acc.Complete() {
		l.completeCycle()
	}
}

// completeCycle runs the periodic actions for a fully-populated reading set
// and then flushes all per-cycle state.
func (l *Loop) completeCycle() {
	snap := l.acc.Snapshot()

	l.display.Display(snap)

	if l.pulse > l.cfg.SilenceThreshold {
		l.logger.Warnf("it's been a while since the radio said anything (pulse %d)", l.pulse)
		if l.onSilence != nil {
			l.onSilence()
		}
	}

	if l.uploadCounter > l.cfg.UploadInterval {
		if l.cfg.UploadEnabled && l.uploader != nil {
			if err := l.uploader.Upload(snap); err != nil {
				l.logger.Errorf("error uploading reading: %v", err)
			}
		} else {
			l.logger.Info("Skipping weather upload")
		}
		// Reset whether or not the upload succeeded; the next opportunity
		// is the next interval boundary, not an immediate retry.
		l.uploadCounter = 0
	}

	l.pulse = 0
	l.acc.Flush()
}
