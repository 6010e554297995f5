package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/movations/rtlweather/internal/types"
	"go.uber.org/zap"
)

type fakeDisplay struct {
	snapshots []types.Snapshot
}

func (d *fakeDisplay) Display(s types.Snapshot) {
	d.snapshots = append(d.snapshots, s)
}

type fakeUploader struct {
	snapshots []types.Snapshot
	err       error
}

func (u *fakeUploader) Upload(s types.Snapshot) error {
	u.snapshots = append(u.snapshots, s)
	return u.err
}

func testLoop(t *testing.T, cfg LoopConfig, queueSize int) (*Loop, chan []byte, *fakeDisplay, *fakeUploader) {
	t.Helper()
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 5 * time.Millisecond
	}
	queue := make(chan []byte, queueSize)
	display := &fakeDisplay{}
	uploader := &fakeUploader{}
	logger := zap.NewNop().Sugar()
	l := NewLoop(cfg, queue, NewAccumulator(0, logger), display, uploader, logger)
	return l, queue, display, uploader
}

func drive(l *Loop, n int) {
	timer := time.NewTimer(l.cfg.ReadTimeout)
	defer timer.Stop()
	for i := 0; i < n; i++ {
		l.iterate(context.Background(), timer)
	}
}

func TestLoopPulseAccounting(t *testing.T) {
	l, queue, _, _ := testLoop(t, LoopConfig{UploadEnabled: true}, 16)

	// Three empty dequeues climb the pulse.
	drive(l, 3)
	if l.pulse != 3 {
		t.Fatalf("pulse = %d after three timeouts, want 3", l.pulse)
	}

	// One received line pulls it back down.
	queue <- []byte(`{"time":"2026-01-01 00:00:00","model":"LaCrosse-WS3600","id":12,"humidity":55}`)
	drive(l, 1)
	if l.pulse != 2 {
		t.Errorf("pulse = %d after timeout/line mix, want 2", l.pulse)
	}
}

func TestLoopWarmupGateDropsLines(t *testing.T) {
	l, queue, _, _ := testLoop(t, LoopConfig{UploadEnabled: true}, 16)

	// With no prior timeouts the first line drives the pulse negative, so it
	// must be dropped even though it parses cleanly.
	queue <- []byte(`{"humidity":55}`)
	drive(l, 1)
	if l.pulse != -1 {
		t.Fatalf("pulse = %d, want -1", l.pulse)
	}
	if l.acc.haveHumidity {
		t.Error("line ingested during warm-up, expected drop")
	}

	// Once timeouts push the pulse up, lines flow through.
	drive(l, 3)
	queue <- []byte(`{"humidity":55}`)
	drive(l, 1)
	if !l.acc.haveHumidity {
		t.Error("line dropped after warm-up, expected ingest")
	}
}

func TestLoopConfigurableWarmupThreshold(t *testing.T) {
	l, queue, _, _ := testLoop(t, LoopConfig{UploadEnabled: true, WarmupThreshold: 5}, 16)

	drive(l, 6) // pulse 6
	queue <- []byte(`{"humidity":55}`)
	drive(l, 1) // pulse 5, not > 5 after decrement
	if l.acc.haveHumidity {
		t.Error("line ingested at threshold, expected drop")
	}

	drive(l, 2) // pulse 7
	queue <- []byte(`{"humidity":55}`)
	drive(l, 1) // pulse 6 > 5
	if !l.acc.haveHumidity {
		t.Error("line dropped above threshold, expected ingest")
	}
}

func TestLoopSkipsMalformedLines(t *testing.T) {
	l, queue, _, _ := testLoop(t, LoopConfig{UploadEnabled: true}, 16)

	drive(l, 4)
	queue <- []byte(`Detached kernel driver`)
	queue <- []byte(`{"humidity":`)
	queue <- []byte(`{"humidity":55}`)
	drive(l, 3)

	if !l.acc.haveHumidity {
		t.Error("valid line after malformed lines was not ingested")
	}
}

func TestLoopIgnoresUnknownFields(t *testing.T) {
	l, queue, _, _ := testLoop(t, LoopConfig{UploadEnabled: true}, 16)

	drive(l, 2)
	queue <- []byte(`{"time":"2026-01-01 00:00:00","model":"LaCrosse-WS3600","id":12,"battery_ok":1,"mic":"CRC","humidity":55}`)
	drive(l, 1)

	if !l.acc.haveHumidity {
		t.Error("record with extra fields was not ingested")
	}
}

func feedCompleteCycle(queue chan []byte) {
	queue <- []byte(`{"temperature_C":21.0}`)
	queue <- []byte(`{"humidity":55}`)
	queue <- []byte(`{"wind_direction":180}`)
	queue <- []byte(`{"wind_speed_ms":3.2}`)
}

func TestLoopCompleteCycleDisplaysAndFlushes(t *testing.T) {
	l, queue, display, _ := testLoop(t, LoopConfig{UploadEnabled: true}, 16)

	drive(l, 10) // warm up: pulse 10
	feedCompleteCycle(queue)
	drive(l, 4)

	if len(display.snapshots) != 1 {
		t.Fatalf("display invoked %d times, want 1", len(display.snapshots))
	}
	snap := display.snapshots[0]
	if snap.TemperatureC != 21.0 {
		t.Errorf("snapshot temperature = %v, want 21.0", snap.TemperatureC)
	}
	if len(snap.Humidity) != 1 || snap.Humidity[0] != 55 {
		t.Errorf("snapshot humidity = %v, want [55]", snap.Humidity)
	}

	if l.acc.Complete() {
		t.Error("accumulator not flushed after complete cycle")
	}
	if l.pulse != 0 {
		t.Errorf("pulse = %d after flush, want 0", l.pulse)
	}
}

func TestLoopUploadGating(t *testing.T) {
	l, queue, display, uploader := testLoop(t, LoopConfig{UploadEnabled: true, UploadInterval: 60}, 16)

	// First cycle: well under the upload interval. Display fires, upload
	// does not.
	drive(l, 10)
	feedCompleteCycle(queue)
	drive(l, 4)

	if len(display.snapshots) != 1 {
		t.Fatalf("display invoked %d times, want 1", len(display.snapshots))
	}
	if len(uploader.snapshots) != 0 {
		t.Fatalf("upload invoked %d times before interval elapsed, want 0", len(uploader.snapshots))
	}

	// Grind out enough iterations to cross the interval, then complete
	// another cycle.
	drive(l, 60)
	feedCompleteCycle(queue)
	drive(l, 4)

	if len(uploader.snapshots) != 1 {
		t.Errorf("upload invoked %d times after interval elapsed, want 1", len(uploader.snapshots))
	}
	if l.uploadCounter != 0 {
		t.Errorf("uploadCounter = %d after upload, want 0", l.uploadCounter)
	}
}

func TestLoopUploadDisabled(t *testing.T) {
	l, queue, _, uploader := testLoop(t, LoopConfig{UploadEnabled: false, UploadInterval: 5}, 16)

	drive(l, 10)
	feedCompleteCycle(queue)
	drive(l, 4)

	if len(uploader.snapshots) != 0 {
		t.Errorf("upload invoked %d times with uploads disabled, want 0", len(uploader.snapshots))
	}
	if l.uploadCounter != 0 {
		t.Errorf("uploadCounter = %d, want 0 (reset even when skipping)", l.uploadCounter)
	}
}

func TestLoopUploadFailureDoesNotStall(t *testing.T) {
	l, queue, display, uploader := testLoop(t, LoopConfig{UploadEnabled: true, UploadInterval: 5}, 16)
	uploader.err = errors.New("connection refused")

	drive(l, 10)
	feedCompleteCycle(queue)
	drive(l, 4)

	if len(uploader.snapshots) != 1 {
		t.Fatalf("upload invoked %d times, want 1", len(uploader.snapshots))
	}
	if l.uploadCounter != 0 {
		t.Errorf("uploadCounter = %d after failed upload, want 0", l.uploadCounter)
	}

	// The loop keeps going: another cycle displays fine.
	drive(l, 10)
	feedCompleteCycle(queue)
	drive(l, 4)
	if len(display.snapshots) != 2 {
		t.Errorf("display invoked %d times after failed upload, want 2", len(display.snapshots))
	}
}

func TestLoopSilenceHook(t *testing.T) {
	l, queue, _, _ := testLoop(t, LoopConfig{UploadEnabled: true, SilenceThreshold: 8}, 16)

	var fired bool
	l.OnSilence(func() { fired = true })

	// Pulse climbs past the threshold, then a complete cycle arrives.
	drive(l, 15)
	feedCompleteCycle(queue)
	drive(l, 4)

	if !fired {
		t.Error("silence hook did not fire with pulse above threshold")
	}

	// After the flush the pulse is back to zero; the next cycle must not
	// re-fire the hook.
	fired = false
	drive(l, 5)
	feedCompleteCycle(queue)
	drive(l, 4)
	if fired {
		t.Error("silence hook fired with pulse below threshold")
	}
}

func TestLoopRunStopsOnCancellation(t *testing.T) {
	l, _, _, _ := testLoop(t, LoopConfig{UploadEnabled: true}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go l.Run(ctx, &wg)

	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
}
