// Package serial reads newline-delimited telemetry from a directly-attached
// serial device.
package serial

import (
	"context"
	"sync"
	"time"

	"github.com/movations/rtlweather/internal/log"
	"github.com/movations/rtlweather/internal/sources"
	"github.com/movations/rtlweather/pkg/config"
	goserial "github.com/tarm/goserial"
	"go.uber.org/zap"
)

// Source streams lines from a serial port. Useful when the decoder runs on a
// microcontroller wired to this host instead of as a child process.
type Source struct {
	ctx    context.Context
	wg     *sync.WaitGroup
	cfg    config.SourceData
	queue  chan<- []byte
	logger *zap.SugaredLogger
}

// NewSource creates a serial line source.
func NewSource(ctx context.Context, wg *sync.WaitGroup, cfg config.SourceData, queue chan<- []byte, logger *zap.SugaredLogger) sources.Source {
	return &Source{
		ctx:    ctx,
		wg:     wg,
		cfg:    cfg,
		queue:  queue,
		logger: logger,
	}
}

func (s *Source) SourceName() string {
	return s.cfg.SerialDevice
}

// StartSource launches the serial reader goroutine.
func (s *Source) StartSource() error {
	log.Infof("Starting serial telemetry source [%v @ %d baud]...", s.cfg.SerialDevice, s.cfg.Baud)

	s.wg.Add(1)
	go s.readFromPort()

	return nil
}

// readFromPort opens the port and pumps lines into the queue, reopening the
// port when reads fail. Cheap USB serial adapters drop out routinely, so the
// retry loop never gives up.
func (s *Source) readFromPort() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			log.Info("cancellation request received. Cancelling serial reader")
			return
		default:
		}

		sc := &goserial.Config{Name: s.cfg.SerialDevice, Baud: s.cfg.Baud}
		s.logger.Debugf("attempting to open serial port %s at %d baud", s.cfg.SerialDevice, s.cfg.Baud)
		port, err := goserial.OpenPort(sc)
		if err != nil {
			s.logger.Errorf("failed to open serial port %s: %v", s.cfg.SerialDevice, err)
			s.logger.Error("sleeping 30 seconds and trying again")

			select {
			case <-s.ctx.Done():
				return
			case <-time.After(30 * time.Second):
			}
			continue
		}

		err = sources.EnqueueLines(s.ctx, port, s.queue)
		port.Close()

		if err == context.Canceled {
			return
		}
		s.logger.Errorf("serial read ended: %v; reopening port in 5 seconds", err)
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}
