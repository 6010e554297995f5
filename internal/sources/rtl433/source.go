// Package rtl433 runs the rtl_433 radio decoder as a child process and feeds
// its output into the ingestion queue.
package rtl433

import (
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/movations/rtlweather/internal/log"
	"github.com/movations/rtlweather/internal/sources"
	"github.com/movations/rtlweather/pkg/config"
	"go.uber.org/zap"
)

// Source spawns the radio decoder and streams its combined output. The
// decoder writes JSON frames to stdout but headers and USB errors to stderr,
// and some frames have historically landed on the wrong stream, so both are
// merged into one line stream the way the pipeline expects.
type Source struct {
	ctx    context.Context
	wg     *sync.WaitGroup
	cfg    config.SourceData
	queue  chan<- []byte
	logger *zap.SugaredLogger
}

// NewSource creates a decoder-subprocess source.
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
	return filepath.Base(s.cfg.Command)
}

// StartSource launches the decoder supervision goroutine.
func (s *Source) StartSource() error {
	log.Infof("Starting radio decoder source [%v %v]...", s.cfg.Command, s.cfg.Args)

	s.wg.Add(1)
	go s.superviseDecoder()

	return nil
}

// superviseDecoder keeps a decoder process running, restarting it with
// exponential backoff when it exits or fails to start.
func (s *Source) superviseDecoder() {
	defer s.wg.Done()

	baseDelay := time.Second
	attempt := 0

	for {
		select {
		case <-s.ctx.Done():
			log.Info("cancellation request received. Cancelling decoder supervisor")
			return
		default:
		}

		started := time.Now()
		err := s.runDecoder()
		if err != nil {
			s.logger.Errorf("radio decoder exited with error: %v", err)
		} else {
			s.logger.Warn("radio decoder exited")
		}

		// A decoder that stayed up a while earned a fresh backoff.
		if time.Since(started) > time.Minute {
			attempt = 0
		}

		delay := baseDelay * time.Duration(1<<attempt)
		if delay > time.Second*30 {
			delay = time.Second * 30
		}
		attempt++

		s.logger.Infof("restarting radio decoder in %v", delay)
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// runDecoder starts one decoder process and pumps its merged output into the
// queue until the process exits or the context is cancelled.
func (s *Source) runDecoder() error {
	cmd := exec.CommandContext(s.ctx, s.cfg.Command, s.cfg.Args...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return err
	}
	s.logger.Infof("radio decoder started (pid %d)", cmd.Process.Pid)

	go func() {
		// Wait also drains the stdout/stderr copiers, so the reader sees a
		// clean EOF once the process is gone.
		err := cmd.Wait()
		pw.CloseWithError(err)
	}()

	err := sources.EnqueueLines(s.ctx, pr, s.queue)
	if err == context.Canceled || err == context.DeadlineExceeded {
		return nil
	}
	return err
}
