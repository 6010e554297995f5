package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/movations/rtlweather/internal/log"
	"github.com/movations/rtlweather/internal/pipeline"
	"github.com/movations/rtlweather/internal/reporters/console"
	"github.com/movations/rtlweather/internal/reporters/wunderground"
	"github.com/movations/rtlweather/internal/sources"
	"github.com/movations/rtlweather/internal/sources/mqtt"
	"github.com/movations/rtlweather/internal/sources/rtl433"
	"github.com/movations/rtlweather/internal/sources/serial"
	"github.com/movations/rtlweather/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// The queue decouples the line source from the ingestion loop; the loop
	// is its only consumer.
	queue := make(chan []byte, cfg.Station.QueueSize)

	source, err := createSource(ctx, &wg, cfg, queue, a.logger)
	if err != nil {
		return err
	}

	display := console.NewReporter(cfg.Station, os.Stdout)
	uploader := wunderground.NewReporter(ctx, cfg.Upload, cfg.Station, a.logger)

	acc := pipeline.NewAccumulator(cfg.Station.TemperatureTolerance, a.logger)
	loop := pipeline.NewLoop(pipeline.LoopConfig{
		ReadTimeout:      time.Duration(cfg.Station.ReadTimeoutSeconds) * time.Second,
		WarmupThreshold:  cfg.Station.WarmupThreshold,
		SilenceThreshold: cfg.Station.SilenceThreshold,
		UploadInterval:   cfg.Upload.Interval,
		UploadEnabled:    cfg.Upload.Enabled,
	}, queue, acc, display, uploader, a.logger)

	// Silence detection is advisory: the supervisor (systemd, runit) owns the
	// restart policy, so the hook just makes the condition loud in the logs.
	loop.OnSilence(func() {
		a.logger.Warnf("telemetry stream from %s appears dead; waiting for the supervisor to intervene", source.SourceName())
	})

	if err := source.StartSource(); err != nil {
		return fmt.Errorf("could not start telemetry source: %w", err)
	}

	wg.Add(1)
	go loop.Run(ctx, &wg)

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// createSource builds the configured line-source backend.
func createSource(ctx context.Context, wg *sync.WaitGroup, cfg *config.ConfigData, queue chan<- []byte, logger *zap.SugaredLogger) (sources.Source, error) {
	switch cfg.Source.Type {
	case "exec":
		return rtl433.NewSource(ctx, wg, cfg.Source, queue, logger), nil
	case "serial":
		return serial.NewSource(ctx, wg, cfg.Source, queue, logger), nil
	case "mqtt":
		return mqtt.NewSource(ctx, wg, *cfg.Source.MQTT, queue, logger), nil
	default:
		return nil, fmt.Errorf("unknown source type: %q", cfg.Source.Type)
	}
}

// applyEnvOverrides lets upload credentials come from the environment so the
// config file can be checked in without secrets.
func applyEnvOverrides(cfg *config.ConfigData) {
	if id := os.Getenv("RTLWEATHER_STATION_ID"); id != "" {
		cfg.Upload.StationID = id
	}
	if key := os.Getenv("RTLWEATHER_STATION_KEY"); key != "" {
		cfg.Upload.StationKey = key
	}
}
