// Package mqtt subscribes to a radio decoder publishing telemetry over an
// MQTT broker (rtl_433 -F mqtt) and feeds each message into the ingestion
// queue as one line.
package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/movations/rtlweather/internal/log"
	"github.com/movations/rtlweather/internal/sources"
	"github.com/movations/rtlweather/pkg/config"
	"go.uber.org/zap"
)

// Source consumes decoder events from an MQTT topic.
type Source struct {
	ctx    context.Context
	wg     *sync.WaitGroup
	cfg    config.MQTTData
	queue  chan<- []byte
	logger *zap.SugaredLogger
	client paho.Client
}

// NewSource creates an MQTT line source.
func NewSource(ctx context.Context, wg *sync.WaitGroup, cfg config.MQTTData, queue chan<- []byte, logger *zap.SugaredLogger) sources.Source {
	return &Source{
		ctx:    ctx,
		wg:     wg,
		cfg:    cfg,
		queue:  queue,
		logger: logger,
	}
}

func (s *Source) SourceName() string {
	return fmt.Sprintf("%s %s", s.cfg.Broker, s.cfg.Topic)
}

// StartSource connects to the broker and subscribes to the decoder topic.
func (s *Source) StartSource() error {
	log.Infof("Starting MQTT telemetry source [%v, topic %v]...", s.cfg.Broker, s.cfg.Topic)

	clientID := s.cfg.ClientID
	if clientID == "" {
		clientID = "rtlweather"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)

	opts.OnConnect = func(client paho.Client) {
		s.logger.Infof("connected to MQTT broker %s", s.cfg.Broker)
		token := client.Subscribe(s.cfg.Topic, 0, s.handleMessage)
		token.Wait()
		if token.Error() != nil {
			s.logger.Errorf("failed to subscribe to %s: %v", s.cfg.Topic, token.Error())
		}
	}
	opts.OnConnectionLost = func(client paho.Client, err error) {
		s.logger.Errorf("MQTT connection lost: %v", err)
	}

	s.client = paho.NewClient(opts)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker %s: %w", s.cfg.Broker, token.Error())
	}

	s.wg.Add(1)
	go s.waitForShutdown()

	return nil
}

// handleMessage enqueues one decoder event. Payloads are the same JSON
// objects the decoder would print on stdout, one per message.
func (s *Source) handleMessage(_ paho.Client, msg paho.Message) {
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())

	select {
	case s.queue <- payload:
	case <-s.ctx.Done():
	}
}

func (s *Source) waitForShutdown() {
	defer s.wg.Done()
	<-s.ctx.Done()
	log.Info("cancellation request received. Disconnecting MQTT source")
	s.client.Disconnect(250)
}
