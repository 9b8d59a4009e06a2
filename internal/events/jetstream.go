package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hookfeed/hook-ingestor/internal/logger"
)

// Config holds the configuration for the NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
}

type jetstreamPublisher struct {
	nc         *nats.Conn
	js         nats.JetStreamContext
	streamName string
}

// NewJetStreamPublisher connects to NATS and ensures the outcome stream exists
func NewJetStreamPublisher(cfg Config) (Publisher, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// Create the stream if it does not exist yet
	if _, err := js.StreamInfo(cfg.StreamName); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     cfg.StreamName,
			Subjects: []string{fmt.Sprintf("%s.>", cfg.StreamName)},
			Storage:  nats.FileStorage,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create stream %s: %w", cfg.StreamName, err)
		}
	}

	return &jetstreamPublisher{
		nc:         nc,
		js:         js,
		streamName: cfg.StreamName,
	}, nil
}

// PublishAttempt publishes one attempt event, keyed by a fresh ULID.
// The ULID doubles as the JetStream message ID for broker-side dedup.
func (p *jetstreamPublisher) PublishAttempt(ctx context.Context, event AttemptEvent) error {
	event.EventID = ulid.Make().String()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt event: %w", err)
	}

	subject := fmt.Sprintf("%s.attempt.%d", p.streamName, event.ReceiverID)
	_, err = p.js.Publish(subject, data, nats.MsgId(event.EventID), nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish attempt event: %w", err)
	}

	logger.Debug("Published attempt event",
		zap.String("subject", subject),
		zap.String("event_id", event.EventID),
		zap.Int("result_code", event.ResultCode),
	)

	return nil
}

// Close drains and closes the NATS connection
func (p *jetstreamPublisher) Close() {
	if p.nc != nil && !p.nc.IsClosed() {
		if err := p.nc.Drain(); err != nil {
			logger.Error(err, zap.String("message", "Failed to drain NATS connection"))
		}
	}
}
