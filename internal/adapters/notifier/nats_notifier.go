package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/stoik/mailshield/internal/domain"
	"github.com/stoik/mailshield/internal/ports"
)

// DefaultSubjectPrefix is the NATS subject alerts are published under
const DefaultSubjectPrefix = "mailshield.alerts"

// Publisher is the part of *nats.Conn the notifier needs
type Publisher interface {
	Publish(subj string, data []byte) error
}

// NATSNotifier publishes alerts as JSON on "<prefix>.<subject id>" so a
// delivery service can fan them out to chat or push channels
type NATSNotifier struct {
	publisher Publisher
	prefix    string
	logger    *zap.Logger
}

// NewNATSNotifier creates a notifier publishing through publisher
func NewNATSNotifier(publisher Publisher, prefix string, logger *zap.Logger) *NATSNotifier {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSNotifier{publisher: publisher, prefix: prefix, logger: logger}
}

// Connect dials a NATS server with reconnects enabled
func Connect(url string, logger *zap.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("mailshield"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return nc, nil
}

// Notify publishes the alert
func (n *NATSNotifier) Notify(ctx context.Context, subject *domain.Subject, alert ports.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	topic := n.Topic(subject)
	if err := n.publisher.Publish(topic, payload); err != nil {
		return fmt.Errorf("failed to publish alert on %s: %w", topic, err)
	}

	n.logger.Debug("Alert published",
		zap.String("topic", topic),
		zap.String("risk_level", string(alert.Level)))
	return nil
}

// Topic returns the NATS subject alerts for subject go to
func (n *NATSNotifier) Topic(subject *domain.Subject) string {
	return n.prefix + "." + subject.ID.String()
}

// Close flushes pending alerts when the publisher is a live connection
func (n *NATSNotifier) Close() error {
	if d, ok := n.publisher.(interface{ Drain() error }); ok {
		return d.Drain()
	}
	return nil
}
