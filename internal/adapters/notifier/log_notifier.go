package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/stoik/mailshield/internal/domain"
	"github.com/stoik/mailshield/internal/ports"
)

// LogNotifier writes alerts to the log instead of delivering them.
// Handy for local runs where no push channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that logs every alert
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the alert
func (n *LogNotifier) Notify(ctx context.Context, subject *domain.Subject, alert ports.Alert) error {
	n.logger.Warn("🚨 Threat detected",
		zap.String("subject_id", subject.ID.String()),
		zap.String("message_hash", alert.MessageHash),
		zap.String("sender_domain", alert.SenderDomain),
		zap.String("risk_level", string(alert.Level)),
		zap.Int("risk_score", alert.Score),
		zap.String("explanation", alert.Explanation),
	)
	return nil
}
