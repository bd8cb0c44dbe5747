package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stoik/mailshield/internal/domain"
)

// Alert is what gets pushed to a subject when a threat crosses their threshold.
// It carries the verdict and the sender domain, never the message body.
type Alert struct {
	SubjectID    uuid.UUID        `json:"subject_id"`
	MessageHash  string           `json:"message_hash"`
	SenderDomain string           `json:"sender_domain"`
	Level        domain.RiskLevel `json:"risk_level"`
	Score        int              `json:"risk_score"`
	Explanation  string           `json:"human_readable"`
	Label        string           `json:"label_to_apply"`
	DetectedAt   time.Time        `json:"detected_at"`
}

// Notifier delivers alerts to a subject
type Notifier interface {
	Notify(ctx context.Context, subject *domain.Subject, alert Alert) error
}
