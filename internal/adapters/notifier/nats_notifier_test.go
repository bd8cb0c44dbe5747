package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stoik/mailshield/internal/domain"
	"github.com/stoik/mailshield/internal/ports"
)

// MockPublisher records published messages
type MockPublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (m *MockPublisher) Publish(subj string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.subjects = append(m.subjects, subj)
	m.payloads = append(m.payloads, data)
	return nil
}

func testAlert(subjectID uuid.UUID) ports.Alert {
	return ports.Alert{
		SubjectID:    subjectID,
		MessageHash:  domain.HashMessageID("msg-1"),
		SenderDomain: "paypa1-security.com",
		Level:        domain.RiskHigh,
		Score:        85,
		Explanation:  "⚠️ HIGH RISK",
		Label:        domain.RiskHigh.Label(),
		DetectedAt:   time.Now().UTC(),
	}
}

func TestNATSNotifier_Notify(t *testing.T) {
	publisher := &MockPublisher{}
	n := NewNATSNotifier(publisher, "", zap.NewNop())
	subject := &domain.Subject{ID: uuid.New()}

	require.NoError(t, n.Notify(context.Background(), subject, testAlert(subject.ID)))

	require.Len(t, publisher.subjects, 1)
	assert.Equal(t, "mailshield.alerts."+subject.ID.String(), publisher.subjects[0])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &decoded))
	assert.Equal(t, "high", decoded["risk_level"])
	assert.Equal(t, "paypa1-security.com", decoded["sender_domain"])
	assert.NotContains(t, decoded, "credentials")
}

func TestNATSNotifier_PublishError(t *testing.T) {
	publisher := &MockPublisher{err: errors.New("nats: connection closed")}
	n := NewNATSNotifier(publisher, "alerts", zap.NewNop())
	subject := &domain.Subject{ID: uuid.New()}

	err := n.Notify(context.Background(), subject, testAlert(subject.ID))
	assert.ErrorContains(t, err, "connection closed")
}

func TestNATSNotifier_CancelledContext(t *testing.T) {
	publisher := &MockPublisher{}
	n := NewNATSNotifier(publisher, "alerts", zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	subject := &domain.Subject{ID: uuid.New()}
	assert.ErrorIs(t, n.Notify(ctx, subject, testAlert(subject.ID)), context.Canceled)
	assert.Empty(t, publisher.subjects)
}

type drainingPublisher struct {
	MockPublisher
	drained bool
}

func (d *drainingPublisher) Drain() error {
	d.drained = true
	return nil
}

func TestNATSNotifier_Close(t *testing.T) {
	publisher := &drainingPublisher{}
	n := NewNATSNotifier(publisher, "", zap.NewNop())

	require.NoError(t, n.Close())
	assert.True(t, publisher.drained)

	assert.NoError(t, NewNATSNotifier(&MockPublisher{}, "", zap.NewNop()).Close())
}
