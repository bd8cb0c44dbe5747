package ports

import (
	"context"

	"github.com/stoik/mailshield/internal/domain"
)

// MessageRef identifies a message in the subject's mailbox.
// ID is the provider message id; it is hashed before it reaches storage.
type MessageRef struct {
	ID  string
	UID uint32
}

// MailProvider defines the contract for reading a subject's mailbox
type MailProvider interface {
	// ListMessages returns references to the recent messages of the subject
	ListMessages(ctx context.Context, subject *domain.Subject) ([]MessageRef, error)

	// FetchSignal loads one message and reduces it to a detection Signal
	FetchSignal(ctx context.Context, subject *domain.Subject, ref MessageRef) (domain.Signal, error)
}
