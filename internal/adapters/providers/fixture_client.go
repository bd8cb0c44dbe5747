package providers

import (
	"context"
	"fmt"

	"github.com/stoik/mailshield/internal/domain"
	"github.com/stoik/mailshield/internal/ports"
)

// fixtureMessage is one canned message of the demonstration mailbox
type fixtureMessage struct {
	key    string
	signal domain.Signal
}

// FixtureClient implements ports.MailProvider with canned messages.
// For demos and tests: every subject sees the same mailbox, under
// subject-scoped message ids like a real provider.
type FixtureClient struct {
	messages []fixtureMessage
}

// NewFixtureClient creates a provider serving the built-in demonstration mailbox
func NewFixtureClient() *FixtureClient {
	return &FixtureClient{messages: demoMailbox()}
}

// NewFixtureClientWith creates a provider serving the given signals
func NewFixtureClientWith(signals ...domain.Signal) *FixtureClient {
	messages := make([]fixtureMessage, 0, len(signals))
	for i, s := range signals {
		messages = append(messages, fixtureMessage{key: fmt.Sprintf("msg-%03d", i+1), signal: s})
	}
	return &FixtureClient{messages: messages}
}

// ListMessages returns a reference per canned message
func (c *FixtureClient) ListMessages(ctx context.Context, subject *domain.Subject) ([]ports.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	refs := make([]ports.MessageRef, 0, len(c.messages))
	for i, m := range c.messages {
		refs = append(refs, ports.MessageRef{
			ID:  ScopedMessageID(subject.ID, fmt.Sprintf("<%s@fixture.mailshield>", m.key)),
			UID: uint32(i + 1),
		})
	}
	return refs, nil
}

// FetchSignal returns the canned message behind ref
func (c *FixtureClient) FetchSignal(ctx context.Context, subject *domain.Subject, ref ports.MessageRef) (domain.Signal, error) {
	if err := ctx.Err(); err != nil {
		return domain.Signal{}, err
	}
	i := int(ref.UID) - 1
	if i < 0 || i >= len(c.messages) {
		return domain.Signal{}, fmt.Errorf("message UID %d not found", ref.UID)
	}
	return c.messages[i].signal, nil
}

func demoMailbox() []fixtureMessage {
	return []fixtureMessage{
		{
			// Lookalike sender + reply-to mismatch
			key: "invoice",
			signal: domain.NewSignal(
				"Accounts Payable <accounts@paypa1-security.com>",
				"Invoice #4821 - Payment Required",
				map[string]string{"Reply-To": "urgent-payments@gmail.com"},
				nil,
				[]string{"https://paypa1-security.com/pay"},
			),
		},
		{
			key: "newsletter",
			signal: domain.NewSignal(
				"Example News <news@example.com>",
				"Your weekly digest",
				map[string]string{"Authentication-Results": "mx.example.com; spf=pass; dkim=pass; dmarc=pass"},
				nil,
				[]string{"https://example.com/digest"},
			),
		},
		{
			key: "malware",
			signal: domain.NewSignal(
				"Support <support@secure-microsoft.com>",
				"Your account will be suspended",
				map[string]string{"Authentication-Results": "mx.example.com; spf=fail; dkim=fail; dmarc=fail"},
				[]string{"invoice.pdf.exe"},
				[]string{"http://192.168.1.10/login", "https://bit.ly/3xYz"},
			),
		},
		{
			key: "idn",
			signal: domain.NewSignal(
				"Apple <id@xn--80ak6aa92e.com>",
				"Receipt for your purchase",
				nil,
				nil,
				nil,
			),
		},
	}
}
