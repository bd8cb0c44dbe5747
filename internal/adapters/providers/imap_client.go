package providers

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stoik/mailshield/internal/domain"
	"github.com/stoik/mailshield/internal/ports"
)

// IMAPConfig describes the mail server shared by all subjects.
// Each subject logs in with its own email address and credentials.
type IMAPConfig struct {
	Host        string
	Port        int
	TLS         bool
	Mailbox     string
	Lookback    time.Duration
	MaxMessages int
}

// IMAPClient implements ports.MailProvider over IMAP.
// It connects per call: scans are minutes apart, so idle sessions are not worth keeping.
type IMAPClient struct {
	cfg    IMAPConfig
	logger *zap.Logger
}

// NewIMAPClient creates a new IMAP mail provider
func NewIMAPClient(cfg IMAPConfig, logger *zap.Logger) *IMAPClient {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 7 * 24 * time.Hour
	}
	return &IMAPClient{cfg: cfg, logger: logger}
}

// connect dials the server, authenticates as the subject and selects the
// mailbox. The returned release func must be called once done.
func (c *IMAPClient) connect(ctx context.Context, subject *domain.Subject) (*imapclient.Client, func(), error) {
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))

	var client *imapclient.Client
	var err error
	if c.cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	// Closing the connection unblocks pending commands when the scan is cancelled
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	release := func() {
		stop()
		_ = client.Logout().Wait()
	}

	if err := client.Login(subject.Email, subject.Credentials).Wait(); err != nil {
		stop()
		_ = client.Close()
		return nil, nil, fmt.Errorf("authentication failed for subject %s: %w", subject.ID, err)
	}

	if _, err := client.Select(c.cfg.Mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		release()
		return nil, nil, fmt.Errorf("selecting %s: %w", c.cfg.Mailbox, err)
	}

	return client, release, nil
}

// ListMessages returns the most recent messages received within the lookback window
func (c *IMAPClient) ListMessages(ctx context.Context, subject *domain.Subject) ([]ports.MessageRef, error) {
	client, release, err := c.connect(ctx, subject)
	if err != nil {
		return nil, err
	}
	defer release()

	criteria := &imap.SearchCriteria{Since: time.Now().Add(-c.cfg.Lookback)}
	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	// Take the most recent
	if c.cfg.MaxMessages > 0 && len(uids) > c.cfg.MaxMessages {
		uids = uids[len(uids)-c.cfg.MaxMessages:]
	}

	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{Envelope: true, UID: true})
	defer fetchCmd.Close()

	refs := make([]ports.MessageRef, 0, len(uids))
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			c.logger.Warn("Failed to collect envelope", zap.Error(err))
			continue
		}
		refs = append(refs, ports.MessageRef{ID: c.messageID(subject, buf), UID: uint32(buf.UID)})
	}

	if err := fetchCmd.Close(); err != nil {
		return refs, fmt.Errorf("fetching envelopes: %w", err)
	}
	return refs, nil
}

// messageID prefers the Message-ID header, which survives moves between
// mailboxes; UIDs are only unique within one mailbox of one account
func (c *IMAPClient) messageID(subject *domain.Subject, buf *imapclient.FetchMessageBuffer) string {
	if buf.Envelope != nil && buf.Envelope.MessageID != "" {
		return ScopedMessageID(subject.ID, buf.Envelope.MessageID)
	}
	return ScopedMessageID(subject.ID, fmt.Sprintf("%s/%d", c.cfg.Mailbox, buf.UID))
}

// ScopedMessageID qualifies a provider message id with its mailbox owner.
// The same message delivered to two monitored mailboxes keeps two ids, so
// each copy is scanned, counted and alerted on for its own subject.
func ScopedMessageID(subjectID uuid.UUID, messageID string) string {
	return subjectID.String() + "/" + messageID
}

// FetchSignal downloads one message without marking it seen and parses it
func (c *IMAPClient) FetchSignal(ctx context.Context, subject *domain.Subject, ref ports.MessageRef) (domain.Signal, error) {
	client, release, err := c.connect(ctx, subject)
	if err != nil {
		return domain.Signal{}, err
	}
	defer release()

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(imap.UID(ref.UID)), &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return domain.Signal{}, fmt.Errorf("message UID %d not found", ref.UID)
	}
	buf, err := msg.Collect()
	if err != nil {
		return domain.Signal{}, fmt.Errorf("collecting message data: %w", err)
	}

	raw := buf.FindBodySection(bodySection)
	if raw == nil {
		return domain.Signal{}, fmt.Errorf("message UID %d has no body", ref.UID)
	}

	signal, err := ParseSignal(bytes.NewReader(raw))
	if err != nil {
		return domain.Signal{}, err
	}

	if err := fetchCmd.Close(); err != nil {
		return signal, fmt.Errorf("closing fetch: %w", err)
	}
	return signal, nil
}
