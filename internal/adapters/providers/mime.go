package providers

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/stoik/mailshield/internal/domain"
)

// maxTextPartBytes bounds how much of a text part is scanned for links
const maxTextPartBytes = 1 << 20

// signalHeaders are the only headers detection looks at
var signalHeaders = []string{"Authentication-Results", "Reply-To"}

var linkPattern = regexp.MustCompile(`(?i)https?://[^\s"'<>]+`)

// ParseSignal reads a raw RFC 5322 message and keeps only what the detector
// needs: sender, subject, a few headers, attachment names and links.
// Bodies are read for links and then dropped.
func ParseSignal(raw io.Reader) (domain.Signal, error) {
	mr, err := mail.CreateReader(raw)
	if err != nil {
		return domain.Signal{}, fmt.Errorf("parsing message: %w", err)
	}
	defer mr.Close()

	subject, err := mr.Header.Subject()
	if err != nil {
		subject = mr.Header.Get("Subject")
	}

	headers := make(map[string]string, len(signalHeaders))
	for _, name := range signalHeaders {
		value, err := mr.Header.Text(name)
		if err != nil {
			value = mr.Header.Get(name)
		}
		if value != "" {
			headers[name] = value
		}
	}

	var attachments []string
	links := newLinkSet()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep what was parsed so far; a broken trailing part is common in spam
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if contentType == "" {
				contentType = "text/plain"
			}
			if !strings.HasPrefix(contentType, "text/") {
				continue
			}
			body, readErr := io.ReadAll(io.LimitReader(part.Body, maxTextPartBytes))
			if readErr != nil {
				continue
			}
			links.addFrom(string(body))

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			if filename != "" {
				attachments = append(attachments, filename)
			}
		}
	}

	return domain.NewSignal(formatSender(mr.Header), subject, headers, attachments, links.list), nil
}

// formatSender renders the first From address as "Name <addr>"
func formatSender(h mail.Header) string {
	addresses, err := h.AddressList("From")
	if err != nil || len(addresses) == 0 {
		return strings.TrimSpace(h.Get("From"))
	}
	from := addresses[0]
	if from.Name == "" {
		return from.Address
	}
	return from.Name + " <" + from.Address + ">"
}

// linkSet keeps links unique in order of appearance
type linkSet struct {
	seen map[string]struct{}
	list []string
}

func newLinkSet() *linkSet {
	return &linkSet{seen: make(map[string]struct{})}
}

func (s *linkSet) addFrom(text string) {
	for _, link := range linkPattern.FindAllString(text, -1) {
		link = strings.TrimRight(link, ".,;:!?)]}")
		if _, ok := s.seen[link]; ok {
			continue
		}
		s.seen[link] = struct{}{}
		s.list = append(s.list, link)
	}
}
