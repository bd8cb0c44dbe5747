package detection

import (
	"fmt"
	"strings"

	"github.com/stoik/mailshield/internal/domain"
)

// IDNHomographStrategy detects punycode domains rendering as something else
type IDNHomographStrategy struct{}

// NewIDNHomographStrategy creates a new IDN homograph detection strategy
func NewIDNHomographStrategy() *IDNHomographStrategy {
	return &IDNHomographStrategy{}
}

// Name returns the strategy name
func (s *IDNHomographStrategy) Name() string {
	return "IDN Homograph"
}

// Evaluate decodes "xn--" domains; a decode failure is not a finding
func (s *IDNHomographStrategy) Evaluate(signal domain.Signal, context *DetectionContext) []domain.Finding {
	senderDomain := strings.ToLower(signal.SenderDomain)
	decoded, ok := context.Normalizer.DecodePunycode(senderDomain)
	if !ok || decoded == senderDomain {
		return nil
	}

	return []domain.Finding{
		context.finding(domain.FindingIDNHomograph, domain.SeverityCritical,
			fmt.Sprintf("Punycode domain detected: %s decodes to %s", senderDomain, decoded)),
	}
}
