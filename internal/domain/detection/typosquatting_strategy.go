package detection

import (
	"fmt"
	"strings"

	"github.com/stoik/mailshield/internal/domain"
)

// TyposquattingStrategy detects domain typosquatting attacks
type TyposquattingStrategy struct{}

// NewTyposquattingStrategy creates a new domain typosquatting detection strategy
func NewTyposquattingStrategy() *TyposquattingStrategy {
	return &TyposquattingStrategy{}
}

// Name returns the strategy name
func (s *TyposquattingStrategy) Name() string {
	return "Domain Typosquatting"
}

// Evaluate checks if the first label of the sender domain is a mechanical
// misspelling of a registered brand domain
func (s *TyposquattingStrategy) Evaluate(signal domain.Signal, context *DetectionContext) []domain.Finding {
	senderDomain := strings.ToLower(signal.SenderDomain)
	if senderDomain == "" {
		return nil
	}

	brand, ok := context.Brands.MatchTyposquat(firstLabel(senderDomain))
	if !ok || context.Brands.IsOfficial(senderDomain) {
		return nil
	}

	return []domain.Finding{
		context.finding(domain.FindingTyposquatting, domain.SeverityHigh,
			fmt.Sprintf("Possible typosquatting of %s", brand)),
	}
}
