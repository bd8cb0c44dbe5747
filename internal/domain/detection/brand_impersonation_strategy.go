package detection

import (
	"fmt"

	"github.com/stoik/mailshield/internal/domain"
)

// BrandImpersonationStrategy detects mail naming a brand it was not sent by
type BrandImpersonationStrategy struct{}

// NewBrandImpersonationStrategy creates a new brand impersonation detection strategy
func NewBrandImpersonationStrategy() *BrandImpersonationStrategy {
	return &BrandImpersonationStrategy{}
}

// Name returns the strategy name
func (s *BrandImpersonationStrategy) Name() string {
	return "Brand Impersonation"
}

// Evaluate checks if the sender or subject names a brand while the sender
// domain is not one of that brand's official domains
func (s *BrandImpersonationStrategy) Evaluate(signal domain.Signal, context *DetectionContext) []domain.Finding {
	brand, ok := context.Brands.MatchImpersonation(signal.SenderDomain, signal.Sender, signal.Subject)
	if !ok {
		return nil
	}

	return []domain.Finding{
		context.finding(domain.FindingBrandImpersonation, domain.SeverityHigh,
			fmt.Sprintf("Possible %s impersonation from %s", brand, signal.SenderDomain)),
	}
}
