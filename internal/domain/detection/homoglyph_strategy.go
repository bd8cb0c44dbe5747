package detection

import (
	"fmt"
	"strings"

	"github.com/stoik/mailshield/internal/domain"
)

// HomoglyphStrategy detects sender domains spelled with lookalike characters
//
// Attack pattern: "pаypal.com" with a Cyrillic "а", or "paypa1-security.com"
type HomoglyphStrategy struct{}

// NewHomoglyphStrategy creates a new homoglyph detection strategy
func NewHomoglyphStrategy() *HomoglyphStrategy {
	return &HomoglyphStrategy{}
}

// Name returns the strategy name
func (s *HomoglyphStrategy) Name() string {
	return "Homoglyph Attack"
}

// Evaluate checks the sender domain for confusable characters
func (s *HomoglyphStrategy) Evaluate(signal domain.Signal, context *DetectionContext) []domain.Finding {
	description, ok := lookalikeDomain(signal.SenderDomain, context)
	if !ok {
		return nil
	}
	return []domain.Finding{
		context.finding(domain.FindingHomoglyphAttack, domain.SeverityCritical, description),
	}
}

// lookalikeDomain reports whether domain hides a brand behind confusable
// characters and describes what it imitates
func lookalikeDomain(host string, context *DetectionContext) (string, bool) {
	original := strings.ToLower(host)
	if original == "" {
		return "", false
	}

	normalized := context.Normalizer.Normalize(original)
	if normalized == original {
		return "", false
	}

	// Letter pairs such as "rn" read as "m" only help name the brand
	for _, candidate := range []string{normalized, context.Normalizer.NormalizeSequences(original)} {
		if brand, ok := context.Brands.MatchLookalike(candidate); ok {
			return fmt.Sprintf("Domain uses lookalike characters to impersonate %s", brand), true
		}
	}
	return "Domain contains suspicious Unicode characters", true
}
