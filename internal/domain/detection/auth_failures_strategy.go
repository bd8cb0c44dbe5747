package detection

import (
	"strings"

	"github.com/stoik/mailshield/internal/domain"
)

// AuthFailuresStrategy detects email authentication failures
//
// Email authentication standards (SPF, DKIM, DMARC) verify that emails are legitimately
// sent from the claimed domain. The verdicts are computed upstream by the receiving MTA;
// this strategy only reads the Authentication-Results header.
type AuthFailuresStrategy struct{}

// NewAuthFailuresStrategy creates a new email authentication failures detection strategy
func NewAuthFailuresStrategy() *AuthFailuresStrategy {
	return &AuthFailuresStrategy{}
}

// Name returns the strategy name
func (s *AuthFailuresStrategy) Name() string {
	return "Authentication Failures"
}

// Evaluate reports each failing mechanism as its own finding
func (s *AuthFailuresStrategy) Evaluate(signal domain.Signal, context *DetectionContext) []domain.Finding {
	authResults := strings.ToLower(signal.Header("Authentication-Results"))
	if authResults == "" {
		return nil
	}

	findings := make([]domain.Finding, 0, 3)

	if strings.Contains(authResults, "spf=fail") || strings.Contains(authResults, "spf=softfail") {
		findings = append(findings, context.finding(domain.FindingSPFFail, domain.SeverityHigh,
			"SPF authentication failed"))
	}

	if strings.Contains(authResults, "dkim=fail") {
		findings = append(findings, context.finding(domain.FindingDKIMFail, domain.SeverityHigh,
			"DKIM verification failed"))
	}

	if strings.Contains(authResults, "dmarc=fail") {
		findings = append(findings, context.finding(domain.FindingDMARCFail, domain.SeverityHigh,
			"DMARC policy failed"))
	}

	return findings
}
