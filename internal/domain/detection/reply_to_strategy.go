package detection

import (
	"github.com/stoik/mailshield/internal/domain"
)

// ReplyToStrategy detects Reply-To header mismatches
type ReplyToStrategy struct{}

// NewReplyToStrategy creates a new Reply-To mismatch detection strategy
func NewReplyToStrategy() *ReplyToStrategy {
	return &ReplyToStrategy{}
}

// Name returns the strategy name
func (s *ReplyToStrategy) Name() string {
	return "Reply-To Mismatch"
}

// Evaluate checks if replies would be redirected away from the sender domain
func (s *ReplyToStrategy) Evaluate(signal domain.Signal, context *DetectionContext) []domain.Finding {
	replyTo := signal.Header("Reply-To")
	if replyTo == "" {
		return nil
	}

	if domain.ExtractDomain(replyTo) == signal.SenderDomain {
		return nil
	}

	return []domain.Finding{
		context.finding(domain.FindingReplyToMismatch, domain.SeverityMedium,
			"Reply-To address differs from sender domain"),
	}
}
