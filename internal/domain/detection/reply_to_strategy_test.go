package detection

import (
	"testing"

	"github.com/stoik/mailshield/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestReplyToStrategy_Evaluate(t *testing.T) {
	context := NewDefaultDetectionContext()
	strategy := NewReplyToStrategy()

	tests := []struct {
		name            string
		senderEmail     string
		headers         map[string]string
		expectDetection bool
	}{
		{
			name:            "Reply-To same as sender - no detection",
			senderEmail:     "user@company.com",
			headers:         map[string]string{"Reply-To": "user@company.com"},
			expectDetection: false,
		},
		{
			name:            "Reply-To with display name on sender domain - no detection",
			senderEmail:     "user@company.com",
			headers:         map[string]string{"Reply-To": "Billing <billing@company.com>"},
			expectDetection: false,
		},
		{
			name:            "Reply-To redirects to Gmail - should detect",
			senderEmail:     "ceo@company.com",
			headers:         map[string]string{"Reply-To": "attacker@gmail.com"},
			expectDetection: true,
		},
		{
			name:            "Lowercase header name - should detect",
			senderEmail:     "ceo@company.com",
			headers:         map[string]string{"reply-to": "attacker@gmail.com"},
			expectDetection: true,
		},
		{
			name:            "Empty Reply-To - no detection",
			senderEmail:     "user@company.com",
			headers:         map[string]string{"Reply-To": ""},
			expectDetection: false,
		},
		{
			name:            "No headers - no detection",
			senderEmail:     "user@company.com",
			expectDetection: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := domain.NewSignal(tt.senderEmail, "Hello", tt.headers, nil, nil)
			findings := strategy.Evaluate(signal, context)

			if tt.expectDetection {
				assert.Len(t, findings, 1, "Expected Reply-To mismatch")
				assert.Equal(t, domain.FindingReplyToMismatch, findings[0].Type)
				assert.Equal(t, 15, findings[0].Weight)
			} else {
				assert.Empty(t, findings, "Expected no Reply-To mismatch")
			}
		})
	}
}
