package detection

import (
	"testing"

	"github.com/stoik/mailshield/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTyposquattingStrategy_Evaluate(t *testing.T) {
	context := NewDefaultDetectionContext()
	strategy := NewTyposquattingStrategy()

	tests := []struct {
		name            string
		sender          string
		expectDetection bool
		expectedBrand   string
	}{
		{
			name:            "Official domain - no detection",
			sender:          "service@paypal.com",
			expectDetection: false,
		},
		{
			name:            "Prefixed brand - should detect",
			sender:          "alerts@secure-paypal.com",
			expectDetection: true,
			expectedBrand:   "paypal",
		},
		{
			name:            "Suffixed brand - should detect",
			sender:          "noreply@paypal-login.net",
			expectDetection: true,
			expectedBrand:   "paypal",
		},
		{
			name:            "Digit substitution - should detect",
			sender:          "support@micr0s0ft.com",
			expectDetection: true,
			expectedBrand:   "microsoft",
		},
		{
			name:            "Secondary official domain - no detection",
			sender:          "someone@live.com",
			expectDetection: false,
		},
		{
			name:            "Unrelated domain - no detection",
			sender:          "friend@example.com",
			expectDetection: false,
		},
		{
			name:            "Malformed sender - no detection",
			sender:          "not-an-address",
			expectDetection: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := domain.NewSignal(tt.sender, "Hello", nil, nil, nil)
			findings := strategy.Evaluate(signal, context)

			if !tt.expectDetection {
				assert.Empty(t, findings, "Expected no typosquatting for %s", tt.sender)
				return
			}

			require.Len(t, findings, 1, "Expected typosquatting for %s", tt.sender)
			assert.Equal(t, domain.FindingTyposquatting, findings[0].Type)
			assert.Equal(t, 25, findings[0].Weight)
			assert.Equal(t, "Possible typosquatting of "+tt.expectedBrand, findings[0].Description)
		})
	}
}
