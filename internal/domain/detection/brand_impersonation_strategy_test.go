package detection

import (
	"testing"

	"github.com/stoik/mailshield/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrandImpersonationStrategy_Evaluate(t *testing.T) {
	context := NewDefaultDetectionContext()
	strategy := NewBrandImpersonationStrategy()

	tests := []struct {
		name                string
		sender              string
		subject             string
		expectedDescription string
	}{
		{
			name:                "Brand in display name from foreign domain",
			sender:              "PayPal Service <service@paypal-security.com>",
			subject:             "Receipt",
			expectedDescription: "Possible Paypal impersonation from paypal-security.com",
		},
		{
			name:                "Brand in subject only",
			sender:              "noreply@shop-deals.com",
			subject:             "Your Netflix membership",
			expectedDescription: "Possible Netflix impersonation from shop-deals.com",
		},
		{
			name:                "Multi-word brand",
			sender:              "alerts@alerts.example",
			subject:             "Bank of America: new statement",
			expectedDescription: "Possible Bank Of America impersonation from alerts.example",
		},
		{
			name:    "Brand sending from its own domain",
			sender:  "PayPal <service@paypal.com>",
			subject: "Receipt",
		},
		{
			name:    "No brand mentioned",
			sender:  "friend@example.com",
			subject: "Lunch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := domain.NewSignal(tt.sender, tt.subject, nil, nil, nil)
			findings := strategy.Evaluate(signal, context)

			if tt.expectedDescription == "" {
				assert.Empty(t, findings)
				return
			}

			require.Len(t, findings, 1)
			assert.Equal(t, domain.FindingBrandImpersonation, findings[0].Type)
			assert.Equal(t, 25, findings[0].Weight)
			assert.Equal(t, tt.expectedDescription, findings[0].Description)
		})
	}
}
