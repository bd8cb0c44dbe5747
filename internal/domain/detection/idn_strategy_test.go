package detection

import (
	"testing"

	"github.com/stoik/mailshield/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDNHomographStrategy_Evaluate(t *testing.T) {
	context := NewDefaultDetectionContext()
	strategy := NewIDNHomographStrategy()

	findings := strategy.Evaluate(domain.Signal{SenderDomain: "xn--80ak6aa92e.com"}, context)
	require.Len(t, findings, 1)
	assert.Equal(t, domain.FindingIDNHomograph, findings[0].Type)
	assert.Equal(t, 30, findings[0].Weight)
	assert.Contains(t, findings[0].Description, "Punycode domain detected: xn--80ak6aa92e.com decodes to ")

	assert.Empty(t, strategy.Evaluate(domain.Signal{SenderDomain: "paypal.com"}, context))
	assert.Empty(t, strategy.Evaluate(domain.Signal{SenderDomain: "xn--zz!!.com"}, context),
		"Undecodable punycode is not a finding")
	assert.Empty(t, strategy.Evaluate(domain.Signal{}, context))
}
