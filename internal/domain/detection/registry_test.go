package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrandRegistry_MatchTyposquat(t *testing.T) {
	registry := NewBrandRegistry(DefaultBrands)

	tests := []struct {
		label         string
		expectedBrand string
		expectMatch   bool
	}{
		{"secure-paypal", "paypal", true},
		{"paypal-login", "paypal", true},
		{"paypals", "paypal", true},
		{"paypa", "paypal", true},
		{"paypall", "paypal", true},
		{"paypa1", "paypal", true},
		{"micr0s0ft", "microsoft", true},
		{"login-netflix", "netflix", true},
		{"example", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			brand, ok := registry.MatchTyposquat(tt.label)
			assert.Equal(t, tt.expectMatch, ok)
			assert.Equal(t, tt.expectedBrand, brand)
		})
	}
}

func TestBrandRegistry_IsOfficial(t *testing.T) {
	registry := NewBrandRegistry(DefaultBrands)

	assert.True(t, registry.IsOfficial("paypal.com"))
	assert.True(t, registry.IsOfficial("icloud.com"))
	assert.False(t, registry.IsOfficial("paypal-security.com"))
	assert.False(t, registry.IsOfficial(""))
}

func TestBrandRegistry_MatchLookalike(t *testing.T) {
	registry := NewBrandRegistry(DefaultBrands)

	brand, ok := registry.MatchLookalike("paypal-security.com")
	assert.True(t, ok)
	assert.Equal(t, "paypal", brand)

	brand, ok = registry.MatchLookalike("bankofamerica-alerts.com")
	assert.True(t, ok)
	assert.Equal(t, "bank of america", brand)

	_, ok = registry.MatchLookalike("example.com")
	assert.False(t, ok)
}

func TestBrandRegistry_MatchImpersonation(t *testing.T) {
	registry := NewBrandRegistry(DefaultBrands)

	brand, ok := registry.MatchImpersonation("evil.com", "PayPal Support <help@evil.com>", "Hello")
	assert.True(t, ok)
	assert.Equal(t, "Paypal", brand)

	// An official sender for the first brand does not hide a second one
	brand, ok = registry.MatchImpersonation("paypal.com", "PayPal <service@paypal.com>", "Your Amazon order")
	assert.True(t, ok)
	assert.Equal(t, "Amazon", brand)

	brand, ok = registry.MatchImpersonation("alerts.example", "alerts@alerts.example", "Wells Fargo statement")
	assert.True(t, ok)
	assert.Equal(t, "Wells Fargo", brand)

	_, ok = registry.MatchImpersonation("paypal.com", "PayPal <service@paypal.com>", "Receipt")
	assert.False(t, ok)
}
