package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		address  string
		expected string
	}{
		{"user@example.com", "example.com"},
		{"PayPal <service@PayPal.com>", "paypal.com"},
		{`"Doe, John" <john@corp.example>`, "corp.example"},
		{"<alerts@secure-paypal.com>", "secure-paypal.com"},
		{"Broken <user@example.com", "example.com"},
		{"not-an-address", ""},
		{"user@", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractDomain(tt.address))
		})
	}
}
