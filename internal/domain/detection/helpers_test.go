package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHostFromURL(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"https://www.PayPal.com/signin?x=1", "www.paypal.com"},
		{"http://192.168.1.10:8080/login", "192.168.1.10"},
		{"paypal-login.net/verify", "paypal-login.net"},
		{"https://example.com./path", "example.com"},
		{"", ""},
		{"http://[::1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, HostFromURL(tt.raw))
		})
	}
}

func TestDomainFromURL_StripsWWW(t *testing.T) {
	assert.Equal(t, "paypal.com", DomainFromURL("https://www.paypal.com/login"))
	assert.Equal(t, "secure-paypal.com", DomainFromURL("secure-paypal.com"))
}

func TestRegistrableDomain(t *testing.T) {
	assert.Equal(t, "paypal.co.uk", registrableDomain("login.paypal.co.uk"))
	assert.Equal(t, "bit.ly", registrableDomain("bit.ly"))
	assert.Equal(t, "localhost", registrableDomain("localhost"))
}

func TestFirstLabel(t *testing.T) {
	assert.Equal(t, "paypal", firstLabel("paypal.com"))
	assert.Equal(t, "secure-paypal", firstLabel("secure-paypal.co.uk"))
	assert.Equal(t, "localhost", firstLabel("localhost"))
	assert.Equal(t, "", firstLabel(""))
}

func TestIsIPv4Host(t *testing.T) {
	assert.True(t, isIPv4Host("10.0.0.1"))
	assert.False(t, isIPv4Host("10.0.0.1.evil.com"))
	assert.False(t, isIPv4Host("example.com"))
}
