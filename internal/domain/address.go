package domain

import (
	"net/mail"
	"strings"
)

// ExtractDomain returns the lowercased domain of an address such as
// "PayPal <service@paypal.com>". Malformed input yields "".
func ExtractDomain(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}

	addr := address
	if parsed, err := mail.ParseAddress(address); err == nil {
		addr = parsed.Address
	} else if start := strings.Index(address, "<"); start >= 0 {
		rest := address[start+1:]
		if end := strings.Index(rest, ">"); end >= 0 {
			addr = rest[:end]
		} else {
			addr = rest
		}
	}

	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return "" // Malformed email address
	}
	domain := strings.ToLower(strings.TrimSpace(addr[at+1:]))
	if domain == "" || strings.ContainsAny(domain, " <>@") {
		return ""
	}
	return domain
}
