package detection

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var ipv4HostPattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// firstLabel returns the leftmost label of a domain ("paypal" for "paypal.com")
func firstLabel(domain string) string {
	if i := strings.Index(domain, "."); i >= 0 {
		return domain[:i]
	}
	return domain
}

// isIPv4Host reports whether host is a raw dotted IPv4 literal
func isIPv4Host(host string) bool {
	return ipv4HostPattern.MatchString(host)
}

// HostFromURL returns the lowercased host of a link. Links without a scheme
// are treated as http. Unparseable links yield "".
func HostFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
}

// DomainFromURL returns the host of a link without a leading "www."
func DomainFromURL(raw string) string {
	return strings.TrimPrefix(HostFromURL(raw), "www.")
}

// registrableDomain reduces a host to its registrable part
// ("login.paypal.co.uk" -> "paypal.co.uk"), falling back to the host itself
func registrableDomain(host string) string {
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || etld1 == "" {
		return host
	}
	return etld1
}
