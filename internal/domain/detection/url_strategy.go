package detection

import (
	"github.com/stoik/mailshield/internal/domain"
)

// maxLinksInspected bounds the per-message URL work
const maxLinksInspected = 5

var urlShorteners = map[string]struct{}{
	"bit.ly": {}, "tinyurl.com": {}, "goo.gl": {}, "t.co": {}, "ow.ly": {}, "is.gd": {},
	"buff.ly": {}, "adf.ly": {}, "j.mp": {}, "tr.im": {}, "cli.gs": {}, "short.to": {},
	"v.gd": {}, "tiny.cc": {}, "bc.vc": {}, "cutt.ly": {}, "rb.gy": {}, "shorturl.at": {},
}

// URLStrategy inspects the shape of the links in a message
type URLStrategy struct{}

// NewURLStrategy creates a new link inspection strategy
func NewURLStrategy() *URLStrategy {
	return &URLStrategy{}
}

// Name returns the strategy name
func (s *URLStrategy) Name() string {
	return "Suspicious Links"
}

// Evaluate checks the first links for lookalike domains, URL shorteners
// and raw IPv4 hosts. Unparseable links are skipped.
func (s *URLStrategy) Evaluate(signal domain.Signal, context *DetectionContext) []domain.Finding {
	links := signal.Links
	if len(links) > maxLinksInspected {
		links = links[:maxLinksInspected]
	}

	var findings []domain.Finding
	for _, link := range links {
		host := HostFromURL(link)
		if host == "" {
			continue
		}

		ipHost := isIPv4Host(host)
		linkDomain := host
		if !ipHost {
			linkDomain = registrableDomain(host)
		}

		// Every check runs on every link: an IP host also goes through the
		// lookalike check, where its digits read as letters
		if description, ok := lookalikeDomain(linkDomain, context); ok {
			findings = append(findings, context.finding(domain.FindingHomoglyphURL, domain.SeverityCritical, description))
		}

		if _, ok := urlShorteners[linkDomain]; ok {
			findings = append(findings, context.finding(domain.FindingURLShortener, domain.SeverityMedium,
				"Link uses URL shortener"))
		}

		if ipHost {
			findings = append(findings, context.finding(domain.FindingIPURL, domain.SeverityHigh,
				"Link uses IP address"))
		}
	}

	return findings
}
