package detection

import (
	"fmt"
	"strings"

	"github.com/stoik/mailshield/internal/domain"
)

// dangerousExtensions can run code on the victim's machine.
// Checked in order; the first suffix match is the one reported.
var dangerousExtensions = []string{
	".exe", ".scr", ".bat", ".cmd", ".com", ".pif", ".vbs", ".js",
	".jar", ".msi", ".dll", ".ps1", ".hta", ".iso", ".img", ".vbe",
	".wsf", ".wsh", ".msc", ".cpl", ".reg", ".inf", ".scf", ".lnk",
}

// AttachmentStrategy detects suspicious attachment types
//
// Attack pattern: Malicious attachments are the #1 malware delivery method
type AttachmentStrategy struct {
	bareExtensions map[string]struct{}
}

// NewAttachmentStrategy creates a new suspicious attachments detection strategy
func NewAttachmentStrategy() *AttachmentStrategy {
	bare := make(map[string]struct{}, len(dangerousExtensions))
	for _, ext := range dangerousExtensions {
		bare[strings.TrimPrefix(ext, ".")] = struct{}{}
	}
	return &AttachmentStrategy{bareExtensions: bare}
}

// Name returns the strategy name
func (s *AttachmentStrategy) Name() string {
	return "Suspicious Attachments"
}

// Evaluate checks every attachment for a dangerous type and, independently,
// for a dangerous extension hidden behind a harmless one (invoice.pdf.exe)
func (s *AttachmentStrategy) Evaluate(signal domain.Signal, context *DetectionContext) []domain.Finding {
	var findings []domain.Finding

	for _, name := range signal.AttachmentNames {
		filename := strings.ToLower(name)

		for _, ext := range dangerousExtensions {
			if strings.HasSuffix(filename, ext) {
				findings = append(findings, context.finding(domain.FindingDangerousAttachment, domain.SeverityCritical,
					fmt.Sprintf("Dangerous file type: %s", ext)))
				break
			}
		}

		// Legitimate files rarely have multiple extensions
		if strings.Count(filename, ".") >= 2 {
			parts := strings.Split(filename, ".")
			if _, ok := s.bareExtensions[parts[len(parts)-1]]; ok {
				findings = append(findings, context.finding(domain.FindingDoubleExtension, domain.SeverityHigh,
					fmt.Sprintf("Hidden file extension detected: %s", name)))
			}
		}
	}

	return findings
}
