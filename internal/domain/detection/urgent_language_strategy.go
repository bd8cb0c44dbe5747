package detection

import (
	"regexp"

	"github.com/stoik/mailshield/internal/domain"
)

// urgentPatterns are matched case-insensitively against the subject line
var urgentPatterns = []string{
	`\b(urgent|immediately|suspended|locked|verify now|confirm now)\b`,
	`\b(account.*(suspend|terminat|clos|lock))`,
	`\b(action required|immediate action|respond immediately)\b`,
	`\b(your account (has been|will be|is) (suspended|locked|closed))\b`,
	`\b(within \d+ hours?|expires? (today|soon|immediately))\b`,
	`\b(unauthorized|unusual|suspicious) (activity|access|login)\b`,
	`\b(click (here|below|now) to (verify|confirm|secure))\b`,
	`\b(failure to (verify|confirm|respond).*result in)\b`,
	`\b(last warning|final notice|urgent notice)\b`,
	`\b(security alert|security warning|account compromised)\b`,
}

// UrgentLanguageStrategy detects pressure and threat phrasing in the subject
//
// Attack pattern: "Your account will be suspended in 24 hours!"
type UrgentLanguageStrategy struct {
	patterns []*regexp.Regexp
}

// NewUrgentLanguageStrategy compiles the subject patterns once
func NewUrgentLanguageStrategy() *UrgentLanguageStrategy {
	patterns := make([]*regexp.Regexp, 0, len(urgentPatterns))
	for _, p := range urgentPatterns {
		patterns = append(patterns, regexp.MustCompile(`(?i)`+p))
	}
	return &UrgentLanguageStrategy{patterns: patterns}
}

// Name returns the strategy name
func (s *UrgentLanguageStrategy) Name() string {
	return "Urgent Language"
}

// Evaluate emits at most one finding, however many patterns match
func (s *UrgentLanguageStrategy) Evaluate(signal domain.Signal, context *DetectionContext) []domain.Finding {
	for _, re := range s.patterns {
		if re.MatchString(signal.Subject) {
			return []domain.Finding{
				context.finding(domain.FindingUrgentLanguage, domain.SeverityHigh,
					"Subject contains urgent or threatening language"),
			}
		}
	}
	return nil
}
