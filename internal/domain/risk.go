package domain

// RiskLevel is the categorical verdict derived from a score
type RiskLevel string

const (
	RiskSafe   RiskLevel = "safe"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// MaxScore caps the sum of finding weights
const MaxScore = 100

// LevelForScore converts a risk score to a categorical level
func LevelForScore(score int) RiskLevel {
	switch {
	case score >= 50:
		return RiskHigh
	case score >= 25:
		return RiskMedium
	case score >= 10:
		return RiskLow
	default:
		return RiskSafe
	}
}

// Label returns the mailbox label matching the level
func (l RiskLevel) Label() string {
	switch l {
	case RiskHigh:
		return "🚨 Phishing Alert"
	case RiskMedium, RiskLow:
		return "⚠ Suspicious"
	case RiskSafe:
		return "✅ Verified Safe"
	default:
		return ""
	}
}

// RecommendedAction returns the advisory text shown to the mailbox owner
func (l RiskLevel) RecommendedAction() string {
	switch l {
	case RiskHigh:
		return "Do NOT click any links or download attachments. Report as phishing."
	case RiskMedium:
		return "Exercise caution. Verify sender through official channels."
	case RiskLow:
		return "Minor concerns. Review carefully before responding."
	case RiskSafe:
		return "No threats detected."
	default:
		return "Review carefully."
	}
}

// ExplanationPrefix tags the first line of a human readable explanation
func (l RiskLevel) ExplanationPrefix() string {
	switch l {
	case RiskHigh:
		return "⚠️ HIGH RISK"
	case RiskMedium:
		return "⚠️ CAUTION"
	case RiskLow:
		return "ℹ️ NOTICE"
	case RiskSafe:
		return "✅ SAFE"
	default:
		return ""
	}
}

// IsThreat reports whether the level warrants an alert to the owner
func (l RiskLevel) IsThreat() bool {
	return l == RiskHigh || l == RiskMedium
}
