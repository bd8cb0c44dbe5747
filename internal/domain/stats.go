package domain

// SubjectStats are the anonymized running counters of one subject.
// Each unique message increments Scanned and exactly one of the others.
type SubjectStats struct {
	Scanned    int `json:"emails_scanned"`
	Phishing   int `json:"phishing_detected"`
	Suspicious int `json:"suspicious_detected"`
	Safe       int `json:"safe_emails"`
}

// Record accounts for one newly scored message
func (s *SubjectStats) Record(level RiskLevel) {
	s.Scanned++
	switch level {
	case RiskHigh:
		s.Phishing++
	case RiskMedium, RiskLow:
		s.Suspicious++
	default:
		s.Safe++
	}
}
