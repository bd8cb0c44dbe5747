package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity grades a single finding
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// FindingType identifies the detector signal that produced a finding.
// Only the type is ever persisted, never the description.
type FindingType string

const (
	FindingHomoglyphAttack     FindingType = "homoglyph_attack"
	FindingTyposquatting       FindingType = "typosquatting"
	FindingIDNHomograph        FindingType = "idn_homograph"
	FindingUrgentLanguage      FindingType = "urgent_language"
	FindingBrandImpersonation  FindingType = "brand_impersonation"
	FindingSPFFail             FindingType = "spf_fail"
	FindingDKIMFail            FindingType = "dkim_fail"
	FindingDMARCFail           FindingType = "dmarc_fail"
	FindingDangerousAttachment FindingType = "dangerous_attachment"
	FindingDoubleExtension     FindingType = "double_extension"
	FindingHomoglyphURL        FindingType = "homoglyph_url"
	FindingURLShortener        FindingType = "url_shortener"
	FindingIPURL               FindingType = "ip_url"
	FindingReplyToMismatch     FindingType = "reply_to_mismatch"
)

// Signal is everything the mail collaborator knows about one message that
// the scorer needs. It is built once per message and never persisted.
type Signal struct {
	Sender          string            `json:"sender"`
	SenderDomain    string            `json:"sender_domain,omitempty"`
	Subject         string            `json:"subject"`
	Headers         map[string]string `json:"headers,omitempty"`
	AttachmentNames []string          `json:"attachment_names,omitempty"`
	Links           []string          `json:"links,omitempty"`
}

// NewSignal builds a Signal and derives the sender domain
func NewSignal(sender, subject string, headers map[string]string, attachments, links []string) Signal {
	return Signal{
		Sender:          sender,
		SenderDomain:    ExtractDomain(sender),
		Subject:         subject,
		Headers:         headers,
		AttachmentNames: attachments,
		Links:           links,
	}
}

// Header looks a header up case-insensitively
func (s Signal) Header(name string) string {
	if v, ok := s.Headers[name]; ok {
		return v
	}
	for k, v := range s.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// DomainSignal is the input of the lightweight URL-only path
type DomainSignal struct {
	Domain string `json:"domain"`
}

// Finding is a single piece of evidence emitted by one detector
type Finding struct {
	Type        FindingType `json:"type"`
	Severity    Severity    `json:"severity"`
	Description string      `json:"description"`
	Weight      int         `json:"weight"`
}

// DetectionResult is the explainable verdict for one Signal
type DetectionResult struct {
	Score             int       `json:"risk_score"` // 0 to 100
	Level             RiskLevel `json:"risk_level"`
	Findings          []Finding `json:"detection_reasons"`
	Explanation       string    `json:"human_readable"`
	RecommendedAction string    `json:"recommended_action"`
	Label             string    `json:"label_to_apply"`
}

// FindingTypes returns the finding types in evaluation order
func (r DetectionResult) FindingTypes() []FindingType {
	types := make([]FindingType, 0, len(r.Findings))
	for _, f := range r.Findings {
		types = append(types, f.Type)
	}
	return types
}

// NotificationLevel is the minimum risk a subject wants to be alerted about
type NotificationLevel string

const (
	NotifyAll    NotificationLevel = "all"
	NotifyMedium NotificationLevel = "medium"
	NotifyHigh   NotificationLevel = "high"
)

// Subject is a monitored mailbox owner
type Subject struct {
	ID                   uuid.UUID         `json:"id"`
	Email                string            `json:"email"`
	DisplayName          string            `json:"display_name,omitempty"`
	Credentials          string            `json:"-"` // mailbox secret, never expose in JSON
	NotificationsEnabled bool              `json:"notifications_enabled"`
	NotificationLevel    NotificationLevel `json:"notification_level"`
	Stats                SubjectStats      `json:"stats"`
	CreatedAt            time.Time         `json:"created_at"`
	LastScanAt           *time.Time        `json:"last_scan_at,omitempty"`
}

// ShouldNotify reports whether a result at level crosses the subject's threshold
func (s *Subject) ShouldNotify(level RiskLevel) bool {
	if !s.NotificationsEnabled {
		return false
	}
	switch s.NotificationLevel {
	case NotifyAll:
		return level != RiskSafe
	case NotifyMedium:
		return level == RiskHigh || level == RiskMedium
	case NotifyHigh:
		return level == RiskHigh
	default:
		return false
	}
}

// ScanRecord is the persisted trace of one evaluated message.
// MessageHash is the only message identifier ever stored.
type ScanRecord struct {
	ID                   uuid.UUID     `json:"id"`
	SubjectID            uuid.UUID     `json:"subject_id"`
	MessageHash          string        `json:"message_hash"`
	Level                RiskLevel     `json:"risk_level"`
	Score                int           `json:"risk_score"`
	FindingTypes         []FindingType `json:"finding_types"`
	AppliedLabel         string        `json:"applied_label,omitempty"`
	UserMarkedSafe       bool          `json:"user_marked_safe"`
	UserReportedPhishing bool          `json:"user_reported_phishing"`
	ScannedAt            time.Time     `json:"scanned_at"`
}

// NewScanRecord derives a ScanRecord from a result, dropping descriptions
func NewScanRecord(subjectID uuid.UUID, messageHash string, result DetectionResult) *ScanRecord {
	return &ScanRecord{
		ID:           uuid.New(),
		SubjectID:    subjectID,
		MessageHash:  messageHash,
		Level:        result.Level,
		Score:        result.Score,
		FindingTypes: result.FindingTypes(),
		AppliedLabel: result.Label,
		ScannedAt:    time.Now().UTC(),
	}
}

// URLScanRecord is one entry of the URL scan history
type URLScanRecord struct {
	ID           uuid.UUID     `json:"id"`
	SubjectID    *uuid.UUID    `json:"subject_id,omitempty"`
	URL          string        `json:"url"`
	Domain       string        `json:"domain"`
	Level        RiskLevel     `json:"risk_level"`
	Score        int           `json:"risk_score"`
	FindingTypes []FindingType `json:"finding_types"`
	ScannedAt    time.Time     `json:"scanned_at"`
}
