package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stoik/mailshield/internal/domain"
	"github.com/stoik/mailshield/internal/domain/detection"
	"github.com/stoik/mailshield/internal/metrics"
	"github.com/stoik/mailshield/internal/ports"
)

var (
	// ErrInvalidURL is returned when no host can be extracted from a URL
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidSubject is returned when a subject fails validation
	ErrInvalidSubject = errors.New("invalid subject")
)

const (
	dashboardRecentLimit = 5
	// dashboardScanWindow is how many recent records are searched for threats
	dashboardScanWindow = 50
	// URLHistoryLimit is the default size of the URL scan history
	URLHistoryLimit = 10
)

// ThreatSummary describes one threat found during a mailbox scan.
// It only carries what may be shown to the owner, not message content.
type ThreatSummary struct {
	MessageHash  string           `json:"message_hash"`
	SenderDomain string           `json:"sender_domain"`
	Level        domain.RiskLevel `json:"risk_level"`
	Score        int              `json:"risk_score"`
	Explanation  string           `json:"human_readable"`
	Label        string           `json:"label_to_apply"`
}

// ScanReport summarizes one mailbox scan
type ScanReport struct {
	SubjectID  uuid.UUID       `json:"subject_id"`
	Scanned    int             `json:"emails_scanned"`
	Skipped    int             `json:"already_scanned"`
	Failed     int             `json:"failed"`
	Phishing   int             `json:"phishing_found"`
	Suspicious int             `json:"suspicious_found"`
	Safe       int             `json:"safe_found"`
	Threats    []ThreatSummary `json:"threats"`
}

// URLScanResult is the verdict of the lightweight URL path
type URLScanResult struct {
	URL    string                 `json:"url"`
	Domain string                 `json:"domain"`
	Result domain.DetectionResult `json:"result"`
	IsSafe bool                   `json:"is_safe"`
}

// Dashboard is the per-subject overview
type Dashboard struct {
	Stats          domain.SubjectStats      `json:"stats"`
	LastScanAt     *time.Time               `json:"last_scan_at,omitempty"`
	RiskBreakdown  map[domain.RiskLevel]int `json:"risk_breakdown"`
	RecentThreats  []domain.ScanRecord      `json:"recent_threats"`
	RecentURLScans []domain.URLScanRecord   `json:"recent_url_scans"`
}

// pendingMessage is a message that passed deduplication and awaits scoring
type pendingMessage struct {
	hash   string
	signal domain.Signal
}

// ScanService orchestrates mailbox scans, URL scans and user feedback
type ScanService struct {
	store       ports.Storage
	provider    ports.MailProvider
	notifier    ports.Notifier
	detector    *detection.Detector
	metrics     *metrics.Metrics
	logger      *zap.Logger
	concurrency int
}

// NewScanService creates a new scan service with dependency injection
func NewScanService(
	store ports.Storage,
	provider ports.MailProvider,
	notifier ports.Notifier,
	detector *detection.Detector,
	m *metrics.Metrics,
	logger *zap.Logger,
	concurrency int,
) *ScanService {
	return &ScanService{
		store:       store,
		provider:    provider,
		notifier:    notifier,
		detector:    detector,
		metrics:     m,
		logger:      logger,
		concurrency: concurrency,
	}
}

// ScanEmail scores a single signal without persisting anything
func (s *ScanService) ScanEmail(signal domain.Signal) domain.DetectionResult {
	return s.detector.ScoreEmail(signal)
}

// ScanSubject scans the subject's mailbox for messages not seen before.
//
// Error handling strategy:
//   - Listing failures abort the scan and are returned
//   - Individual message failures are logged and counted but don't halt the scan
//   - Persistence and notification failures never drop a verdict from the report
func (s *ScanService) ScanSubject(ctx context.Context, subjectID uuid.UUID) (*ScanReport, error) {
	start := time.Now()
	defer func() { s.metrics.MailboxScanDuration.Observe(time.Since(start).Seconds()) }()

	subject, err := s.store.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subject: %w", err)
	}

	logger := s.logger.With(zap.String("subject_id", subject.ID.String()))
	logger.Info("Scanning mailbox")

	refs, err := s.provider.ListMessages(ctx, subject)
	if err != nil {
		s.metrics.IncrementScanErrors("list")
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	report := &ScanReport{SubjectID: subject.ID, Threats: []ThreatSummary{}}
	pending := s.collectPending(ctx, logger, subject, refs, report)
	if len(pending) == 0 {
		logger.Info("No new messages", zap.Int("skipped", report.Skipped))
		return report, ctx.Err()
	}

	signals := make([]domain.Signal, len(pending))
	for i, p := range pending {
		signals[i] = p.signal
	}
	results, err := s.detector.ScoreBatch(ctx, signals, s.concurrency)
	if err != nil {
		return report, fmt.Errorf("failed to score messages: %w", err)
	}

	for i, result := range results {
		s.handleResult(ctx, logger, subject, pending[i], result, report)
	}

	logger.Info("Mailbox scan complete",
		zap.Int("scanned", report.Scanned),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("phishing", report.Phishing),
		zap.Int("suspicious", report.Suspicious))
	return report, nil
}

// collectPending drops already-scanned messages and fetches the signals of the rest
func (s *ScanService) collectPending(
	ctx context.Context,
	logger *zap.Logger,
	subject *domain.Subject,
	refs []ports.MessageRef,
	report *ScanReport,
) []pendingMessage {
	pending := make([]pendingMessage, 0, len(refs))
	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}

		hash := domain.HashMessageID(ref.ID)
		exists, err := s.store.ScanExists(ctx, hash)
		if err != nil {
			logger.Warn("Failed to check scan history", zap.String("message_hash", hash), zap.Error(err))
			s.metrics.IncrementScanErrors("dedupe")
			report.Failed++
			continue
		}
		if exists {
			s.metrics.IncrementDuplicatesSkipped()
			report.Skipped++
			continue
		}

		signal, err := s.provider.FetchSignal(ctx, subject, ref)
		if err != nil {
			logger.Warn("Failed to fetch message", zap.String("message_hash", hash), zap.Error(err))
			s.metrics.IncrementScanErrors("fetch")
			report.Failed++
			continue // Don't fail the entire scan if one message fails
		}
		pending = append(pending, pendingMessage{hash: hash, signal: signal})
	}
	return pending
}

// handleResult persists, counts and, past the subject's threshold, notifies one verdict
func (s *ScanService) handleResult(
	ctx context.Context,
	logger *zap.Logger,
	subject *domain.Subject,
	msg pendingMessage,
	result domain.DetectionResult,
	report *ScanReport,
) {
	inserted, err := s.store.RecordScan(ctx, domain.NewScanRecord(subject.ID, msg.hash, result))
	if err != nil {
		logger.Error("Failed to record scan", zap.String("message_hash", msg.hash), zap.Error(err))
		s.metrics.IncrementScanErrors("record")
	} else if !inserted {
		// Recorded concurrently by another scan since the dedupe check
		s.metrics.IncrementDuplicatesSkipped()
		report.Skipped++
		return
	}

	report.Scanned++
	s.metrics.ObserveEmailScan(result.Level)
	switch result.Level {
	case domain.RiskHigh:
		report.Phishing++
	case domain.RiskMedium, domain.RiskLow:
		report.Suspicious++
	default:
		report.Safe++
	}

	if result.Level.IsThreat() {
		report.Threats = append(report.Threats, ThreatSummary{
			MessageHash:  msg.hash,
			SenderDomain: msg.signal.SenderDomain,
			Level:        result.Level,
			Score:        result.Score,
			Explanation:  result.Explanation,
			Label:        result.Label,
		})
	}

	if !subject.ShouldNotify(result.Level) {
		return
	}
	alert := ports.Alert{
		SubjectID:    subject.ID,
		MessageHash:  msg.hash,
		SenderDomain: msg.signal.SenderDomain,
		Level:        result.Level,
		Score:        result.Score,
		Explanation:  result.Explanation,
		Label:        result.Label,
		DetectedAt:   time.Now().UTC(),
	}
	if err := s.notifier.Notify(ctx, subject, alert); err != nil {
		logger.Warn("Failed to notify subject", zap.String("message_hash", msg.hash), zap.Error(err))
		s.metrics.IncrementScanErrors("notify")
		return
	}
	s.metrics.IncrementNotifications()
}

// ScanURL scores the domain of rawURL and appends it to the URL history.
// A failed history write is logged, never returned.
func (s *ScanService) ScanURL(ctx context.Context, rawURL string, subjectID *uuid.UUID) (*URLScanResult, error) {
	host := detection.DomainFromURL(rawURL)
	if host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	result := s.detector.ScoreDomain(domain.DomainSignal{Domain: host})
	s.metrics.ObserveURLScan(result.Level)

	record := &domain.URLScanRecord{
		ID:           uuid.New(),
		SubjectID:    subjectID,
		URL:          rawURL,
		Domain:       host,
		Level:        result.Level,
		Score:        result.Score,
		FindingTypes: result.FindingTypes(),
		ScannedAt:    time.Now().UTC(),
	}
	if err := s.store.RecordURLScan(ctx, record); err != nil {
		s.logger.Warn("Failed to record url scan", zap.String("domain", host), zap.Error(err))
		s.metrics.IncrementScanErrors("record_url")
	}

	return &URLScanResult{
		URL:    rawURL,
		Domain: host,
		Result: result,
		IsSafe: result.Level == domain.RiskSafe,
	}, nil
}

// RecentURLScans returns the subject's URL history, newest first.
// Anonymous callers get an empty history.
func (s *ScanService) RecentURLScans(ctx context.Context, subjectID *uuid.UUID, limit int) ([]domain.URLScanRecord, error) {
	if subjectID == nil {
		return []domain.URLScanRecord{}, nil
	}
	if limit <= 0 {
		limit = URLHistoryLimit
	}
	records, err := s.store.RecentURLScans(ctx, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load url history: %w", err)
	}
	return records, nil
}

// MarkSafe records that the owner considers a message safe.
// messageID is the provider message id; it is hashed before lookup.
func (s *ScanService) MarkSafe(ctx context.Context, subjectID uuid.UUID, messageID string) error {
	if err := s.store.MarkSafe(ctx, subjectID, domain.HashMessageID(messageID)); err != nil {
		return fmt.Errorf("failed to mark message safe: %w", err)
	}
	return nil
}

// ReportPhishing records that the owner reported a message as phishing
func (s *ScanService) ReportPhishing(ctx context.Context, subjectID uuid.UUID, messageID string) error {
	if err := s.store.ReportPhishing(ctx, subjectID, domain.HashMessageID(messageID)); err != nil {
		return fmt.Errorf("failed to report phishing: %w", err)
	}
	return nil
}

// Dashboard assembles the subject's counters, recent threats and URL history
func (s *ScanService) Dashboard(ctx context.Context, subjectID uuid.UUID) (*Dashboard, error) {
	subject, err := s.store.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subject: %w", err)
	}

	scans, err := s.store.RecentScans(ctx, subjectID, dashboardScanWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent scans: %w", err)
	}
	threats := make([]domain.ScanRecord, 0, dashboardRecentLimit)
	for _, r := range scans {
		if len(threats) == dashboardRecentLimit {
			break
		}
		if r.Level.IsThreat() {
			threats = append(threats, r)
		}
	}

	urlScans, err := s.store.RecentURLScans(ctx, &subjectID, dashboardRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load url history: %w", err)
	}

	stats := subject.Stats
	// Safe is derived so the breakdown always adds up to Scanned
	stats.Safe = stats.Scanned - stats.Phishing - stats.Suspicious

	return &Dashboard{
		Stats:      stats,
		LastScanAt: subject.LastScanAt,
		RiskBreakdown: map[domain.RiskLevel]int{
			domain.RiskHigh:   stats.Phishing,
			domain.RiskMedium: stats.Suspicious,
			domain.RiskSafe:   stats.Safe,
		},
		RecentThreats:  threats,
		RecentURLScans: urlScans,
	}, nil
}

// RegisterSubject creates or updates a monitored mailbox
func (s *ScanService) RegisterSubject(ctx context.Context, subject *domain.Subject) error {
	switch subject.NotificationLevel {
	case domain.NotifyAll, domain.NotifyMedium, domain.NotifyHigh:
	case "":
		subject.NotificationLevel = domain.NotifyHigh
	default:
		return fmt.Errorf("%w: unknown notification level %q", ErrInvalidSubject, subject.NotificationLevel)
	}
	if domain.ExtractDomain(subject.Email) == "" {
		return fmt.Errorf("%w: bad email %q", ErrInvalidSubject, subject.Email)
	}
	if err := s.store.CreateSubject(ctx, subject); err != nil {
		return fmt.Errorf("failed to register subject: %w", err)
	}
	return nil
}

// ListSubjects returns every monitored mailbox
func (s *ScanService) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	return s.store.ListSubjects(ctx)
}

// GetSubject returns one monitored mailbox
func (s *ScanService) GetSubject(ctx context.Context, subjectID uuid.UUID) (*domain.Subject, error) {
	return s.store.GetSubject(ctx, subjectID)
}
