package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stoik/mailshield/internal/domain"
)

// dialect captures what differs between the SQL backends
type dialect struct {
	name   string
	schema string

	// numbered placeholders ($1, $2...) instead of ?
	numbered bool

	// encodeTypes and decodeTypes move finding types in and out of a column
	encodeTypes func(types []domain.FindingType) (any, error)
	decodeTypes func(dst *[]domain.FindingType) sql.Scanner
}

// sqlStore implements ports.Storage on top of database/sql.
// Queries are written with ? placeholders and rebound per dialect.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
}

// rebind rewrites ? placeholders for dialects that number them
func (s *sqlStore) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the database connection
func (s *sqlStore) Close() error {
	return s.db.Close()
}

// InitSchema creates database tables if they don't exist
// In production, use proper migration tools
func (s *sqlStore) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.schema); err != nil {
		return fmt.Errorf("failed to init %s schema: %w", s.dialect.name, err)
	}
	return nil
}

// CreateSubject inserts a subject, updating its profile when the email is known
func (s *sqlStore) CreateSubject(ctx context.Context, subject *domain.Subject) error {
	if subject.ID == uuid.Nil {
		subject.ID = uuid.New()
	}
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now().UTC()
	}

	query := s.rebind(`
		INSERT INTO subjects (
			id, email, display_name, credentials, notifications_enabled, notification_level,
			emails_scanned, phishing_detected, suspicious_detected, safe_emails, created_at
		) VALUES (?, ?, ?, ?, ?, ?, 0, 0, 0, 0, ?)
		ON CONFLICT (email) DO UPDATE
		SET display_name = excluded.display_name,
		    credentials = excluded.credentials,
		    notifications_enabled = excluded.notifications_enabled,
		    notification_level = excluded.notification_level
	`)
	_, err := s.db.ExecContext(ctx, query,
		subject.ID, subject.Email, subject.DisplayName, subject.Credentials,
		subject.NotificationsEnabled, string(subject.NotificationLevel), subject.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subject %s: %w", subject.Email, err)
	}

	// An existing row keeps its identity
	lookup := s.rebind(`SELECT id, created_at FROM subjects WHERE email = ?`)
	if err := s.db.QueryRowContext(ctx, lookup, subject.Email).Scan(&subject.ID, &subject.CreatedAt); err != nil {
		return fmt.Errorf("failed to reload subject %s: %w", subject.Email, err)
	}
	return nil
}

const subjectColumns = `id, email, display_name, credentials, notifications_enabled, notification_level,
	emails_scanned, phishing_detected, suspicious_detected, safe_emails, created_at, last_scan_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubject(row rowScanner) (*domain.Subject, error) {
	subject := &domain.Subject{}
	var level string
	var lastScan sql.NullTime

	err := row.Scan(
		&subject.ID, &subject.Email, &subject.DisplayName, &subject.Credentials,
		&subject.NotificationsEnabled, &level,
		&subject.Stats.Scanned, &subject.Stats.Phishing, &subject.Stats.Suspicious, &subject.Stats.Safe,
		&subject.CreatedAt, &lastScan,
	)
	if err != nil {
		return nil, err
	}

	subject.NotificationLevel = domain.NotificationLevel(level)
	if lastScan.Valid {
		t := lastScan.Time
		subject.LastScanAt = &t
	}
	return subject, nil
}

// GetSubject retrieves a subject by ID
func (s *sqlStore) GetSubject(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	query := s.rebind(`SELECT ` + subjectColumns + ` FROM subjects WHERE id = ?`)

	subject, err := scanSubject(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSubjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject %s: %w", id, err)
	}
	return subject, nil
}

// ListSubjects returns every subject, oldest first
func (s *sqlStore) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	defer rows.Close()

	subjects := make([]domain.Subject, 0)
	for rows.Next() {
		subject, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, *subject)
	}
	return subjects, rows.Err()
}

// ScanExists reports whether a message hash was already recorded
func (s *sqlStore) ScanExists(ctx context.Context, messageHash string) (bool, error) {
	query := s.rebind(`SELECT 1 FROM scan_records WHERE message_hash = ?`)

	var one int
	err := s.db.QueryRowContext(ctx, query, messageHash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check scan record: %w", err)
	}
	return true, nil
}

// RecordScan inserts the record if its hash is new and bumps the subject's
// counters in the same transaction
func (s *sqlStore) RecordScan(ctx context.Context, record *domain.ScanRecord) (bool, error) {
	types, err := s.dialect.encodeTypes(record.FindingTypes)
	if err != nil {
		return false, fmt.Errorf("failed to encode finding types: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	insert := s.rebind(`
		INSERT INTO scan_records (
			id, subject_id, message_hash, risk_level, risk_score, finding_types,
			applied_label, user_marked_safe, user_reported_phishing, scanned_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (message_hash) DO NOTHING
	`)
	res, err := tx.ExecContext(ctx, insert,
		record.ID, record.SubjectID, record.MessageHash, string(record.Level), record.Score, types,
		record.AppliedLabel, record.UserMarkedSafe, record.UserReportedPhishing, record.ScannedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert scan record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 0 {
		// Already scanned: counters stay untouched
		return false, tx.Commit()
	}

	var delta domain.SubjectStats
	delta.Record(record.Level)

	update := s.rebind(`
		UPDATE subjects
		SET emails_scanned = emails_scanned + ?,
		    phishing_detected = phishing_detected + ?,
		    suspicious_detected = suspicious_detected + ?,
		    safe_emails = safe_emails + ?,
		    last_scan_at = ?
		WHERE id = ?
	`)
	res, err = tx.ExecContext(ctx, update,
		delta.Scanned, delta.Phishing, delta.Suspicious, delta.Safe, record.ScannedAt, record.SubjectID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update subject stats: %w", err)
	}
	if affected, err = res.RowsAffected(); err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return false, domain.ErrSubjectNotFound
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit scan record: %w", err)
	}
	return true, nil
}

// MarkSafe records the user's override on a scan
func (s *sqlStore) MarkSafe(ctx context.Context, subjectID uuid.UUID, messageHash string) error {
	return s.updateScan(ctx, `SET user_marked_safe = ?`, []any{true}, subjectID, messageHash)
}

// ReportPhishing records the user's phishing report on a scan and raises
// its level to high. Counters are left as they were at scan time.
func (s *sqlStore) ReportPhishing(ctx context.Context, subjectID uuid.UUID, messageHash string) error {
	return s.updateScan(ctx, `SET user_reported_phishing = ?, risk_level = ?`,
		[]any{true, string(domain.RiskHigh)}, subjectID, messageHash)
}

// updateScan applies a fixed SET clause to the subject's record for messageHash
func (s *sqlStore) updateScan(ctx context.Context, set string, args []any, subjectID uuid.UUID, messageHash string) error {
	query := s.rebind(`UPDATE scan_records ` + set + ` WHERE subject_id = ? AND message_hash = ?`)

	res, err := s.db.ExecContext(ctx, query, append(args, subjectID, messageHash)...)
	if err != nil {
		return fmt.Errorf("failed to update scan record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrScanNotFound
	}
	return nil
}

// RecentScans returns the latest scan records of a subject, newest first
func (s *sqlStore) RecentScans(ctx context.Context, subjectID uuid.UUID, limit int) ([]domain.ScanRecord, error) {
	query := s.rebind(`
		SELECT id, subject_id, message_hash, risk_level, risk_score, finding_types,
		       applied_label, user_marked_safe, user_reported_phishing, scanned_at
		FROM scan_records
		WHERE subject_id = ?
		ORDER BY scanned_at DESC
		LIMIT ?
	`)
	rows, err := s.db.QueryContext(ctx, query, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent scans: %w", err)
	}
	defer rows.Close()

	records := make([]domain.ScanRecord, 0)
	for rows.Next() {
		var r domain.ScanRecord
		var level string

		err := rows.Scan(
			&r.ID, &r.SubjectID, &r.MessageHash, &level, &r.Score, s.dialect.decodeTypes(&r.FindingTypes),
			&r.AppliedLabel, &r.UserMarkedSafe, &r.UserReportedPhishing, &r.ScannedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		r.Level = domain.RiskLevel(level)
		records = append(records, r)
	}
	return records, rows.Err()
}

// RecordURLScan appends an entry to the URL scan history
func (s *sqlStore) RecordURLScan(ctx context.Context, record *domain.URLScanRecord) error {
	types, err := s.dialect.encodeTypes(record.FindingTypes)
	if err != nil {
		return fmt.Errorf("failed to encode finding types: %w", err)
	}

	query := s.rebind(`
		INSERT INTO url_scans (id, subject_id, url, domain, risk_level, risk_score, finding_types, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	subjectID := uuid.NullUUID{}
	if record.SubjectID != nil {
		subjectID = uuid.NullUUID{UUID: *record.SubjectID, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, query,
		record.ID, subjectID, record.URL, record.Domain, string(record.Level), record.Score, types, record.ScannedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert url scan: %w", err)
	}
	return nil
}

// RecentURLScans returns the latest URL scans, newest first. A nil subjectID
// returns the anonymous history.
func (s *sqlStore) RecentURLScans(ctx context.Context, subjectID *uuid.UUID, limit int) ([]domain.URLScanRecord, error) {
	base := `
		SELECT id, subject_id, url, domain, risk_level, risk_score, finding_types, scanned_at
		FROM url_scans
	`
	var rows *sql.Rows
	var err error
	if subjectID == nil {
		rows, err = s.db.QueryContext(ctx, s.rebind(base+` WHERE subject_id IS NULL ORDER BY scanned_at DESC LIMIT ?`), limit)
	} else {
		rows, err = s.db.QueryContext(ctx, s.rebind(base+` WHERE subject_id = ? ORDER BY scanned_at DESC LIMIT ?`), *subjectID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query url scans: %w", err)
	}
	defer rows.Close()

	records := make([]domain.URLScanRecord, 0)
	for rows.Next() {
		var r domain.URLScanRecord
		var owner uuid.NullUUID
		var level string

		err := rows.Scan(&r.ID, &owner, &r.URL, &r.Domain, &level, &r.Score,
			s.dialect.decodeTypes(&r.FindingTypes), &r.ScannedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan url record: %w", err)
		}
		if owner.Valid {
			id := owner.UUID
			r.SubjectID = &id
		}
		r.Level = domain.RiskLevel(level)
		records = append(records, r)
	}
	return records, rows.Err()
}

func typesToStrings(types []domain.FindingType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

func stringsToTypes(values []string) []domain.FindingType {
	out := make([]domain.FindingType, 0, len(values))
	for _, v := range values {
		out = append(out, domain.FindingType(v))
	}
	return out
}
