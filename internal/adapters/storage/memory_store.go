package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stoik/mailshield/internal/domain"
)

// MemoryStore implements ports.Storage in process memory.
// Used for demos and tests; nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	subjects map[uuid.UUID]*domain.Subject
	byEmail  map[string]uuid.UUID
	scans    map[string]*domain.ScanRecord // keyed by message hash
	urlScans []domain.URLScanRecord
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subjects: make(map[uuid.UUID]*domain.Subject),
		byEmail:  make(map[string]uuid.UUID),
		scans:    make(map[string]*domain.ScanRecord),
	}
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

// CreateSubject inserts a subject, updating its profile when the email is known
func (s *MemoryStore) CreateSubject(ctx context.Context, subject *domain.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byEmail[subject.Email]; ok {
		existing := s.subjects[id]
		existing.DisplayName = subject.DisplayName
		existing.Credentials = subject.Credentials
		existing.NotificationsEnabled = subject.NotificationsEnabled
		existing.NotificationLevel = subject.NotificationLevel
		subject.ID = existing.ID
		subject.CreatedAt = existing.CreatedAt
		return nil
	}

	if subject.ID == uuid.Nil {
		subject.ID = uuid.New()
	}
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = time.Now().UTC()
	}

	stored := *subject
	stored.Stats = domain.SubjectStats{}
	stored.LastScanAt = nil
	s.subjects[stored.ID] = &stored
	s.byEmail[stored.Email] = stored.ID
	return nil
}

// GetSubject returns a copy of the subject
func (s *MemoryStore) GetSubject(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subject, ok := s.subjects[id]
	if !ok {
		return nil, domain.ErrSubjectNotFound
	}
	copied := *subject
	return &copied, nil
}

// ListSubjects returns every subject, oldest first
func (s *MemoryStore) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subjects := make([]domain.Subject, 0, len(s.subjects))
	for _, subject := range s.subjects {
		subjects = append(subjects, *subject)
	}
	sort.Slice(subjects, func(i, j int) bool {
		return subjects[i].CreatedAt.Before(subjects[j].CreatedAt)
	})
	return subjects, nil
}

// ScanExists reports whether a message hash was already recorded
func (s *MemoryStore) ScanExists(ctx context.Context, messageHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.scans[messageHash]
	return ok, nil
}

// RecordScan inserts the record if its hash is new and bumps the subject's
// counters under the same lock
func (s *MemoryStore) RecordScan(ctx context.Context, record *domain.ScanRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.scans[record.MessageHash]; exists {
		return false, nil
	}
	subject, ok := s.subjects[record.SubjectID]
	if !ok {
		return false, domain.ErrSubjectNotFound
	}

	stored := *record
	s.scans[record.MessageHash] = &stored

	subject.Stats.Record(record.Level)
	scannedAt := record.ScannedAt
	subject.LastScanAt = &scannedAt
	return true, nil
}

// MarkSafe records the user's override on a scan
func (s *MemoryStore) MarkSafe(ctx context.Context, subjectID uuid.UUID, messageHash string) error {
	return s.flag(subjectID, messageHash, func(r *domain.ScanRecord) { r.UserMarkedSafe = true })
}

// ReportPhishing records the user's phishing report on a scan and raises
// its level to high
func (s *MemoryStore) ReportPhishing(ctx context.Context, subjectID uuid.UUID, messageHash string) error {
	return s.flag(subjectID, messageHash, func(r *domain.ScanRecord) {
		r.UserReportedPhishing = true
		r.Level = domain.RiskHigh
	})
}

func (s *MemoryStore) flag(subjectID uuid.UUID, messageHash string, apply func(*domain.ScanRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.scans[messageHash]
	if !ok || record.SubjectID != subjectID {
		return domain.ErrScanNotFound
	}
	apply(record)
	return nil
}

// RecentScans returns the latest scan records of a subject, newest first
func (s *MemoryStore) RecentScans(ctx context.Context, subjectID uuid.UUID, limit int) ([]domain.ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.ScanRecord, 0)
	for _, r := range s.scans {
		if r.SubjectID == subjectID {
			records = append(records, *r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].ScannedAt.After(records[j].ScannedAt)
	})
	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// RecordURLScan appends an entry to the URL scan history
func (s *MemoryStore) RecordURLScan(ctx context.Context, record *domain.URLScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.urlScans = append(s.urlScans, *record)
	return nil
}

// RecentURLScans returns the latest URL scans of a subject, newest first.
// A nil subjectID returns the anonymous history.
func (s *MemoryStore) RecentURLScans(ctx context.Context, subjectID *uuid.UUID, limit int) ([]domain.URLScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.URLScanRecord, 0)
	if limit == 0 {
		return records, nil
	}
	for i := len(s.urlScans) - 1; i >= 0; i-- {
		r := s.urlScans[i]
		if !sameOwner(r.SubjectID, subjectID) {
			continue
		}
		records = append(records, r)
		if limit >= 0 && len(records) == limit {
			break
		}
	}
	return records, nil
}

func sameOwner(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
