package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/stoik/mailshield/internal/domain"
)

// Storage defines the contract for persisting subjects and anonymized scan traces.
// Implementations never receive message content, only hashes and finding types.
type Storage interface {
	// Subject operations
	CreateSubject(ctx context.Context, subject *domain.Subject) error
	GetSubject(ctx context.Context, id uuid.UUID) (*domain.Subject, error)
	ListSubjects(ctx context.Context) ([]domain.Subject, error)

	// Scan operations

	// ScanExists reports whether a message hash was already recorded
	ScanExists(ctx context.Context, messageHash string) (bool, error)

	// RecordScan inserts record unless its hash exists and, in the same
	// transaction, updates the subject's counters and last scan time.
	// inserted is false when the hash was already present.
	RecordScan(ctx context.Context, record *domain.ScanRecord) (inserted bool, err error)

	// MarkSafe and ReportPhishing flip the feedback flags of the subject's
	// record for messageHash, returning domain.ErrScanNotFound when absent.
	// ReportPhishing also raises the record's level to high.
	MarkSafe(ctx context.Context, subjectID uuid.UUID, messageHash string) error
	ReportPhishing(ctx context.Context, subjectID uuid.UUID, messageHash string) error

	RecentScans(ctx context.Context, subjectID uuid.UUID, limit int) ([]domain.ScanRecord, error)

	// URL scan history
	RecordURLScan(ctx context.Context, record *domain.URLScanRecord) error
	RecentURLScans(ctx context.Context, subjectID *uuid.UUID, limit int) ([]domain.URLScanRecord, error)

	// Lifecycle
	Close() error
}
