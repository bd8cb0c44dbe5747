package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/stoik/mailshield/internal/domain"
)

// postgresSchema stores only anonymized traces: message hashes and finding
// types, never subjects, senders or bodies of the scanned mail
const postgresSchema = `
	-- ============================================================================
	-- SUBJECTS TABLE
	-- ============================================================================
	-- Monitored mailboxes and their running counters.
	-- Production: keep credentials in a secrets manager instead of the DB.
	CREATE TABLE IF NOT EXISTS subjects (
		id UUID PRIMARY KEY,
		email VARCHAR(254) NOT NULL UNIQUE,
		display_name VARCHAR(100) NOT NULL DEFAULT '',
		credentials TEXT NOT NULL DEFAULT '',
		notifications_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		notification_level VARCHAR(10) NOT NULL DEFAULT 'high'
			CHECK (notification_level IN ('all', 'medium', 'high')),
		emails_scanned INTEGER NOT NULL DEFAULT 0,
		phishing_detected INTEGER NOT NULL DEFAULT 0,
		suspicious_detected INTEGER NOT NULL DEFAULT 0,
		safe_emails INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_scan_at TIMESTAMPTZ
	);

	-- ============================================================================
	-- SCAN_RECORDS TABLE
	-- ============================================================================
	-- One row per unique message. The UNIQUE constraint on message_hash is the
	-- deduplication rule: RecordScan relies on ON CONFLICT DO NOTHING.
	CREATE TABLE IF NOT EXISTS scan_records (
		id UUID PRIMARY KEY,
		subject_id UUID NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
		message_hash CHAR(64) NOT NULL UNIQUE,
		risk_level VARCHAR(10) NOT NULL,
		risk_score INTEGER NOT NULL CHECK (risk_score BETWEEN 0 AND 100),
		finding_types TEXT[] NOT NULL DEFAULT '{}',
		applied_label VARCHAR(50) NOT NULL DEFAULT '',
		user_marked_safe BOOLEAN NOT NULL DEFAULT FALSE,
		user_reported_phishing BOOLEAN NOT NULL DEFAULT FALSE,
		scanned_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	-- Backs RecentScans for the dashboard
	CREATE INDEX IF NOT EXISTS idx_scan_records_subject ON scan_records(subject_id, scanned_at DESC);

	-- ============================================================================
	-- URL_SCANS TABLE
	-- ============================================================================
	CREATE TABLE IF NOT EXISTS url_scans (
		id UUID PRIMARY KEY,
		subject_id UUID REFERENCES subjects(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		domain VARCHAR(253) NOT NULL,
		risk_level VARCHAR(10) NOT NULL,
		risk_score INTEGER NOT NULL,
		finding_types TEXT[] NOT NULL DEFAULT '{}',
		scanned_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_url_scans_subject ON url_scans(subject_id, scanned_at DESC);
`

// PostgresStore implements ports.Storage for PostgreSQL
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore creates a new PostgreSQL storage instance
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	// In production, should be set based on workload
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{sqlStore{db: db, dialect: postgresDialect()}}, nil
}

func postgresDialect() dialect {
	return dialect{
		name:     "postgres",
		schema:   postgresSchema,
		numbered: true,
		encodeTypes: func(types []domain.FindingType) (any, error) {
			return pq.Array(typesToStrings(types)), nil
		},
		decodeTypes: func(dst *[]domain.FindingType) sql.Scanner {
			return &pqFindingTypes{dst: dst}
		},
	}
}

// pqFindingTypes scans a TEXT[] column into finding types
type pqFindingTypes struct {
	dst *[]domain.FindingType
}

func (p *pqFindingTypes) Scan(src any) error {
	var values pq.StringArray
	if err := values.Scan(src); err != nil {
		return err
	}
	*p.dst = stringsToTypes(values)
	return nil
}
