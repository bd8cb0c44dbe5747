package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stoik/mailshield/internal/domain"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS subjects (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL DEFAULT '',
		credentials TEXT NOT NULL DEFAULT '',
		notifications_enabled BOOLEAN NOT NULL DEFAULT 1,
		notification_level TEXT NOT NULL DEFAULT 'high',
		emails_scanned INTEGER NOT NULL DEFAULT 0,
		phishing_detected INTEGER NOT NULL DEFAULT 0,
		suspicious_detected INTEGER NOT NULL DEFAULT 0,
		safe_emails INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		last_scan_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS scan_records (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
		message_hash TEXT NOT NULL UNIQUE,
		risk_level TEXT NOT NULL,
		risk_score INTEGER NOT NULL,
		finding_types TEXT NOT NULL DEFAULT '[]',
		applied_label TEXT NOT NULL DEFAULT '',
		user_marked_safe BOOLEAN NOT NULL DEFAULT 0,
		user_reported_phishing BOOLEAN NOT NULL DEFAULT 0,
		scanned_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scan_records_subject ON scan_records(subject_id, scanned_at DESC);

	CREATE TABLE IF NOT EXISTS url_scans (
		id TEXT PRIMARY KEY,
		subject_id TEXT REFERENCES subjects(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		domain TEXT NOT NULL,
		risk_level TEXT NOT NULL,
		risk_score INTEGER NOT NULL,
		finding_types TEXT NOT NULL DEFAULT '[]',
		scanned_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_url_scans_subject ON url_scans(subject_id, scanned_at DESC);
`

// SQLiteStore implements ports.Storage on a local SQLite file
type SQLiteStore struct {
	sqlStore
}

// NewSQLiteStore opens (or creates) the database at path and initializes the schema.
// Use ":memory:" for a throwaway database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite serializes writers; a single connection also keeps ":memory:" alive
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{sqlStore{db: db, dialect: sqliteDialect()}}
	if err := store.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func sqliteDialect() dialect {
	return dialect{
		name:   "sqlite",
		schema: sqliteSchema,
		encodeTypes: func(types []domain.FindingType) (any, error) {
			data, err := json.Marshal(typesToStrings(types))
			if err != nil {
				return nil, err
			}
			return string(data), nil
		},
		decodeTypes: func(dst *[]domain.FindingType) sql.Scanner {
			return &jsonFindingTypes{dst: dst}
		},
	}
}

// jsonFindingTypes scans a JSON array column into finding types
type jsonFindingTypes struct {
	dst *[]domain.FindingType
}

func (j *jsonFindingTypes) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case nil:
		*j.dst = []domain.FindingType{}
		return nil
	default:
		return fmt.Errorf("unsupported finding_types column type %T", src)
	}

	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return err
	}
	*j.dst = stringsToTypes(values)
	return nil
}
