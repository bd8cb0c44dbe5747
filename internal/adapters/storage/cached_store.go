package storage

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/stoik/mailshield/internal/domain"
	"github.com/stoik/mailshield/internal/ports"
)

// DefaultDedupeCapacity is how many recent message hashes CachedStore remembers
const DefaultDedupeCapacity = 10000

// CachedStore fronts a ports.Storage with an LRU of message hashes known to
// be recorded, so repeated scans of a mailbox skip the database round trip.
// Only positive answers are cached: a hash is never wrongly reported absent
// by the cache, the backing store stays the source of truth.
type CachedStore struct {
	ports.Storage
	seen *lru.Cache[string, struct{}]
}

// NewCachedStore wraps backing with a dedupe cache of the given capacity
func NewCachedStore(backing ports.Storage, capacity int) (*CachedStore, error) {
	if capacity <= 0 {
		capacity = DefaultDedupeCapacity
	}
	seen, err := lru.New[string, struct{}](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create dedupe cache: %w", err)
	}
	return &CachedStore{Storage: backing, seen: seen}, nil
}

// ScanExists answers from the cache first
func (s *CachedStore) ScanExists(ctx context.Context, messageHash string) (bool, error) {
	if s.seen.Contains(messageHash) {
		return true, nil
	}
	exists, err := s.Storage.ScanExists(ctx, messageHash)
	if err != nil {
		return false, err
	}
	if exists {
		s.seen.Add(messageHash, struct{}{})
	}
	return exists, nil
}

// RecordScan short-circuits hashes the cache already knows
func (s *CachedStore) RecordScan(ctx context.Context, record *domain.ScanRecord) (bool, error) {
	if s.seen.Contains(record.MessageHash) {
		return false, nil
	}
	inserted, err := s.Storage.RecordScan(ctx, record)
	if err != nil {
		return false, err
	}
	s.seen.Add(record.MessageHash, struct{}{})
	return inserted, nil
}

// CachedHashes returns how many hashes are currently cached
func (s *CachedStore) CachedHashes() int {
	return s.seen.Len()
}
