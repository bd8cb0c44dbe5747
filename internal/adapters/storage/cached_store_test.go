package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stoik/mailshield/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore counts how often the backing store is asked about a hash
type countingStore struct {
	*MemoryStore
	existsCalls int
	recordCalls int
}

func (c *countingStore) ScanExists(ctx context.Context, messageHash string) (bool, error) {
	c.existsCalls++
	return c.MemoryStore.ScanExists(ctx, messageHash)
}

func (c *countingStore) RecordScan(ctx context.Context, record *domain.ScanRecord) (bool, error) {
	c.recordCalls++
	return c.MemoryStore.RecordScan(ctx, record)
}

func TestCachedStore_AvoidsBackingLookups(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{MemoryStore: NewMemoryStore()}
	store, err := NewCachedStore(backing, 8)
	require.NoError(t, err)

	subject := newTestSubject(t, ctx, store)
	record := newTestRecord(subject.ID, domain.RiskHigh, time.Now().UTC())

	inserted, err := store.RecordScan(ctx, record)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, 1, store.CachedHashes())

	for i := 0; i < 3; i++ {
		exists, err := store.ScanExists(ctx, record.MessageHash)
		require.NoError(t, err)
		assert.True(t, exists)
	}
	assert.Equal(t, 0, backing.existsCalls, "Known hashes must be answered from the cache")

	inserted, err = store.RecordScan(ctx, record)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, 1, backing.recordCalls)
}

func TestCachedStore_DoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	backing := &countingStore{MemoryStore: NewMemoryStore()}
	store, err := NewCachedStore(backing, 8)
	require.NoError(t, err)

	hash := domain.HashMessageID("never-seen")
	for i := 0; i < 2; i++ {
		exists, err := store.ScanExists(ctx, hash)
		require.NoError(t, err)
		assert.False(t, exists)
	}
	assert.Equal(t, 2, backing.existsCalls)
	assert.Equal(t, 0, store.CachedHashes())
}

func TestCachedStore_Eviction(t *testing.T) {
	ctx := context.Background()
	store, err := NewCachedStore(NewMemoryStore(), 2)
	require.NoError(t, err)

	subject := newTestSubject(t, ctx, store)
	for i := 0; i < 5; i++ {
		_, err := store.RecordScan(ctx, newTestRecord(subject.ID, domain.RiskSafe, time.Now().UTC()))
		require.NoError(t, err)
	}

	assert.Equal(t, 2, store.CachedHashes())

	reloaded, err := store.GetSubject(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.Stats.Scanned, "Eviction never loses records in the backing store")
}
