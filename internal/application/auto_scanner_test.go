package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// countingScanner records scan calls and fails the first failures of them
type countingScanner struct {
	mu       sync.Mutex
	calls    map[uuid.UUID]int
	failures int
}

func (s *countingScanner) ScanSubject(ctx context.Context, subjectID uuid.UUID) (*ScanReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[uuid.UUID]int)
	}
	s.calls[subjectID]++
	if s.failures > 0 {
		s.failures--
		return nil, errors.New("mailbox unavailable")
	}
	return &ScanReport{SubjectID: subjectID}, nil
}

func (s *countingScanner) Calls(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

func TestAutoScanner_StartStop(t *testing.T) {
	scanner := &countingScanner{}
	auto := NewAutoScanner(scanner, 10*time.Millisecond, 10*time.Millisecond, zap.NewNop())
	defer auto.StopAll()

	id := uuid.New()
	assert.True(t, auto.Start(id))
	assert.False(t, auto.Start(id), "A subject gets a single loop")
	assert.True(t, auto.Running(id))

	assert.Eventually(t, func() bool { return scanner.Calls(id) >= 3 }, time.Second, 5*time.Millisecond)

	assert.True(t, auto.Stop(id))
	assert.False(t, auto.Stop(id))
	assert.False(t, auto.Running(id))
}

func TestAutoScanner_RetriesAfterFailure(t *testing.T) {
	scanner := &countingScanner{failures: 2}
	auto := NewAutoScanner(scanner, time.Hour, 5*time.Millisecond, zap.NewNop())
	defer auto.StopAll()

	id := uuid.New()
	auto.Start(id)

	// Two failures back off briefly; the third succeeds and waits the full interval
	assert.Eventually(t, func() bool { return scanner.Calls(id) == 3 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 3, scanner.Calls(id))
}

func TestAutoScanner_StopAll(t *testing.T) {
	scanner := &countingScanner{}
	auto := NewAutoScanner(scanner, time.Hour, time.Hour, zap.NewNop())

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	for _, id := range ids {
		auto.Start(id)
	}
	assert.Eventually(t, func() bool {
		return scanner.Calls(ids[0]) == 1 && scanner.Calls(ids[1]) == 1
	}, time.Second, 5*time.Millisecond)

	auto.StopAll()
	for _, id := range ids {
		assert.False(t, auto.Running(id))
	}
}

func TestNewAutoScanner_Defaults(t *testing.T) {
	auto := NewAutoScanner(&countingScanner{}, 0, -1, zap.NewNop())
	assert.Equal(t, DefaultScanInterval, auto.interval)
	assert.Equal(t, DefaultRetryBackoff, auto.backoff)
}
