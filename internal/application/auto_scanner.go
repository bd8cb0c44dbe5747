package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultScanInterval is the pause between two successful mailbox scans
	DefaultScanInterval = 30 * time.Minute
	// DefaultRetryBackoff is the pause after a failed scan
	DefaultRetryBackoff = time.Minute
)

// subjectScanner scans one subject's mailbox
type subjectScanner interface {
	ScanSubject(ctx context.Context, subjectID uuid.UUID) (*ScanReport, error)
}

// AutoScanner runs one background scan loop per subject
type AutoScanner struct {
	scanner  subjectScanner
	interval time.Duration
	backoff  time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	loops map[uuid.UUID]context.CancelFunc
	wg    sync.WaitGroup
}

// NewAutoScanner creates a scheduler; non-positive durations fall back to the defaults
func NewAutoScanner(scanner subjectScanner, interval, backoff time.Duration, logger *zap.Logger) *AutoScanner {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	return &AutoScanner{
		scanner:  scanner,
		interval: interval,
		backoff:  backoff,
		logger:   logger,
		loops:    make(map[uuid.UUID]context.CancelFunc),
	}
}

// Start launches the loop of subjectID. It returns false if one is already running.
func (a *AutoScanner) Start(subjectID uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, running := a.loops[subjectID]; running {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.loops[subjectID] = cancel
	a.wg.Add(1)
	go a.loop(ctx, subjectID)

	a.logger.Info("Auto scan started", zap.String("subject_id", subjectID.String()))
	return true
}

// Stop cancels the loop of subjectID. It returns false if none was running.
func (a *AutoScanner) Stop(subjectID uuid.UUID) bool {
	a.mu.Lock()
	cancel, running := a.loops[subjectID]
	delete(a.loops, subjectID)
	a.mu.Unlock()

	if !running {
		return false
	}
	cancel()
	a.logger.Info("Auto scan stopped", zap.String("subject_id", subjectID.String()))
	return true
}

// StopAll cancels every loop and waits for them to exit
func (a *AutoScanner) StopAll() {
	a.mu.Lock()
	for id, cancel := range a.loops {
		cancel()
		delete(a.loops, id)
	}
	a.mu.Unlock()

	a.wg.Wait()
}

// Running reports whether a loop is active for subjectID
func (a *AutoScanner) Running(subjectID uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.loops[subjectID]
	return ok
}

func (a *AutoScanner) loop(ctx context.Context, subjectID uuid.UUID) {
	defer a.wg.Done()
	logger := a.logger.With(zap.String("subject_id", subjectID.String()))

	for {
		wait := a.interval
		report, err := a.scanner.ScanSubject(ctx, subjectID)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			logger.Error("Auto scan failed", zap.Error(err))
			wait = a.backoff
		default:
			logger.Debug("Auto scan finished",
				zap.Int("scanned", report.Scanned),
				zap.Int("threats", len(report.Threats)))
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
