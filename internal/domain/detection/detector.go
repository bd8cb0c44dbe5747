package detection

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stoik/mailshield/internal/domain"
)

// Detector scores emails and bare domains using pluggable strategies
//
// The Detector coordinates multiple DetectionStrategy implementations, each
// responsible for one signal family (homoglyphs, typosquatting, etc.).
//
// A Detector is immutable once built: its tables are compiled up front and
// strategies hold no state, so a single value is shared by every goroutine.
type Detector struct {
	strategies       []DetectionStrategy
	domainStrategies []DetectionStrategy
	context          *DetectionContext
	logger           *zap.Logger
	onFailure        func(strategy string)
}

// Option customizes a Detector at construction time
type Option func(*Detector)

// WithLogger sets the logger used to report failing strategies
func WithLogger(logger *zap.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithFailureHook registers a callback invoked with the name of every
// strategy that panics during evaluation
func WithFailureHook(hook func(strategy string)) Option {
	return func(d *Detector) {
		d.onFailure = hook
	}
}

// WithStrategies replaces the email strategies, in evaluation order
func WithStrategies(strategies ...DetectionStrategy) Option {
	return func(d *Detector) {
		d.strategies = strategies
	}
}

// NewDetector creates a detector with all standard detection strategies
//
// The order of the strategies is the canonical evaluation order; it decides
// which findings the explanation quotes.
func NewDetector(detectionContext *DetectionContext, opts ...Option) *Detector {
	if detectionContext == nil {
		detectionContext = NewDefaultDetectionContext()
	}

	homoglyph := NewHomoglyphStrategy()
	typosquatting := NewTyposquattingStrategy()
	idn := NewIDNHomographStrategy()

	d := &Detector{
		strategies: []DetectionStrategy{
			homoglyph,
			typosquatting,
			idn,
			NewUrgentLanguageStrategy(),
			NewBrandImpersonationStrategy(),
			NewAuthFailuresStrategy(),
			NewAttachmentStrategy(),
			NewURLStrategy(),
			NewReplyToStrategy(),
		},
		// The URL-only path skips everything that needs a full message
		domainStrategies: []DetectionStrategy{homoglyph, typosquatting, idn},
		context:          detectionContext,
		logger:           zap.NewNop(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// ScoreEmail runs every strategy on a signal and aggregates the findings
func (d *Detector) ScoreEmail(signal domain.Signal) domain.DetectionResult {
	if signal.SenderDomain == "" {
		signal.SenderDomain = domain.ExtractDomain(signal.Sender)
	}
	return Aggregate(d.run(d.strategies, signal))
}

// ScoreDomain runs the reduced, latency-friendly strategy set on a bare domain
func (d *Detector) ScoreDomain(target domain.DomainSignal) domain.DetectionResult {
	signal := domain.Signal{SenderDomain: strings.ToLower(strings.TrimSpace(target.Domain))}
	return Aggregate(d.run(d.domainStrategies, signal))
}

// ScoreBatch scores independent signals concurrently. Results are returned
// in input order. concurrency <= 0 means unbounded.
func (d *Detector) ScoreBatch(ctx context.Context, signals []domain.Signal, concurrency int) ([]domain.DetectionResult, error) {
	results := make([]domain.DetectionResult, len(signals))

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i := range signals {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = d.ScoreEmail(signals[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring batch: %w", err)
	}
	return results, nil
}

// run evaluates strategies in order and concatenates their findings
func (d *Detector) run(strategies []DetectionStrategy, signal domain.Signal) []domain.Finding {
	findings := make([]domain.Finding, 0)
	for _, strategy := range strategies {
		findings = append(findings, d.evaluate(strategy, signal)...)
	}
	return findings
}

// evaluate isolates one strategy: a panic is logged and counts as no findings
func (d *Detector) evaluate(strategy DetectionStrategy, signal domain.Signal) (findings []domain.Finding) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Detection strategy failed",
				zap.String("strategy", strategy.Name()),
				zap.Any("panic", r))
			if d.onFailure != nil {
				d.onFailure(strategy.Name())
			}
			findings = nil
		}
	}()

	return strategy.Evaluate(signal, d.context)
}
