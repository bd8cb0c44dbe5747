package detection

import (
	"github.com/stoik/mailshield/internal/domain"
)

// DetectionStrategy is one independent heuristic of the scorer
//
// This follows the Strategy pattern, allowing each detection technique to be:
//   - Independently developed and tested
//   - Added to the pipeline without touching the aggregator
//   - Tuned through the shared Weights table
//
// Implementations must be pure: no I/O and no mutable state.
type DetectionStrategy interface {
	// Evaluate inspects a signal and returns zero or more findings
	Evaluate(signal domain.Signal, context *DetectionContext) []domain.Finding

	// Name returns the human-readable name of this detection strategy
	Name() string
}

// DetectionContext provides the compiled tables shared by all strategies.
// It is built once and never mutated afterwards.
type DetectionContext struct {
	// Normalizer maps homoglyphs back to ASCII and decodes punycode
	Normalizer *Normalizer

	// Brands is the legitimate-domain registry used by the impersonation checks
	Brands *BrandRegistry

	// Weights gives the score contribution of every finding type
	Weights Weights
}

// NewDetectionContext creates a new detection context with the provided configuration
func NewDetectionContext(brands []Brand, weights Weights) *DetectionContext {
	return &DetectionContext{
		Normalizer: NewNormalizer(),
		Brands:     NewBrandRegistry(brands),
		Weights:    weights,
	}
}

// NewDefaultDetectionContext uses the built-in brand table and weights
func NewDefaultDetectionContext() *DetectionContext {
	return NewDetectionContext(DefaultBrands, DefaultWeights())
}

// finding builds a Finding weighted from the context
func (c *DetectionContext) finding(t domain.FindingType, severity domain.Severity, description string) domain.Finding {
	return domain.Finding{
		Type:        t,
		Severity:    severity,
		Description: description,
		Weight:      c.Weights.Of(t),
	}
}
