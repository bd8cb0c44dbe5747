package detection

import (
	"github.com/stoik/mailshield/internal/domain"
)

// Weights maps each finding type to its score contribution.
// The values are empirical tuning, not protocol, hence configurable.
type Weights map[domain.FindingType]int

// DefaultWeights returns the stock weight table
func DefaultWeights() Weights {
	return Weights{
		domain.FindingHomoglyphAttack:     35,
		domain.FindingTyposquatting:       25,
		domain.FindingIDNHomograph:        30,
		domain.FindingUrgentLanguage:      15,
		domain.FindingBrandImpersonation:  25,
		domain.FindingSPFFail:             20,
		domain.FindingDKIMFail:            20,
		domain.FindingDMARCFail:           15,
		domain.FindingDangerousAttachment: 30,
		domain.FindingDoubleExtension:     25,
		domain.FindingHomoglyphURL:        25,
		domain.FindingURLShortener:        10,
		domain.FindingIPURL:               20,
		domain.FindingReplyToMismatch:     15,
	}
}

// WithOverrides returns a copy of w where every known finding type present
// in overrides takes the overriding weight. Unknown keys and negative values
// are ignored.
func (w Weights) WithOverrides(overrides map[string]int) Weights {
	out := make(Weights, len(w))
	for t, v := range w {
		out[t] = v
	}
	for key, v := range overrides {
		t := domain.FindingType(key)
		if _, known := out[t]; !known || v < 0 {
			continue
		}
		out[t] = v
	}
	return out
}

// Of returns the weight of a finding type, zero when unknown
func (w Weights) Of(t domain.FindingType) int {
	return w[t]
}
