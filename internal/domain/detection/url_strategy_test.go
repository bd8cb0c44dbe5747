package detection

import (
	"testing"

	"github.com/stoik/mailshield/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestURLStrategy_Evaluate(t *testing.T) {
	context := NewDefaultDetectionContext()
	strategy := NewURLStrategy()

	tests := []struct {
		name          string
		links         []string
		expectedTypes []domain.FindingType
	}{
		{
			name:          "Raw IP host",
			links:         []string{"http://192.168.1.10/login"},
			expectedTypes: []domain.FindingType{domain.FindingHomoglyphURL, domain.FindingIPURL},
		},
		{
			name:          "URL shortener",
			links:         []string{"https://bit.ly/3xYz"},
			expectedTypes: []domain.FindingType{domain.FindingURLShortener},
		},
		{
			name:          "Lookalike brand host",
			links:         []string{"https://www.pаypal.com/signin"},
			expectedTypes: []domain.FindingType{domain.FindingHomoglyphURL},
		},
		{
			name:  "Official subdomain",
			links: []string{"https://docs.google.com/document/d/1"},
		},
		{
			name:  "Unparseable link is skipped",
			links: []string{"http://[::1", "https://example.com"},
		},
		{
			name: "Only the first links are inspected",
			links: []string{
				"https://bit.ly/1", "https://bit.ly/2", "https://bit.ly/3", "https://bit.ly/4",
				"https://bit.ly/5", "https://bit.ly/6", "https://bit.ly/7",
			},
			expectedTypes: []domain.FindingType{
				domain.FindingURLShortener, domain.FindingURLShortener, domain.FindingURLShortener,
				domain.FindingURLShortener, domain.FindingURLShortener,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := strategy.Evaluate(domain.Signal{Links: tt.links}, context)

			types := make([]domain.FindingType, 0, len(findings))
			for _, f := range findings {
				types = append(types, f.Type)
			}
			if len(tt.expectedTypes) == 0 {
				assert.Empty(t, types)
				return
			}
			assert.Equal(t, tt.expectedTypes, types)
		})
	}
}
