package detection

import (
	"strings"

	"github.com/stoik/mailshield/internal/domain"
)

// explanationFindings is how many findings the explanation quotes
const explanationFindings = 3

const noThreatsExplanation = "✅ SAFE: No threats detected."

// Aggregate turns the findings of one evaluation into a DetectionResult.
// findings must already be in canonical evaluation order: the explanation
// quotes the first ones as they come, without re-sorting by severity.
func Aggregate(findings []domain.Finding) domain.DetectionResult {
	if findings == nil {
		findings = []domain.Finding{}
	}

	total := 0
	for _, f := range findings {
		total += f.Weight
	}
	score := min(max(total, 0), domain.MaxScore)
	level := domain.LevelForScore(score)

	return domain.DetectionResult{
		Score:             score,
		Level:             level,
		Findings:          findings,
		Explanation:       explain(findings, level),
		RecommendedAction: level.RecommendedAction(),
		Label:             level.Label(),
	}
}

func explain(findings []domain.Finding, level domain.RiskLevel) string {
	if len(findings) == 0 {
		return noThreatsExplanation
	}

	quoted := findings
	if len(quoted) > explanationFindings {
		quoted = quoted[:explanationFindings]
	}

	parts := make([]string, 0, len(quoted))
	for _, f := range quoted {
		parts = append(parts, "• "+f.Description)
	}
	return level.ExplanationPrefix() + "\n\n" + strings.Join(parts, "\n")
}
