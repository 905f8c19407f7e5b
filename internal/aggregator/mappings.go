package aggregator

import (
	"math"
	"strings"

	"github.com/pharmaguard-dashboard/internal/domain"
)

// severityClassifications maps a record severity to the bucket of the variants it reports.
var severityClassifications = map[domain.Severity]domain.Classification{
	domain.SeverityNone:     domain.ClassificationSafe,
	domain.SeverityLow:      domain.ClassificationLow,
	domain.SeverityModerate: domain.ClassificationModerate,
	domain.SeverityHigh:     domain.ClassificationHigh,
	domain.SeverityCritical: domain.ClassificationCritical,
}

// riskLabelClassifications maps a drug verdict to the bucket used for overall risk.
var riskLabelClassifications = map[domain.RiskLabel]domain.Classification{
	domain.RiskSafe:                domain.ClassificationSafe,
	domain.RiskAdjustDosage:        domain.ClassificationModerate,
	domain.RiskAdjustDosageCompact: domain.ClassificationModerate,
	domain.RiskToxic:               domain.ClassificationCritical,
	domain.RiskIneffective:         domain.ClassificationHigh,
	domain.RiskUnknown:             domain.ClassificationLow,
}

// DefaultClassification is used for severities and risk labels outside the vocabulary.
const DefaultClassification = domain.ClassificationModerate

// SeverityToClassification maps a severity to a classification. Unknown values map to moderate.
func SeverityToClassification(s domain.Severity) domain.Classification {
	if c, ok := severityClassifications[domain.Severity(strings.TrimSpace(string(s)))]; ok {
		return c
	}
	return DefaultClassification
}

// RiskLabelToClassification maps a risk label to a classification. Unknown labels map to moderate.
func RiskLabelToClassification(label domain.RiskLabel) domain.Classification {
	if c, ok := riskLabelClassifications[domain.RiskLabel(strings.TrimSpace(string(label)))]; ok {
		return c
	}
	return DefaultClassification
}

// ToxicityScore converts a confidence in [0,1] into a score in [0,100].
func ToxicityScore(confidence float64) int {
	if math.IsNaN(confidence) {
		return 0
	}
	score := math.Round(confidence * 100)
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return int(score)
	}
}
