package aggregator

import (
	"math"
	"testing"

	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSeverityToClassification(t *testing.T) {
	tests := []struct {
		severity domain.Severity
		expected domain.Classification
	}{
		{domain.SeverityNone, domain.ClassificationSafe},
		{domain.SeverityLow, domain.ClassificationLow},
		{domain.SeverityModerate, domain.ClassificationModerate},
		{domain.SeverityHigh, domain.ClassificationHigh},
		{domain.SeverityCritical, domain.ClassificationCritical},
		{" high ", domain.ClassificationHigh},
		{"severe", domain.ClassificationModerate},
		{"", domain.ClassificationModerate},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.expected, SeverityToClassification(tt.severity))
		})
	}
}

func TestRiskLabelToClassification(t *testing.T) {
	tests := []struct {
		label    domain.RiskLabel
		expected domain.Classification
	}{
		{domain.RiskSafe, domain.ClassificationSafe},
		{domain.RiskAdjustDosage, domain.ClassificationModerate},
		{domain.RiskAdjustDosageCompact, domain.ClassificationModerate},
		{domain.RiskToxic, domain.ClassificationCritical},
		{domain.RiskIneffective, domain.ClassificationHigh},
		{domain.RiskUnknown, domain.ClassificationLow},
		{"Pending", domain.ClassificationModerate},
		{"toxic", domain.ClassificationModerate},
		{"", domain.ClassificationModerate},
	}

	for _, tt := range tests {
		t.Run(string(tt.label), func(t *testing.T) {
			assert.Equal(t, tt.expected, RiskLabelToClassification(tt.label))
		})
	}
}

func TestMappingsDiverge(t *testing.T) {
	// A Toxic drug with high severity: variants are high, the drug is critical.
	assert.Equal(t, domain.ClassificationHigh, SeverityToClassification(domain.SeverityHigh))
	assert.Equal(t, domain.ClassificationCritical, RiskLabelToClassification(domain.RiskToxic))
}

func TestToxicityScore(t *testing.T) {
	assert.Equal(t, 0, ToxicityScore(0))
	assert.Equal(t, 95, ToxicityScore(0.95))
	assert.Equal(t, 99, ToxicityScore(0.99))
	assert.Equal(t, 100, ToxicityScore(1))
	assert.Equal(t, 13, ToxicityScore(0.125))
	assert.Equal(t, 100, ToxicityScore(1.7))
	assert.Equal(t, 0, ToxicityScore(-0.2))
	assert.Equal(t, 0, ToxicityScore(math.NaN()))
}
