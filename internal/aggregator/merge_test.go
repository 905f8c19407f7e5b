package aggregator

import (
	"testing"

	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitGenotype(t *testing.T) {
	tests := []struct {
		genotype string
		ref, alt string
	}{
		{"A/G", "A", "G"},
		{"C/C", "C", "C"},
		{"AT/A", "AT", "A"},
		{"A", "A", "?"},
		{"A/", "A", "?"},
		{"/G", "?", "G"},
		{"/", "?", "?"},
		{"", "?", "?"},
		{"A/G/T", "A", "G"},
		{"A//G", "A", "?"},
		{" T / C ", "T", "C"},
	}

	for _, tt := range tests {
		t.Run(tt.genotype, func(t *testing.T) {
			ref, alt := SplitGenotype(tt.genotype)
			assert.Equal(t, tt.ref, ref)
			assert.Equal(t, tt.alt, alt)
		})
	}
}

func TestExtractAndMerge_FirstSeenOrder(t *testing.T) {
	records := []domain.AnalysisRecord{
		record("A", domain.RiskSafe, domain.SeverityLow, 0.4, variant("rs3", "A/G"), variant("rs1", "C/T")),
		record("B", domain.RiskSafe, domain.SeverityHigh, 0.9),
		record("C", domain.RiskToxic, domain.SeverityCritical, 0.9, variant("rs2", "G/G"), variant("rs3", "G/G")),
	}

	merged := ExtractAndMerge(records)

	require.Len(t, merged, 3)
	assert.Equal(t, "rs3", merged[0].RSID)
	assert.Equal(t, "rs1", merged[1].RSID)
	assert.Equal(t, "rs2", merged[2].RSID)

	assert.Equal(t, []string{"A", "C"}, merged[0].DrugInteractions)
	assert.Equal(t, domain.ClassificationLow, merged[0].Classification)
	assert.Equal(t, 40, merged[0].ToxicityScore)
	assert.Equal(t, "GENE_A", merged[0].Gene)
	assert.Equal(t, "G", merged[0].Alt)

	assert.Equal(t, domain.ClassificationCritical, merged[2].Classification)
	assert.Equal(t, "GENE_C", merged[2].Gene)
}

func TestExtractAndMerge_KeepsImpactAndCoordinates(t *testing.T) {
	records := []domain.AnalysisRecord{
		record("CLOPIDOGREL", domain.RiskIneffective, domain.SeverityHigh, 0.85, domain.DetectedVariant{
			RSID: "rs4244285", Chromosome: "chr10", Position: 94781859, Genotype: "G/A", Impact: "No function",
		}),
	}

	merged := ExtractAndMerge(records)

	require.Len(t, merged, 1)
	assert.Equal(t, "chr10", merged[0].Chromosome)
	assert.Equal(t, int64(94781859), merged[0].Position)
	assert.Equal(t, "No function", merged[0].ClinicalSignificance)
}

func TestExtractAndMerge_EmptyInput(t *testing.T) {
	assert.Empty(t, ExtractAndMerge(nil))
	assert.NotNil(t, ExtractAndMerge(nil))
}

func TestExtractAndMerge_SkipsBlankRSID(t *testing.T) {
	records := []domain.AnalysisRecord{
		record("A", domain.RiskSafe, domain.SeverityNone, 0.9, variant("", "A/G"), variant(" rs7 ", "A/G")),
	}

	merged := ExtractAndMerge(records)

	require.Len(t, merged, 1)
	assert.Equal(t, "rs7", merged[0].RSID)
}
