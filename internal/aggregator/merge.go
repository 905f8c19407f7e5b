package aggregator

import (
	"strings"

	"github.com/pharmaguard-dashboard/internal/domain"
)

const (
	unknownAllele       = "?"
	unknownSignificance = "Unknown"
)

// ExtractAndMerge collapses the detected variants of all records into one entry per rsid.
//
// Records are walked in order and variants in order within each record. The first
// occurrence of an rsid fixes every derived field; later occurrences only add their
// drug to DrugInteractions. The result keeps first-seen order. Variants without an
// rsid cannot be deduplicated and are left out.
func ExtractAndMerge(records []domain.AnalysisRecord) []domain.MergedVariant {
	merged := make([]domain.MergedVariant, 0)
	index := make(map[string]int)

	for i := range records {
		record := &records[i]
		for _, v := range record.Profile.DetectedVariants {
			rsid := strings.TrimSpace(v.RSID)
			if rsid == "" {
				continue
			}

			if pos, seen := index[rsid]; seen {
				merged[pos].DrugInteractions = appendUnique(merged[pos].DrugInteractions, record.Drug)
				continue
			}

			ref, alt := SplitGenotype(v.Genotype)
			significance := strings.TrimSpace(v.Impact)
			if significance == "" {
				significance = unknownSignificance
			}

			index[rsid] = len(merged)
			merged = append(merged, domain.MergedVariant{
				RSID:                 rsid,
				Gene:                 record.Profile.PrimaryGene,
				Chromosome:           v.Chromosome,
				Position:             v.Position,
				Ref:                  ref,
				Alt:                  alt,
				ToxicityScore:        ToxicityScore(record.RiskAssessment.ConfidenceScore),
				Classification:       SeverityToClassification(record.RiskAssessment.Severity),
				DrugInteractions:     []string{record.Drug},
				ClinicalSignificance: significance,
			})
		}
	}

	return merged
}

// SplitGenotype splits "REF/ALT" on "/" and keeps the first two slots. Each
// missing or empty slot becomes "?", so a bare call keeps the whole string as
// the reference allele.
func SplitGenotype(genotype string) (ref, alt string) {
	parts := strings.Split(strings.TrimSpace(genotype), "/")
	ref = allele(parts, 0)
	alt = allele(parts, 1)
	return ref, alt
}

func allele(parts []string, i int) string {
	if i >= len(parts) {
		return unknownAllele
	}
	if v := strings.TrimSpace(parts[i]); v != "" {
		return v
	}
	return unknownAllele
}

func appendUnique(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}
