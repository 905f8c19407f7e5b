package aggregator

import (
	"fmt"
	"strings"

	"github.com/pharmaguard-dashboard/internal/domain"
)

// trivialAdjustments are dose adjustments that do not warrant a dosing line.
var trivialAdjustments = map[string]struct{}{
	"none":            {},
	"n/a":             {},
	"na":              {},
	"-":               {},
	"standard":        {},
	"standard dosing": {},
	"no change":       {},
}

// IsTrivialAdjustment reports whether a dose adjustment carries no actionable advice.
func IsTrivialAdjustment(adjustment string) bool {
	adjustment = strings.ToLower(strings.TrimSpace(adjustment))
	if adjustment == "" {
		return true
	}
	_, ok := trivialAdjustments[adjustment]
	return ok
}

// Summarize partitions the drugs by risk label and builds the recommendation lines.
// Safe goes to SafeDrugs, Toxic to ContraindicatedDrugs and every other label to
// CautionDrugs. A drug listed by several records is placed once, by its first record.
func Summarize(records []domain.AnalysisRecord) domain.AnalysisSummary {
	summary := domain.AnalysisSummary{
		SafeDrugs:            []string{},
		CautionDrugs:         []string{},
		ContraindicatedDrugs: []string{},
		Recommendations:      []string{},
	}

	placed := make(map[string]struct{}, len(records))
	for i := range records {
		record := &records[i]

		if _, ok := placed[record.Drug]; !ok {
			placed[record.Drug] = struct{}{}
			switch domain.RiskLabel(strings.TrimSpace(string(record.RiskAssessment.RiskLabel))) {
			case domain.RiskSafe:
				summary.SafeDrugs = append(summary.SafeDrugs, record.Drug)
			case domain.RiskToxic:
				summary.ContraindicatedDrugs = append(summary.ContraindicatedDrugs, record.Drug)
			default:
				summary.CautionDrugs = append(summary.CautionDrugs, record.Drug)
			}
		}

		summary.Recommendations = append(summary.Recommendations, Recommendations(record)...)
	}

	return summary
}

// Recommendations returns the recommendation lines contributed by one record.
func Recommendations(record *domain.AnalysisRecord) []string {
	var lines []string
	if strings.TrimSpace(record.Explanation.Summary) != "" {
		lines = append(lines, fmt.Sprintf("%s (%s): %s",
			record.Drug, record.Profile.PrimaryGene, strings.TrimSpace(record.Recommendation.RecommendedAction)))
	}
	if !IsTrivialAdjustment(record.Recommendation.DoseAdjustment) {
		lines = append(lines, fmt.Sprintf("%s dosing: %s",
			record.Drug, strings.TrimSpace(record.Recommendation.DoseAdjustment)))
	}
	return lines
}
