// Package aggregator turns the per-drug records of an analysis service response into
// the deduplicated, risk-ranked view model rendered by the dashboard.
//
// Aggregation is pure: it never fails, never mutates its input and, given a clock,
// always produces the same output for the same response.
package aggregator

import (
	"strings"
	"time"

	"github.com/pharmaguard-dashboard/internal/domain"
)

// timestampLayouts are the record timestamp formats accepted for AnalyzedAt.
// Zone-less timestamps are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Aggregator builds UIAnalysisResult values.
type Aggregator struct {
	now func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock sets the clock used when no record carries a timestamp.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates an Aggregator. The default clock is the current UTC time.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var defaultAggregator = New()

// Aggregate builds the view model with the default clock.
func Aggregate(resp *domain.BackendAnalysisResponse) *domain.UIAnalysisResult {
	return defaultAggregator.Aggregate(resp)
}

// Aggregate builds the view model for a response. A nil response yields an empty result.
func (a *Aggregator) Aggregate(resp *domain.BackendAnalysisResponse) *domain.UIAnalysisResult {
	var records []domain.AnalysisRecord
	if resp != nil {
		records = resp.Results
	}

	variants := ExtractAndMerge(records)

	result := &domain.UIAnalysisResult{
		PatientID:          patientID(records),
		AnalyzedAt:         a.analyzedAt(records),
		TotalDrugsAnalyzed: len(records),
		OverallRisk:        OverallRisk(records),
		Variants:           variants,
		Drugs:              drugRows(records),
		Summary:            Summarize(records),
		RawResponse:        resp,
	}
	if resp != nil {
		result.ProcessingTimeMs = resp.OverallProcessingTimeMs
		if resp.TotalDrugsAnalyzed > 0 {
			result.TotalDrugsAnalyzed = resp.TotalDrugsAnalyzed
		}
	}

	if len(variants) > 0 {
		result.TotalVariants = len(variants)
		for _, v := range variants {
			result.ToxicityBreakdown.Add(v.Classification)
		}
		return result
	}

	// No variant detail: fall back to one unit per record in its risk-label bucket.
	for i := range records {
		result.ToxicityBreakdown.Add(RiskLabelToClassification(records[i].RiskAssessment.RiskLabel))
	}
	result.TotalVariants = resp.RawVariantCount()
	if result.TotalVariants == 0 {
		result.TotalVariants = len(records)
	}

	return result
}

// OverallRisk returns the most severe risk-label classification, or safe when there are no records.
func OverallRisk(records []domain.AnalysisRecord) domain.Classification {
	overall := domain.ClassificationSafe
	for i := range records {
		overall = overall.Max(RiskLabelToClassification(records[i].RiskAssessment.RiskLabel))
	}
	return overall
}

func drugRows(records []domain.AnalysisRecord) []domain.DrugRiskRow {
	rows := make([]domain.DrugRiskRow, 0, len(records))
	for i := range records {
		r := &records[i]
		alternatives := r.Recommendation.AlternativeDrugs
		if alternatives == nil {
			alternatives = []string{}
		}
		rows = append(rows, domain.DrugRiskRow{
			Drug:               r.Drug,
			Gene:               r.Profile.PrimaryGene,
			Diplotype:          r.Profile.Diplotype,
			Phenotype:          r.Profile.Phenotype,
			PhenotypeStatus:    r.Profile.Phenotype.Description(),
			RiskLabel:          r.RiskAssessment.RiskLabel,
			Classification:     RiskLabelToClassification(r.RiskAssessment.RiskLabel),
			Severity:           r.RiskAssessment.Severity,
			Confidence:         r.RiskAssessment.ConfidenceScore,
			VariantCount:       len(r.Profile.DetectedVariants),
			AlternativeDrugs:   alternatives,
			MonitoringRequired: r.Recommendation.MonitoringRequired,
			GuidelineReference: r.Recommendation.GuidelineReference,
		})
	}
	return rows
}

func patientID(records []domain.AnalysisRecord) string {
	for i := range records {
		if id := strings.TrimSpace(records[i].PatientID); id != "" {
			return id
		}
	}
	return ""
}

// analyzedAt returns the first parseable record timestamp, or the clock's time.
func (a *Aggregator) analyzedAt(records []domain.AnalysisRecord) time.Time {
	for i := range records {
		if ts, ok := parseTimestamp(records[i].Timestamp); ok {
			return ts
		}
	}
	return a.now()
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
