package domain

import (
	"time"

	"github.com/google/uuid"
)

// MergedVariant is the cross-drug view of a variant identified by its rsid.
type MergedVariant struct {
	RSID                 string         `json:"rsid"`
	Gene                 string         `json:"gene"`
	Chromosome           string         `json:"chromosome"`
	Position             int64          `json:"position"`
	Ref                  string         `json:"ref"`
	Alt                  string         `json:"alt"`
	ToxicityScore        int            `json:"toxicityScore"`
	Classification       Classification `json:"classification"`
	DrugInteractions     []string       `json:"drugInteractions"`
	ClinicalSignificance string         `json:"clinicalSignificance"`
}

// ToxicityBreakdown is the fixed five-bucket histogram shown in the charts.
type ToxicityBreakdown struct {
	Safe     int `json:"safe"`
	Low      int `json:"low"`
	Moderate int `json:"moderate"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

// Add counts one unit in the bucket of c. Unknown values land in moderate.
func (b *ToxicityBreakdown) Add(c Classification) {
	switch c {
	case ClassificationSafe:
		b.Safe++
	case ClassificationLow:
		b.Low++
	case ClassificationHigh:
		b.High++
	case ClassificationCritical:
		b.Critical++
	default:
		b.Moderate++
	}
}

// Total returns the sum over all buckets.
func (b ToxicityBreakdown) Total() int {
	return b.Safe + b.Low + b.Moderate + b.High + b.Critical
}

// AnalysisSummary partitions the analyzed drugs and lists the recommendation lines.
type AnalysisSummary struct {
	SafeDrugs            []string `json:"safeDrugs"`
	CautionDrugs         []string `json:"cautionDrugs"`
	ContraindicatedDrugs []string `json:"contraindicatedDrugs"`
	Recommendations      []string `json:"recommendations"`
}

// DrugRiskRow is the per-drug line rendered in the results table.
type DrugRiskRow struct {
	Drug               string         `json:"drug"`
	Gene               string         `json:"gene"`
	Diplotype          string         `json:"diplotype"`
	Phenotype          Phenotype      `json:"phenotype"`
	PhenotypeStatus    string         `json:"phenotypeStatus"`
	RiskLabel          RiskLabel      `json:"riskLabel"`
	Classification     Classification `json:"classification"`
	Severity           Severity       `json:"severity"`
	Confidence         float64        `json:"confidence"`
	VariantCount       int            `json:"variantCount"`
	AlternativeDrugs   []string       `json:"alternativeDrugs"`
	MonitoringRequired bool           `json:"monitoringRequired"`
	GuidelineReference string         `json:"guidelineReference,omitempty"`
}

// UIAnalysisResult is the view model produced for one analysis run.
type UIAnalysisResult struct {
	PatientID          string                   `json:"patientId,omitempty"`
	AnalyzedAt         time.Time                `json:"analyzedAt"`
	TotalVariants      int                      `json:"totalVariants"`
	TotalDrugsAnalyzed int                      `json:"totalDrugsAnalyzed"`
	ProcessingTimeMs   int64                    `json:"processingTimeMs"`
	ToxicityBreakdown  ToxicityBreakdown        `json:"toxicityBreakdown"`
	OverallRisk        Classification           `json:"overallRisk"`
	Variants           []MergedVariant          `json:"variants"`
	Drugs              []DrugRiskRow            `json:"drugs"`
	Summary            AnalysisSummary          `json:"summary"`
	RawResponse        *BackendAnalysisResponse `json:"rawResponse"`
}

// AnalysisRun is an archived aggregation, written to the configured run sinks.
type AnalysisRun struct {
	ID            uuid.UUID         `json:"id"`
	SessionID     string            `json:"session_id"`
	PatientID     string            `json:"patient_id"`
	OverallRisk   Classification    `json:"overall_risk"`
	TotalVariants int               `json:"total_variants"`
	TotalDrugs    int               `json:"total_drugs"`
	Result        *UIAnalysisResult `json:"result"`
	CreatedAt     time.Time         `json:"created_at"`
}

// NewAnalysisRun wraps an aggregated result for archiving.
func NewAnalysisRun(sessionID string, result *UIAnalysisResult) *AnalysisRun {
	return &AnalysisRun{
		ID:            uuid.New(),
		SessionID:     sessionID,
		PatientID:     result.PatientID,
		OverallRisk:   result.OverallRisk,
		TotalVariants: result.TotalVariants,
		TotalDrugs:    len(result.Drugs),
		Result:        result,
		CreatedAt:     time.Now().UTC(),
	}
}

// StatusEvent is published to dashboard listeners while an analysis progresses.
type StatusEvent struct {
	SessionID   string         `json:"sessionId"`
	Status      AnalysisStatus `json:"status"`
	Message     string         `json:"message,omitempty"`
	OverallRisk Classification `json:"overallRisk,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// AnalysisStatus is the lifecycle state of a session's analysis.
type AnalysisStatus string

const (
	StatusAnalyzing AnalysisStatus = "analyzing"
	StatusCompleted AnalysisStatus = "completed"
	StatusFailed    AnalysisStatus = "failed"
)

// DrugRiskCount is one row of the drug/risk-label analytics view.
type DrugRiskCount struct {
	Drug      string    `json:"drug"`
	RiskLabel RiskLabel `json:"risk_label"`
	Analyses  int64     `json:"analyses"`
	LastSeen  time.Time `json:"last_seen"`
}
