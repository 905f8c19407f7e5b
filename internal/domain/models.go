package domain

import (
	"encoding/json"
	"fmt"
)

// DetectedVariant is a single genomic finding reported inside a drug record.
// The same rsid can be reported once per drug that references it.
type DetectedVariant struct {
	RSID       string `json:"rsid"`
	Chromosome string `json:"chromosome"`
	Position   int64  `json:"position"`
	Genotype   string `json:"genotype"` // "REF/ALT" or a bare call
	Impact     string `json:"impact"`
}

// RiskAssessment is the drug-level verdict.
type RiskAssessment struct {
	RiskLabel       RiskLabel `json:"risk_label"`
	ConfidenceScore float64   `json:"confidence_score"`
	Severity        Severity  `json:"severity"`
}

// PharmacogenomicProfile describes the gene driving a drug's response.
type PharmacogenomicProfile struct {
	PrimaryGene      string            `json:"primary_gene"`
	Diplotype        string            `json:"diplotype"`
	Phenotype        Phenotype         `json:"phenotype"`
	DetectedVariants []DetectedVariant `json:"detected_variants"`
}

// ClinicalRecommendation is the guideline-derived prescribing advice.
type ClinicalRecommendation struct {
	GuidelineReference string   `json:"cpic_guideline_reference"`
	RecommendedAction  string   `json:"recommended_action"`
	DoseAdjustment     string   `json:"dose_adjustment"`
	AlternativeDrugs   []string `json:"alternative_drugs"`
	MonitoringRequired bool     `json:"monitoring_required"`
}

// LLMExplanation is the generated narrative. Any field may be empty.
type LLMExplanation struct {
	Summary             string `json:"summary"`
	MechanismOfAction   string `json:"mechanism_of_action"`
	VariantSignificance string `json:"variant_significance"`
	DosingRationale     string `json:"dosing_rationale"`
}

// QualityMetrics carries the service's self-reported processing quality.
type QualityMetrics struct {
	VCFParsingSuccess       bool    `json:"vcf_parsing_success"`
	VariantMatchConfidence  float64 `json:"variant_match_confidence"`
	LLMGroundedOnGuidelines bool    `json:"llm_grounded_on_guidelines"`
	ProcessingTimeMs        int64   `json:"processing_time_ms"`
}

// AnalysisRecord is one analysis outcome for a single drug.
type AnalysisRecord struct {
	PatientID      string                 `json:"patient_id"`
	Drug           string                 `json:"drug"`
	Timestamp      string                 `json:"timestamp,omitempty"`
	RiskAssessment RiskAssessment         `json:"risk_assessment"`
	Profile        PharmacogenomicProfile `json:"pharmacogenomic_profile"`
	Recommendation ClinicalRecommendation `json:"clinical_recommendation"`
	Explanation    LLMExplanation         `json:"llm_generated_explanation"`
	QualityMetrics QualityMetrics         `json:"quality_metrics"`
}

// BackendAnalysisResponse is the analysis service's reply to an analyze request.
type BackendAnalysisResponse struct {
	Results                 []AnalysisRecord `json:"results"`
	TotalDrugsAnalyzed      int              `json:"total_drugs_analyzed"`
	OverallProcessingTimeMs int64            `json:"overall_processing_time_ms"`
}

// DecodeBackendResponse parses a raw analysis service payload.
func DecodeBackendResponse(data []byte) (*BackendAnalysisResponse, error) {
	var resp BackendAnalysisResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding analysis response: %w", err)
	}
	return &resp, nil
}

// RawVariantCount returns the number of detected-variant occurrences across
// all records, without deduplication.
func (r *BackendAnalysisResponse) RawVariantCount() int {
	if r == nil {
		return 0
	}
	total := 0
	for i := range r.Results {
		total += len(r.Results[i].Profile.DetectedVariants)
	}
	return total
}

// Drugs returns the drug identifiers in record order.
func (r *BackendAnalysisResponse) Drugs() []string {
	if r == nil {
		return nil
	}
	drugs := make([]string, 0, len(r.Results))
	for i := range r.Results {
		drugs = append(drugs, r.Results[i].Drug)
	}
	return drugs
}

// SupportedDrug is an entry of the service's drug panel.
type SupportedDrug struct {
	Name        string `json:"name"`
	PrimaryGene string `json:"primary_gene"`
}

// ServiceHealth is the analysis service's health report.
type ServiceHealth struct {
	Status  string `json:"status"`
	App     string `json:"app"`
	Version string `json:"version"`
}

// AnalyzeRequest is a validated upload ready to be forwarded to the service.
type AnalyzeRequest struct {
	SessionID string
	FileName  string
	Content   []byte
	Drugs     []string
}

// VCFValidationResult is the service's verdict on an uploaded file, without analysis.
type VCFValidationResult struct {
	IsValid                   bool     `json:"is_valid"`
	Errors                    []string `json:"errors"`
	Warnings                  []string `json:"warnings"`
	SampleID                  string   `json:"sample_id,omitempty"`
	VariantCount              int      `json:"variant_count"`
	PharmacogeneVariantsFound int      `json:"pharmacogene_variants_found"`
}
