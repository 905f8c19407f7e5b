// Package domain contains the core entities of the PharmaGuard dashboard gateway:
// the per-drug records returned by the pharmacogenomic analysis service and the
// aggregated view model rendered by the dashboard.
//
// Risk labels, severities and phenotypes follow the CPIC-aligned vocabulary used by
// the analysis service. Classifications are the five ordered risk buckets shown in
// the dashboard charts.
package domain

// RiskLabel is the analysis service's drug-level verdict.
type RiskLabel string

const (
	RiskSafe         RiskLabel = "Safe"
	RiskAdjustDosage RiskLabel = "Adjust Dosage"
	RiskToxic        RiskLabel = "Toxic"
	RiskIneffective  RiskLabel = "Ineffective"
	RiskUnknown      RiskLabel = "Unknown"

	// RiskAdjustDosageCompact is the spelling used by some clients of the service.
	RiskAdjustDosageCompact RiskLabel = "AdjustDosage"
)

// Severity is the per-drug severity attached to a risk assessment.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Phenotype is the metabolizer status inferred from the diplotype.
type Phenotype string

const (
	PhenotypePM      Phenotype = "PM"
	PhenotypeIM      Phenotype = "IM"
	PhenotypeNM      Phenotype = "NM"
	PhenotypeRM      Phenotype = "RM"
	PhenotypeURM     Phenotype = "URM"
	PhenotypeUnknown Phenotype = "Unknown"
)

// Classification is one of the five ordered risk buckets used by the dashboard.
type Classification string

const (
	ClassificationSafe     Classification = "safe"
	ClassificationLow      Classification = "low"
	ClassificationModerate Classification = "moderate"
	ClassificationHigh     Classification = "high"
	ClassificationCritical Classification = "critical"
)

// IsValid reports whether the label is part of the service vocabulary.
// The compact AdjustDosage spelling is accepted.
func (r RiskLabel) IsValid() bool {
	switch r {
	case RiskSafe, RiskAdjustDosage, RiskAdjustDosageCompact, RiskToxic, RiskIneffective, RiskUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk label.
func (r RiskLabel) String() string {
	return string(r)
}

// IsValid reports whether the severity is part of the service vocabulary.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityNone, SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// IsValid reports whether the phenotype is part of the service vocabulary.
func (p Phenotype) IsValid() bool {
	switch p {
	case PhenotypePM, PhenotypeIM, PhenotypeNM, PhenotypeRM, PhenotypeURM, PhenotypeUnknown:
		return true
	default:
		return false
	}
}

// Description returns the human-readable metabolizer status.
func (p Phenotype) Description() string {
	switch p {
	case PhenotypePM:
		return "Poor Metabolizer"
	case PhenotypeIM:
		return "Intermediate Metabolizer"
	case PhenotypeNM:
		return "Normal Metabolizer"
	case PhenotypeRM:
		return "Rapid Metabolizer"
	case PhenotypeURM:
		return "Ultrarapid Metabolizer"
	default:
		return "Unknown Metabolizer Status"
	}
}

// Ordinal returns the position of the classification in the total order
// safe < low < moderate < high < critical, or -1 for an unknown value.
func (c Classification) Ordinal() int {
	switch c {
	case ClassificationSafe:
		return 0
	case ClassificationLow:
		return 1
	case ClassificationModerate:
		return 2
	case ClassificationHigh:
		return 3
	case ClassificationCritical:
		return 4
	default:
		return -1
	}
}

// IsValid reports whether the classification is one of the five buckets.
func (c Classification) IsValid() bool {
	return c.Ordinal() >= 0
}

// String returns the string representation of the classification.
func (c Classification) String() string {
	return string(c)
}

// Max returns the more severe of the two classifications.
// Invalid values never win over valid ones.
func (c Classification) Max(other Classification) Classification {
	if other.Ordinal() > c.Ordinal() {
		return other
	}
	return c
}

// RequiresClinicalAction reports whether the bucket warrants prescriber attention.
func (c Classification) RequiresClinicalAction() bool {
	switch c {
	case ClassificationHigh, ClassificationCritical:
		return true
	case ClassificationSafe, ClassificationLow, ClassificationModerate:
		return false
	default:
		return true // Conservative approach for unknown classifications
	}
}

// LogFields returns structured logging fields for the analysis audit entry.
func (c Classification) LogFields() map[string]any {
	return map[string]any{
		"classification":  string(c),
		"ordinal":         c.Ordinal(),
		"is_valid":        c.IsValid(),
		"requires_action": c.RequiresClinicalAction(),
	}
}
