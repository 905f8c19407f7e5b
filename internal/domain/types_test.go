package domain

import (
	"testing"
)

func TestClassificationOrdering(t *testing.T) {
	all := []Classification{
		ClassificationSafe,
		ClassificationLow,
		ClassificationModerate,
		ClassificationHigh,
		ClassificationCritical,
	}

	for i, c := range all {
		if c.Ordinal() != i {
			t.Errorf("Expected %s to have ordinal %d, got %d", c, i, c.Ordinal())
		}
		if !c.IsValid() {
			t.Errorf("Expected %s to be valid", c)
		}
	}

	if Classification("severe").IsValid() {
		t.Error("Expected unknown classification to be invalid")
	}
}

func TestClassificationMax(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Classification
		expected Classification
	}{
		{"Higher wins", ClassificationLow, ClassificationHigh, ClassificationHigh},
		{"Receiver kept when higher", ClassificationCritical, ClassificationModerate, ClassificationCritical},
		{"Equal", ClassificationSafe, ClassificationSafe, ClassificationSafe},
		{"Invalid never wins", ClassificationSafe, Classification("bogus"), ClassificationSafe},
		{"Valid beats invalid receiver", Classification("bogus"), ClassificationLow, ClassificationLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Max(tt.b); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestRequiresClinicalAction(t *testing.T) {
	tests := []struct {
		value    Classification
		expected bool
	}{
		{ClassificationSafe, false},
		{ClassificationLow, false},
		{ClassificationModerate, false},
		{ClassificationHigh, true},
		{ClassificationCritical, true},
		{Classification("unknown"), true},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			if got := tt.value.RequiresClinicalAction(); got != tt.expected {
				t.Errorf("Expected %t for %s, got %t", tt.expected, tt.value, got)
			}
		})
	}
}

func TestClassificationLogFields(t *testing.T) {
	fields := ClassificationHigh.LogFields()

	if fields["classification"] != "high" {
		t.Errorf("Unexpected classification field %v", fields["classification"])
	}
	if fields["ordinal"] != 3 {
		t.Errorf("Unexpected ordinal field %v", fields["ordinal"])
	}
	if fields["requires_action"] != true {
		t.Error("Expected high to require action")
	}
	if Classification("bogus").LogFields()["is_valid"] != false {
		t.Error("Expected bogus classification to be flagged invalid")
	}
}

func TestRiskLabelIsValid(t *testing.T) {
	valid := []RiskLabel{RiskSafe, RiskAdjustDosage, RiskAdjustDosageCompact, RiskToxic, RiskIneffective, RiskUnknown}
	for _, label := range valid {
		if !label.IsValid() {
			t.Errorf("Expected %q to be valid", label)
		}
	}

	for _, label := range []RiskLabel{"", "safe", "Adjust dosage", "Lethal"} {
		if label.IsValid() {
			t.Errorf("Expected %q to be invalid", label)
		}
	}
}

func TestPhenotypeDescription(t *testing.T) {
	if PhenotypePM.Description() != "Poor Metabolizer" {
		t.Errorf("Unexpected description %q", PhenotypePM.Description())
	}
	if Phenotype("XM").IsValid() {
		t.Error("Expected XM to be invalid")
	}
	if Phenotype("XM").Description() != "Unknown Metabolizer Status" {
		t.Errorf("Unexpected description %q", Phenotype("XM").Description())
	}
}

func TestToxicityBreakdown(t *testing.T) {
	var b ToxicityBreakdown
	b.Add(ClassificationSafe)
	b.Add(ClassificationCritical)
	b.Add(ClassificationCritical)
	b.Add(Classification("bogus"))

	if b.Critical != 2 {
		t.Errorf("Expected 2 critical, got %d", b.Critical)
	}
	if b.Moderate != 1 {
		t.Errorf("Expected unknown values in moderate, got %d", b.Moderate)
	}
	if b.Total() != 4 {
		t.Errorf("Expected total 4, got %d", b.Total())
	}
}
