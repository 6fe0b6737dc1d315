package core

import (
	"math"
	"testing"
)

func TestElectronCount(t *testing.T) {
	tests := []struct {
		formula string
		want    int
	}{
		{"CH4", 10},
		{"H2O", 10},
		{"N2", 14},
		{"C2H6O", 26},
		{"C H4 O", 18},
		{"CH3(CH2)2OH", 34},
		{"CuSO4·5H2O", 127},
		{"[Fe(CN)6]", 104},
		{"D2O", 10},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			got, err := ElectronCount(tt.formula)
			if err != nil {
				t.Fatalf("ElectronCount(%q) returned error: %v", tt.formula, err)
			}
			if got != tt.want {
				t.Errorf("ElectronCount(%q) = %d, want %d", tt.formula, got, tt.want)
			}
		})
	}
}

func TestMolecularWeight(t *testing.T) {
	tests := []struct {
		formula   string
		want      float64
		tolerance float64
	}{
		{"H2O", 18.015, 0.001},
		{"CH4O", 32.042, 0.001},
		{"CO2", 44.009, 0.001},
		{"CuSO4.5H2O", 249.68, 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			got, err := MolecularWeight(tt.formula)
			if err != nil {
				t.Fatalf("MolecularWeight(%q) returned error: %v", tt.formula, err)
			}
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("MolecularWeight(%q) = %.4f, want %.4f ± %.3f", tt.formula, got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestParseFormulaErrors(t *testing.T) {
	tests := []string{
		"",
		"Xx2",
		"CH3(CH2",
		"CH3)2",
		"h2o",
		"C2H6O!",
	}

	for _, formula := range tests {
		t.Run(formula, func(t *testing.T) {
			if _, err := ParseFormula(formula); err == nil {
				t.Errorf("ParseFormula(%q) expected error", formula)
			}
		})
	}
}

func TestHillFormula(t *testing.T) {
	tests := []struct {
		formula string
		want    string
	}{
		{"OHCH3", "CH4O"},
		{"CH3(CH2)2OH", "C3H8O"},
		{"H2O", "H2O"},
		{"SO4Cu", "CuO4S"},
	}

	for _, tt := range tests {
		comp, err := ParseFormula(tt.formula)
		if err != nil {
			t.Fatalf("ParseFormula(%q) returned error: %v", tt.formula, err)
		}
		if got := comp.HillFormula(); got != tt.want {
			t.Errorf("HillFormula(%q) = %s, want %s", tt.formula, got, tt.want)
		}
	}
}

func TestRoundFloat(t *testing.T) {
	if got := RoundFloat(18.01528, 3); got != 18.015 {
		t.Errorf("RoundFloat = %v, want 18.015", got)
	}
}
