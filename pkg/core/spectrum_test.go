package core

import (
	"math"
	"testing"
)

func TestSpectrumValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    *Spectrum
		wantErr bool
	}{
		{
			name: "valid spectrum",
			spec: &Spectrum{
				Title:  "Water",
				Points: []Point{{Mass: 17, Intensity: 212}, {Mass: 18, Intensity: 999}},
			},
			wantErr: false,
		},
		{
			name:    "no points",
			spec:    &Spectrum{Title: "Water"},
			wantErr: true,
		},
		{
			name:    "zero mass",
			spec:    &Spectrum{Points: []Point{{Mass: 0, Intensity: 1}}},
			wantErr: true,
		},
		{
			name:    "negative intensity",
			spec:    &Spectrum{Points: []Point{{Mass: 2, Intensity: -1}}},
			wantErr: true,
		},
		{
			name:    "NaN intensity",
			spec:    &Spectrum{Points: []Point{{Mass: 2, Intensity: math.NaN()}}},
			wantErr: true,
		},
		{
			name:    "infinite mass",
			spec:    &Spectrum{Points: []Point{{Mass: math.Inf(1), Intensity: 1}}},
			wantErr: true,
		},
		{
			name:    "unsorted points",
			spec:    &Spectrum{Points: []Point{{Mass: 18, Intensity: 1}, {Mass: 17, Intensity: 1}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if _, ok := err.(*ValidationError); !ok {
					t.Errorf("Validate() returned %T, want *ValidationError", err)
				}
			}
		})
	}
}

func TestSortPoints(t *testing.T) {
	spec := &Spectrum{Points: []Point{{Mass: 31, Intensity: 3}, {Mass: 15, Intensity: 1}, {Mass: 29, Intensity: 2}}}
	if spec.ArePointsSorted() {
		t.Fatal("expected points to be unsorted")
	}
	spec.SortPoints()
	if !spec.ArePointsSorted() {
		t.Errorf("points not sorted: %+v", spec.Points)
	}
	if spec.Points[0].Intensity != 1 || spec.Points[2].Intensity != 3 {
		t.Errorf("intensities did not move with masses: %+v", spec.Points)
	}
}

func TestMassRangeAndBasePeak(t *testing.T) {
	spec := &Spectrum{Points: []Point{{Mass: 15, Intensity: 528}, {Mass: 31, Intensity: 9999}, {Mass: 33, Intensity: 87}}}

	lo, hi := spec.MassRange()
	if lo != 15 || hi != 33 {
		t.Errorf("MassRange() = %v, %v, want 15, 33", lo, hi)
	}

	base, ok := spec.BasePeak()
	if !ok || base.Mass != 31 {
		t.Errorf("BasePeak() = %+v, %v, want mass 31", base, ok)
	}

	empty := &Spectrum{}
	if _, ok := empty.BasePeak(); ok {
		t.Error("BasePeak() on empty spectrum should report false")
	}
}

func TestSpectrumName(t *testing.T) {
	if got := (&Spectrum{Title: "Argon", SourceFile: "ar.jdx"}).Name(); got != "Argon" {
		t.Errorf("Name() = %s, want Argon", got)
	}
	if got := (&Spectrum{SourceFile: "ar.jdx"}).Name(); got != "ar.jdx" {
		t.Errorf("Name() = %s, want ar.jdx", got)
	}
}
