// Package core provides the intermediate representation (IR) models and validation logic
// for mass spectra and molecule metadata used by jdxconv.
package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Point is a single (mass, intensity) observation from a raw spectrum.
type Point struct {
	Mass      float64 // m/z, expected to be integer valued for EI spectra
	Intensity float64
}

// Spectrum represents one molecule's raw fragmentation pattern as read from a source file.
type Spectrum struct {
	// Required fields
	Title  string
	Points []Point

	// Optional metadata
	Formula         string
	MolecularWeight Known[float64]
	CASNumber       string
	Origin          string // Lab or database the spectrum came from

	// Internal tracking
	SourceFile   string
	SourceFormat string // jdx, msp, library
}

// ValidationError represents an error found during spectrum validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that a spectrum carries usable point data.
func (s *Spectrum) Validate() error {
	var errs []string

	if len(s.Points) == 0 {
		errs = append(errs, "at least one point is required")
	}

	for i, p := range s.Points {
		if math.IsNaN(p.Mass) || math.IsInf(p.Mass, 0) {
			errs = append(errs, fmt.Sprintf("point %d has invalid mass", i))
		}
		if math.IsNaN(p.Intensity) || math.IsInf(p.Intensity, 0) {
			errs = append(errs, fmt.Sprintf("point %d has invalid intensity", i))
		}
		if p.Mass <= 0 {
			errs = append(errs, fmt.Sprintf("point %d mass must be positive", i))
		}
		if p.Intensity < 0 {
			errs = append(errs, fmt.Sprintf("point %d intensity must be non-negative", i))
		}
	}

	if !s.ArePointsSorted() {
		errs = append(errs, "points must be sorted by mass")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Spectrum",
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// ArePointsSorted checks if points are sorted by mass in ascending order.
func (s *Spectrum) ArePointsSorted() bool {
	for i := 1; i < len(s.Points); i++ {
		if s.Points[i].Mass < s.Points[i-1].Mass {
			return false
		}
	}
	return true
}

// SortPoints sorts points by mass in ascending order.
func (s *Spectrum) SortPoints() {
	sort.SliceStable(s.Points, func(i, j int) bool {
		return s.Points[i].Mass < s.Points[j].Mass
	})
}

// MassRange returns the smallest and largest mass in the spectrum.
func (s *Spectrum) MassRange() (lo, hi float64) {
	if len(s.Points) == 0 {
		return 0, 0
	}
	lo, hi = s.Points[0].Mass, s.Points[0].Mass
	for _, p := range s.Points[1:] {
		lo = math.Min(lo, p.Mass)
		hi = math.Max(hi, p.Mass)
	}
	return lo, hi
}

// BasePeak returns the point with the highest intensity.
func (s *Spectrum) BasePeak() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	best := s.Points[0]
	for _, p := range s.Points[1:] {
		if p.Intensity > best.Intensity {
			best = p
		}
	}
	return best, true
}

// Name returns the spectrum title, falling back to the source file.
func (s *Spectrum) Name() string {
	if s.Title != "" {
		return s.Title
	}
	return s.SourceFile
}
