package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// UnknownLabel is written wherever a metadata value could not be determined.
const UnknownLabel = "unknown"

// Known holds a metadata value that may be missing. The zero value is unknown.
type Known[T int | float64 | string] struct {
	Value T
	Valid bool
}

// Some returns a known value.
func Some[T int | float64 | string](v T) Known[T] {
	return Known[T]{Value: v, Valid: true}
}

// Get returns the value and whether it is known.
func (k Known[T]) Get() (T, bool) {
	return k.Value, k.Valid
}

// Or returns the value when known, otherwise fallback.
func (k Known[T]) Or(fallback T) T {
	if k.Valid {
		return k.Value
	}
	return fallback
}

func (k Known[T]) String() string {
	if !k.Valid {
		return UnknownLabel
	}
	return fmt.Sprint(k.Value)
}

// MoleculeRecord is the per-molecule metadata written above the spectrum matrix.
type MoleculeRecord struct {
	Name                 string
	ElectronCount        Known[int]
	MolecularWeight      Known[float64]
	IonizationType       Known[string]
	IonizationFactor     Known[string] // relative to N2, kept as written
	FragmentationSource  Known[string]
	IonizationDataSource Known[string]
}

// UnknownRecord returns a record for name with every metadata field unknown.
func UnknownRecord(name string) MoleculeRecord {
	return MoleculeRecord{Name: name}
}

// IsUnknownCell reports whether a raw table cell means "no value".
func IsUnknownCell(cell string) bool {
	cell = strings.TrimSpace(cell)
	return cell == "" || strings.EqualFold(cell, UnknownLabel)
}

// ParseKnownString maps a raw cell to a Known string.
func ParseKnownString(cell string) Known[string] {
	if IsUnknownCell(cell) {
		return Known[string]{}
	}
	return Some(strings.TrimSpace(cell))
}

// ParseKnownFloat maps a raw cell to a Known float.
func ParseKnownFloat(cell string) (Known[float64], error) {
	if IsUnknownCell(cell) {
		return Known[float64]{}, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return Known[float64]{}, fmt.Errorf("invalid number %q: %w", cell, err)
	}
	return Some(v), nil
}

// ParseKnownInt maps a raw cell to a Known int. Integral floats such as "18.0" are accepted.
func ParseKnownInt(cell string) (Known[int], error) {
	f, err := ParseKnownFloat(cell)
	if err != nil || !f.Valid {
		return Known[int]{}, err
	}
	if f.Value != math.Trunc(f.Value) {
		return Known[int]{}, fmt.Errorf("invalid integer %q", cell)
	}
	return Some(int(f.Value)), nil
}
