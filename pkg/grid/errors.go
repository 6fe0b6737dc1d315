package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPoint is returned for a point with a non-finite value, a mass below 1,
	// or a negative intensity.
	ErrInvalidPoint = errors.New("grid: invalid point")

	// ErrUnordered is returned when a point's integer mass does not advance past the
	// previous point's, i.e. duplicates, descending masses, or fractional masses that
	// collapse onto the same unit.
	ErrUnordered = errors.New("grid: masses must be strictly ascending integer units")

	// ErrGridOverflow is returned when a point's mass lies past the grid width.
	ErrGridOverflow = errors.New("grid: mass exceeds grid width")

	// ErrLengthMismatch is returned when a spectrum of the wrong width is appended.
	ErrLengthMismatch = errors.New("grid: spectrum length does not match grid width")
)

// BinningError describes the point that could not be mapped onto the grid.
type BinningError struct {
	Index int     // position of the offending point
	Mass  float64 // its mass
	Err   error
}

func (e *BinningError) Error() string {
	return fmt.Sprintf("binning point %d (mass %g): %v", e.Index, e.Mass, e.Err)
}

func (e *BinningError) Unwrap() error { return e.Err }

// PreconditionError is returned by Matrix.Append for a spectrum that GridBinner did not
// produce for this width.
type PreconditionError struct {
	Want, Got int
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%v: want %d values, got %d", ErrLengthMismatch, e.Want, e.Got)
}

func (e *PreconditionError) Unwrap() error { return ErrLengthMismatch }
