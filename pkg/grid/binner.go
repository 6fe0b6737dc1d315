// Package grid bins sparse (mass, intensity) spectra onto a fixed integer mass grid and
// assembles the binned spectra into a single matrix.
package grid

import (
	"fmt"
	"math"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
)

// DefaultWidth is the largest fragment mass the grid holds unless configured otherwise.
const DefaultWidth = 300

// DenseSpectrum holds one intensity per integer mass unit; index i holds mass i+1.
type DenseSpectrum []float64

// At returns the intensity at integer mass g (1-based).
func (d DenseSpectrum) At(g int) float64 {
	return d[g-1]
}

// Binner converts point spectra into DenseSpectrum vectors of a fixed width.
type Binner struct {
	width        int
	dropOverflow bool
}

// Option configures a Binner.
type Option func(*Binner)

// WithDropOverflow makes the binner ignore points whose mass lies past the grid
// instead of failing with ErrGridOverflow.
func WithDropOverflow(drop bool) Option {
	return func(b *Binner) {
		b.dropOverflow = drop
	}
}

// NewBinner creates a binner for a grid of width mass units.
func NewBinner(width int, opts ...Option) (*Binner, error) {
	if width <= 0 {
		return nil, fmt.Errorf("grid: width must be positive, got %d", width)
	}
	b := &Binner{width: width}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Width returns the grid width in mass units.
func (b *Binner) Width() int {
	return b.width
}

// Zero returns an all-zero spectrum for molecules whose data could not be obtained.
func (b *Binner) Zero() DenseSpectrum {
	return make(DenseSpectrum, b.width)
}

// Bin maps points onto the grid.
//
// The grid position is a running count of emitted values: for each point, zeros are
// emitted until the count reaches floor(mass)-1, then the point's intensity is emitted.
// Intensities are taken by position, so the i-th mass always pairs with the i-th
// intensity. This is only a correct mass-to-index mapping when masses are integer units
// in strictly ascending order; anything else is rejected with a BinningError rather
// than misaligned.
func (b *Binner) Bin(points []core.Point) (DenseSpectrum, error) {
	out := make(DenseSpectrum, 0, b.width)
	cursor := 0

	for i, p := range points {
		if !validPoint(p) {
			return nil, &BinningError{Index: i, Mass: p.Mass, Err: ErrInvalidPoint}
		}

		unit := int(math.Floor(p.Mass))
		if unit > b.width {
			if b.dropOverflow {
				continue
			}
			return nil, &BinningError{Index: i, Mass: p.Mass, Err: ErrGridOverflow}
		}
		if unit <= cursor {
			return nil, &BinningError{Index: i, Mass: p.Mass, Err: ErrUnordered}
		}

		for cursor+1 < unit {
			out = append(out, 0)
			cursor++
		}
		out = append(out, p.Intensity)
		cursor++
	}

	// Zero-fill the tail; the overflow check above keeps len(out) <= width.
	for len(out) < b.width {
		out = append(out, 0)
	}
	return out, nil
}

func validPoint(p core.Point) bool {
	if math.IsNaN(p.Mass) || math.IsInf(p.Mass, 0) || p.Mass < 1 {
		return false
	}
	if math.IsNaN(p.Intensity) || math.IsInf(p.Intensity, 0) || p.Intensity < 0 {
		return false
	}
	return true
}
