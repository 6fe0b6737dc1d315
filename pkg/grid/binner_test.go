package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
)

func points(pairs ...float64) []core.Point {
	out := make([]core.Point, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, core.Point{Mass: pairs[i], Intensity: pairs[i+1]})
	}
	return out
}

func TestBinLengthInvariant(t *testing.T) {
	b, err := NewBinner(DefaultWidth)
	require.NoError(t, err)

	tests := []struct {
		name   string
		points []core.Point
	}{
		{"empty", nil},
		{"single low mass", points(1, 5)},
		{"sparse", points(14, 120, 15, 880, 28, 9999, 31, 40)},
		{"last grid unit", points(299, 1, 300, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Bin(tt.points)
			require.NoError(t, err)
			assert.Len(t, got, DefaultWidth)
		})
	}
}

func TestBinPlacesIntensityAtMass(t *testing.T) {
	b, err := NewBinner(50)
	require.NoError(t, err)

	got, err := b.Bin(points(12, 30, 15, 880, 16, 999, 31, 20))
	require.NoError(t, err)

	want := map[int]float64{12: 30, 15: 880, 16: 999, 31: 20}
	for g := 1; g <= 50; g++ {
		assert.Equal(t, want[g], got.At(g), "mass %d", g)
	}
}

func TestBinZeroFillsTail(t *testing.T) {
	b, err := NewBinner(10)
	require.NoError(t, err)

	got, err := b.Bin(points(1, 1, 2, 0, 3, 2, 4, 0))
	require.NoError(t, err)

	assert.Equal(t, DenseSpectrum{1, 0, 2, 0, 0, 0, 0, 0, 0, 0}, got)
	for g := 5; g <= 10; g++ {
		assert.Zero(t, got.At(g))
	}
}

func TestBinFloorsMasses(t *testing.T) {
	b, err := NewBinner(5)
	require.NoError(t, err)

	got, err := b.Bin(points(2.4, 7, 4.9, 3))
	require.NoError(t, err)
	assert.Equal(t, DenseSpectrum{0, 7, 0, 3, 0}, got)
}

func TestBinErrors(t *testing.T) {
	b, err := NewBinner(10)
	require.NoError(t, err)

	tests := []struct {
		name    string
		points  []core.Point
		wantErr error
		index   int
	}{
		{"duplicate mass", points(3, 1, 3, 2), ErrUnordered, 1},
		{"descending mass", points(5, 1, 4, 2), ErrUnordered, 1},
		{"fractional collision", points(3.2, 1, 3.7, 2), ErrUnordered, 1},
		{"past grid", points(4, 1, 11, 2), ErrGridOverflow, 1},
		{"zero mass", points(0, 1), ErrInvalidPoint, 0},
		{"negative intensity", points(2, -1), ErrInvalidPoint, 0},
		{"NaN mass", points(math.NaN(), 1), ErrInvalidPoint, 0},
		{"infinite intensity", points(1, 1, 2, math.Inf(1)), ErrInvalidPoint, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Bin(tt.points)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, tt.wantErr)

			var binErr *BinningError
			require.ErrorAs(t, err, &binErr)
			assert.Equal(t, tt.index, binErr.Index)
		})
	}
}

func TestBinDropOverflow(t *testing.T) {
	b, err := NewBinner(5, WithDropOverflow(true))
	require.NoError(t, err)

	got, err := b.Bin(points(2, 10, 5, 20, 6, 30, 44, 40))
	require.NoError(t, err)
	assert.Equal(t, DenseSpectrum{0, 10, 0, 0, 20}, got)
}

func TestBinDoesNotMutateInput(t *testing.T) {
	b, err := NewBinner(5)
	require.NoError(t, err)

	in := points(1, 1, 3, 3)
	orig := append([]core.Point(nil), in...)
	_, err = b.Bin(in)
	require.NoError(t, err)
	assert.Equal(t, orig, in)
}

func TestZero(t *testing.T) {
	b, err := NewBinner(7)
	require.NoError(t, err)

	z := b.Zero()
	assert.Len(t, z, 7)
	for _, v := range z {
		assert.Zero(t, v)
	}

	// Each call is a fresh slice.
	z[0] = 1
	assert.Zero(t, b.Zero()[0])
}

func TestNewBinnerRejectsBadWidth(t *testing.T) {
	_, err := NewBinner(0)
	assert.Error(t, err)
}
