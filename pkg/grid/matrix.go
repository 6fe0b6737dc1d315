package grid

// Matrix stores binned spectra back to back in one flat buffer. Molecule k occupies
// values [k*Width, (k+1)*Width).
type Matrix struct {
	width int
	data  []float64
}

// NewMatrix creates an empty matrix whose spectra have the given width.
func NewMatrix(width int) *Matrix {
	return &Matrix{width: width}
}

// Append adds a spectrum for the next molecule. The spectrum must have exactly Width
// values; on mismatch the matrix is left unchanged.
func (m *Matrix) Append(s DenseSpectrum) error {
	if len(s) != m.width {
		return &PreconditionError{Want: m.width, Got: len(s)}
	}
	m.data = append(m.data, s...)
	return nil
}

// Width returns the number of grid rows per molecule.
func (m *Matrix) Width() int {
	return m.width
}

// Len returns the number of molecules appended so far.
func (m *Matrix) Len() int {
	if m.width == 0 {
		return 0
	}
	return len(m.data) / m.width
}

// At returns molecule k's intensity at integer mass g (1-based).
func (m *Matrix) At(k, g int) float64 {
	return m.data[k*m.width+g-1]
}

// Spectrum returns a copy of molecule k's spectrum.
func (m *Matrix) Spectrum(k int) DenseSpectrum {
	out := make(DenseSpectrum, m.width)
	copy(out, m.data[k*m.width:(k+1)*m.width])
	return out
}

// Values returns a copy of the flat buffer.
func (m *Matrix) Values() []float64 {
	out := make([]float64, len(m.data))
	copy(out, m.data)
	return out
}

// RowIsZero reports whether every molecule is zero at integer mass g.
func (m *Matrix) RowIsZero(g int) bool {
	for k := 0; k < m.Len(); k++ {
		if m.At(k, g) != 0 {
			return false
		}
	}
	return true
}
