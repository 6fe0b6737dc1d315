// Package table writes binned spectra and molecule metadata as delimited text tables
package table

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
	"github.com/ChrisMcGann/jdxconv/pkg/grid"
)

// Header row labels, in the order they are written.
const (
	CommentLabel             = "#CommentsLine:"
	MoleculesLabel           = "Molecules"
	ElectronNumbersLabel     = "Electron Numbers"
	IonizationTypesLabel     = "knownMoleculesIonizationTypes"
	IonizationFactorsLabel   = "knownIonizationFactorsRelativeToN2"
	FragmentationSourceLabel = "SourceOfFragmentationPatterns"
	IonizationSourceLabel    = "SourceOfIonizationData"
	MolecularMassLabel       = "Molecular Mass"
)

// HeaderRows is the number of rows written before the data section.
const HeaderRows = 8

// Options controls how a table is written.
type Options struct {
	Delimiter rune // defaults to ';'
	Raw       bool // write intensities unmodified instead of truncating to integers
}

func (o Options) delimiter() string {
	if o.Delimiter == 0 {
		return ";"
	}
	return string(o.Delimiter)
}

// WriteError is returned when the destination cannot be created or written.
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Export writes the table to path, creating its parent directory if needed. The file
// is closed on every return path; a partially written file is left in place on error.
func Export(path string, m *grid.Matrix, records []core.MoleculeRecord, opts Options) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &WriteError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return &WriteError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &WriteError{Op: "close", Path: path, Err: cerr}
		}
	}()

	if err := Write(f, m, records, opts); err != nil {
		return &WriteError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Write writes the metadata header rows followed by one row per integer mass at which
// at least one molecule has a nonzero intensity. Records and matrix columns are matched
// by position and must have the same count.
func Write(w io.Writer, m *grid.Matrix, records []core.MoleculeRecord, opts Options) error {
	n := m.Len()
	if len(records) != n {
		return fmt.Errorf("%d molecule records for %d matrix columns", len(records), n)
	}

	bw := bufio.NewWriter(w)
	d := opts.delimiter()

	bw.WriteString(CommentLabel)
	for range n {
		bw.WriteString(d)
	}
	bw.WriteString("\n")

	writeRow(bw, d, MoleculesLabel, records, func(r core.MoleculeRecord) string {
		return r.Name
	})
	writeRow(bw, d, ElectronNumbersLabel, records, func(r core.MoleculeRecord) string {
		if !r.ElectronCount.Valid {
			return core.UnknownLabel
		}
		return FormatFloat(float64(r.ElectronCount.Value))
	})
	writeRow(bw, d, IonizationTypesLabel, records, func(r core.MoleculeRecord) string {
		return r.IonizationType.String()
	})
	writeRow(bw, d, IonizationFactorsLabel, records, func(r core.MoleculeRecord) string {
		return r.IonizationFactor.String()
	})
	writeRow(bw, d, FragmentationSourceLabel, records, func(r core.MoleculeRecord) string {
		return r.FragmentationSource.String()
	})
	writeRow(bw, d, IonizationSourceLabel, records, func(r core.MoleculeRecord) string {
		return r.IonizationDataSource.String()
	})
	writeRow(bw, d, MolecularMassLabel, records, func(r core.MoleculeRecord) string {
		if !r.MolecularWeight.Valid {
			return core.UnknownLabel
		}
		return FormatFloat(r.MolecularWeight.Value)
	})

	for g := 1; g <= m.Width(); g++ {
		if m.RowIsZero(g) {
			continue
		}
		bw.WriteString(strconv.Itoa(g))
		for k := 0; k < n; k++ {
			bw.WriteString(d)
			bw.WriteString(formatValue(m.At(k, g), opts.Raw))
		}
		bw.WriteString("\n")
	}

	return bw.Flush()
}

func writeRow(bw *bufio.Writer, d, label string, records []core.MoleculeRecord, field func(core.MoleculeRecord) string) {
	bw.WriteString(label)
	for _, r := range records {
		bw.WriteString(d)
		bw.WriteString(field(r))
	}
	bw.WriteString("\n")
}

func formatValue(v float64, raw bool) string {
	if raw {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	t := math.Trunc(v)
	if t == 0 {
		return "0"
	}
	return strconv.FormatFloat(t, 'f', 0, 64)
}

// FormatFloat renders v the way downstream MSRESOLVE tooling expects metadata numbers:
// shortest round-trip digits, always with a decimal point ("18.0", "32.042").
func FormatFloat(v float64) string {
	abs := math.Abs(v)
	if abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for _, c := range s {
		if c == '.' {
			return s
		}
	}
	return s + ".0"
}
