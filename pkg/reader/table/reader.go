// Package table reads converted spectra tables back into molecule records and a matrix
package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
	"github.com/ChrisMcGann/jdxconv/pkg/grid"
	writer "github.com/ChrisMcGann/jdxconv/pkg/writer/table"
)

// Table is a parsed converted spectra table.
type Table struct {
	Records   []core.MoleculeRecord
	Matrix    *grid.Matrix
	Masses    []int // masses that had a data row, ascending
	Delimiter rune
}

// ReadFile parses the table at path. width <= 0 sizes the grid to the largest mass row.
func ReadFile(path string, width int) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer f.Close()

	t, err := Parse(f, width)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse reads a table written by the table writer. UTF-8 and BOM-marked UTF-16 input
// are accepted; the delimiter is taken from the comment row.
func Parse(r io.Reader, width int) (*Table, error) {
	scanner := bufio.NewScanner(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	t := &Table{}
	var (
		lineNum int
		values  [][]float64 // per data row, one value per molecule
	)

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNum == 1 {
			d, err := detectDelimiter(line)
			if err != nil {
				return nil, fmt.Errorf("line 1: %w", err)
			}
			t.Delimiter = d
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cells := strings.Split(line, string(t.Delimiter))
		label, cells := cells[0], cells[1:]

		if label == writer.MoleculesLabel {
			t.Records = make([]core.MoleculeRecord, len(cells))
			for k, name := range cells {
				t.Records[k].Name = name
			}
			continue
		}
		if t.Records == nil {
			return nil, fmt.Errorf("line %d: %q row before %q row", lineNum, label, writer.MoleculesLabel)
		}
		if len(cells) != len(t.Records) {
			return nil, fmt.Errorf("line %d: %d cells, want %d", lineNum, len(cells), len(t.Records))
		}

		mass, err := strconv.Atoi(label)
		if err != nil {
			if err := t.applyHeader(label, cells); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			continue
		}

		if mass < 1 || (len(t.Masses) > 0 && mass <= t.Masses[len(t.Masses)-1]) {
			return nil, fmt.Errorf("line %d: mass %d out of order", lineNum, mass)
		}
		row := make([]float64, len(cells))
		for k, cell := range cells {
			if row[k], err = strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
				return nil, fmt.Errorf("line %d: invalid value %q: %w", lineNum, cell, err)
			}
		}
		t.Masses = append(t.Masses, mass)
		values = append(values, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	if lineNum == 0 {
		return nil, fmt.Errorf("empty table")
	}
	if t.Records == nil {
		return nil, fmt.Errorf("missing %q row", writer.MoleculesLabel)
	}

	if width <= 0 {
		width = 1
		if len(t.Masses) > 0 {
			width = t.Masses[len(t.Masses)-1]
		}
	}
	if len(t.Masses) > 0 && t.Masses[len(t.Masses)-1] > width {
		return nil, fmt.Errorf("mass %d exceeds grid width %d", t.Masses[len(t.Masses)-1], width)
	}

	t.Matrix = grid.NewMatrix(width)
	for k := range t.Records {
		s := make(grid.DenseSpectrum, width)
		for i, mass := range t.Masses {
			s[mass-1] = values[i][k]
		}
		if err := t.Matrix.Append(s); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func detectDelimiter(line string) (rune, error) {
	rest, ok := strings.CutPrefix(line, writer.CommentLabel)
	if !ok {
		return 0, fmt.Errorf("missing %q row", writer.CommentLabel)
	}
	if rest == "" {
		// A table with no molecules; the delimiter cannot matter.
		return ';', nil
	}
	return []rune(rest)[0], nil
}

func (t *Table) applyHeader(label string, cells []string) error {
	for k, cell := range cells {
		rec := &t.Records[k]
		var err error
		switch label {
		case writer.ElectronNumbersLabel:
			rec.ElectronCount, err = core.ParseKnownInt(cell)
		case writer.MolecularMassLabel:
			rec.MolecularWeight, err = core.ParseKnownFloat(cell)
		case writer.IonizationTypesLabel:
			rec.IonizationType = core.ParseKnownString(cell)
		case writer.IonizationFactorsLabel:
			rec.IonizationFactor = core.ParseKnownString(cell)
		case writer.FragmentationSourceLabel:
			rec.FragmentationSource = core.ParseKnownString(cell)
		case writer.IonizationSourceLabel:
			rec.IonizationDataSource = core.ParseKnownString(cell)
		default:
			return fmt.Errorf("unknown row label %q", label)
		}
		if err != nil {
			return fmt.Errorf("%s for %s: %w", label, rec.Name, err)
		}
	}
	return nil
}
