// Package msp provides streaming readers for NIST MSP format spectral libraries
package msp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
)

// Reader provides streaming access to MSP format files
type Reader struct {
	scanner     *bufio.Scanner
	lineNum     int
	sourceFile  string
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new MSP reader
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
	}
}

// Next advances to the next spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.currentSpec = nil

	spec, err := r.readSpectrum()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentSpec = spec
	return true
}

// Spectrum returns the current spectrum
func (r *Reader) Spectrum() *core.Spectrum {
	return r.currentSpec
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadFile returns the first entry of an MSP file.
func ReadFile(path string) (*core.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MSP file: %w", err)
	}
	defer f.Close()

	reader := NewReader(f)
	reader.sourceFile = filepath.Base(path)
	if !reader.Next() {
		if err := reader.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, fmt.Errorf("%s: no spectrum entry found", path)
	}
	return reader.Spectrum(), nil
}

// readSpectrum reads a single spectrum entry from the MSP file
func (r *Reader) readSpectrum() (*core.Spectrum, error) {
	spec := &core.Spectrum{
		SourceFormat: "msp",
		SourceFile:   r.sourceFile,
		Points:       []core.Point{},
	}

	var numPeaks int
	inPeaks := false

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		// Skip empty lines between entries
		if line == "" {
			if spec.Title == "" {
				continue
			}
			if inPeaks {
				break
			}
			continue
		}

		if !inPeaks {
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			value = strings.TrimSpace(value)

			switch strings.ToLower(strings.TrimSpace(key)) {
			case "name":
				spec.Title = value
			case "formula":
				spec.Formula = value
			case "mw":
				mw, err := core.ParseKnownFloat(value)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid MW: %w", r.lineNum, err)
				}
				spec.MolecularWeight = mw
			case "cas#", "casno":
				// "CAS#: 67-56-1; NIST#: 228829"
				cas, _, _ := strings.Cut(value, ";")
				spec.CASNumber = strings.TrimSpace(cas)
			case "comments", "comment":
				spec.Origin = value
			case "num peaks":
				n, err := strconv.Atoi(value)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid num peaks: %w", r.lineNum, err)
				}
				numPeaks = n
				inPeaks = true
			}
		} else {
			peaks, err := r.parsePeaks(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			spec.Points = append(spec.Points, peaks...)

			// Check if we've read all peaks
			if len(spec.Points) >= numPeaks {
				break
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if spec.Title == "" {
		return nil, io.EOF
	}
	if len(spec.Points) != numPeaks {
		return nil, fmt.Errorf("line %d: entry %q declares %d peaks, read %d", r.lineNum, spec.Title, numPeaks, len(spec.Points))
	}

	return spec, nil
}

// parsePeaks parses a peak line; pairs are "mz intensity" separated by ';' or one per line
func (r *Reader) parsePeaks(line string) ([]core.Point, error) {
	var points []core.Point
	for _, pair := range strings.Split(line, ";") {
		fields := strings.Fields(pair)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("invalid peak format %q, expected 'mz intensity'", pair)
		}

		mz, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid m/z value: %w", err)
		}

		intensity, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid intensity value: %w", err)
		}

		points = append(points, core.Point{Mass: mz, Intensity: intensity})
	}
	return points, nil
}
