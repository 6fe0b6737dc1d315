// Package jcamp provides streaming readers for JCAMP-DX mass spectrum files
package jcamp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
)

// ParseError reports malformed input with the line it was found on.
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

type tableKind int

const (
	tableNone tableKind = iota
	tableXYPairs
	tableXYRows
)

var commaSpace = regexp.MustCompile(`\s*,\s*`)

// Reader provides streaming access to JCAMP-DX blocks. Each ##TITLE ... ##END= block
// yields one spectrum.
type Reader struct {
	scanner     *bufio.Scanner
	lineNum     int
	sourceFile  string
	currentSpec *core.Spectrum
	err         error
}

// NewReader creates a new JCAMP-DX reader
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: scanner}
}

// Next advances to the next spectrum. Returns false when no more spectra or error.
func (r *Reader) Next() bool {
	r.currentSpec = nil

	spec, err := r.readBlock()
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

// Parse reads the first spectrum block from r.
func Parse(r io.Reader) (*core.Spectrum, error) {
	reader := NewReader(r)
	if !reader.Next() {
		if err := reader.Err(); err != nil {
			return nil, err
		}
		return nil, &ParseError{Line: reader.lineNum, Msg: "no spectrum block found"}
	}
	return reader.Spectrum(), nil
}

// ReadFile parses the first spectrum block of a JCAMP-DX file.
func ReadFile(path string) (*core.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open JCAMP-DX file: %w", err)
	}
	defer f.Close()

	reader := NewReader(f)
	reader.sourceFile = filepath.Base(path)
	if !reader.Next() {
		if err := reader.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, fmt.Errorf("%s: %w", path, &ParseError{Line: reader.lineNum, Msg: "no spectrum block found"})
	}
	return reader.Spectrum(), nil
}

// block accumulates labelled data records until ##END=.
type block struct {
	spec     *core.Spectrum
	started  bool
	isLink   bool
	table    tableKind
	xFactor  float64
	yFactor  float64
	firstX   *float64
	lastX    *float64
	nPoints  int
	rowCount int // values consumed in an (X++(Y..Y)) table
}

// readBlock reads a single spectrum block from the file
func (r *Reader) readBlock() (*core.Spectrum, error) {
	b := r.newBlock()

	for r.scanner.Scan() {
		r.lineNum++
		line := stripComment(r.scanner.Text())
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !strings.HasPrefix(strings.TrimSpace(line), "##") {
			if !b.started {
				continue
			}
			if err := r.parseData(b, line); err != nil {
				return nil, err
			}
			continue
		}

		label, value := splitLabel(strings.TrimSpace(line))
		if label == "TITLE" && b.started {
			if !b.isLink {
				return nil, &ParseError{Line: r.lineNum, Msg: "##TITLE before ##END= of previous block"}
			}
			// First child of a link block.
			b = r.newBlock()
		}
		if label == "END" {
			if !b.started {
				continue
			}
			if b.isLink {
				// Link blocks only group child blocks; read on.
				b = r.newBlock()
				continue
			}
			if err := r.finish(b); err != nil {
				return nil, err
			}
			return b.spec, nil
		}

		if err := r.parseLabel(b, label, value); err != nil {
			return nil, err
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if b.started && len(b.spec.Points) > 0 {
		// Tolerate a missing trailing ##END=.
		if err := r.finish(b); err != nil {
			return nil, err
		}
		return b.spec, nil
	}

	return nil, io.EOF
}

func (r *Reader) newBlock() *block {
	return &block{
		spec: &core.Spectrum{
			SourceFormat: "jdx",
			SourceFile:   r.sourceFile,
			Points:       []core.Point{},
		},
		xFactor: 1,
		yFactor: 1,
	}
}

// parseLabel applies one ##LABEL=value record
func (r *Reader) parseLabel(b *block, label, value string) error {
	value = strings.TrimSpace(value)
	b.table = tableNone

	switch label {
	case "TITLE":
		b.started = true
		b.spec.Title = value
	case "BLOCKS":
		b.isLink = true
	case "DATATYPE":
		if v := strings.ToUpper(value); v == "LINK" {
			b.isLink = true
		}
	case "ORIGIN":
		b.spec.Origin = value
	case "CASREGISTRYNO", "CASRN":
		b.spec.CASNumber = value
	case "MOLFORM":
		b.spec.Formula = value
	case "MW":
		mw, err := core.ParseKnownFloat(value)
		if err != nil {
			return &ParseError{Line: r.lineNum, Msg: "invalid ##MW", Err: err}
		}
		b.spec.MolecularWeight = mw
	case "XFACTOR":
		return r.parseFloat(value, "##XFACTOR", &b.xFactor)
	case "YFACTOR":
		return r.parseFloat(value, "##YFACTOR", &b.yFactor)
	case "FIRSTX":
		b.firstX = new(float64)
		return r.parseFloat(value, "##FIRSTX", b.firstX)
	case "LASTX":
		b.lastX = new(float64)
		return r.parseFloat(value, "##LASTX", b.lastX)
	case "NPOINTS":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &ParseError{Line: r.lineNum, Msg: "invalid ##NPOINTS", Err: err}
		}
		b.nPoints = n
	case "PEAKTABLE", "XYDATA", "XYPOINTS":
		form := strings.ToUpper(strings.ReplaceAll(value, " ", ""))
		switch {
		case strings.Contains(form, "XY..XY"):
			b.table = tableXYPairs
		case strings.Contains(form, "X++(Y..Y)"):
			b.table = tableXYRows
		default:
			return &ParseError{Line: r.lineNum, Msg: fmt.Sprintf("unsupported data table form %q", value)}
		}
	}

	return nil
}

func (r *Reader) parseFloat(value, label string, dst *float64) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return &ParseError{Line: r.lineNum, Msg: "invalid " + label, Err: err}
	}
	*dst = v
	return nil
}

// parseData parses a line that belongs to the current data table
func (r *Reader) parseData(b *block, line string) error {
	switch b.table {
	case tableXYPairs:
		return r.parsePairs(b, line)
	case tableXYRows:
		return r.parseRow(b, line)
	}
	// Continuation of a free-text record such as ##OWNER.
	return nil
}

// parsePairs parses "x,y x,y ..." or "x,y; x,y" peak table lines
func (r *Reader) parsePairs(b *block, line string) error {
	line = commaSpace.ReplaceAllString(strings.ReplaceAll(line, ";", " "), ",")
	for _, field := range strings.Fields(line) {
		xs, ys, ok := strings.Cut(field, ",")
		if !ok {
			return &ParseError{Line: r.lineNum, Msg: fmt.Sprintf("invalid x,y pair %q", field)}
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return &ParseError{Line: r.lineNum, Msg: "invalid x value", Err: err}
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return &ParseError{Line: r.lineNum, Msg: "invalid y value", Err: err}
		}
		b.spec.Points = append(b.spec.Points, core.Point{
			Mass:      x * b.xFactor,
			Intensity: y * b.yFactor,
		})
	}
	return nil
}

// parseRow parses an AFFN "(X++(Y..Y))" row: an abscissa followed by ordinates at
// evenly spaced x values.
func (r *Reader) parseRow(b *block, line string) error {
	if b.firstX == nil || b.lastX == nil || b.nPoints < 2 {
		return &ParseError{Line: r.lineNum, Msg: "(X++(Y..Y)) table requires ##FIRSTX, ##LASTX and ##NPOINTS"}
	}
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) < 2 {
		return &ParseError{Line: r.lineNum, Msg: "data row needs an x value and at least one y value"}
	}

	step := (*b.lastX - *b.firstX) / float64(b.nPoints-1)
	for _, ys := range fields[1:] {
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return &ParseError{Line: r.lineNum, Msg: "invalid y value", Err: err}
		}
		b.spec.Points = append(b.spec.Points, core.Point{
			Mass:      *b.firstX + float64(b.rowCount)*step,
			Intensity: y * b.yFactor,
		})
		b.rowCount++
	}
	return nil
}

func (r *Reader) finish(b *block) error {
	if b.nPoints > 0 && len(b.spec.Points) != b.nPoints {
		return &ParseError{
			Line: r.lineNum,
			Msg:  fmt.Sprintf("##NPOINTS=%d but %d points read", b.nPoints, len(b.spec.Points)),
		}
	}
	return nil
}

// splitLabel splits "##LABEL=value" and normalizes the label the way JCAMP-DX compares
// them: case-insensitive, ignoring spaces, dashes, slashes and underscores.
func splitLabel(line string) (string, string) {
	raw, value, _ := strings.Cut(strings.TrimPrefix(line, "##"), "=")
	label := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '/', '_', '\t':
			return -1
		}
		return r
	}, strings.ToUpper(raw))
	return label, value
}

func stripComment(line string) string {
	if idx := strings.Index(line, "$$"); idx >= 0 {
		return line[:idx]
	}
	return line
}
