package table

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
	"github.com/ChrisMcGann/jdxconv/pkg/grid"
)

const lockFileName = ".jdxconv.lock"

// Format names one output variant of a conversion run.
type Format struct {
	BaseName  string // file name stem, e.g. "ConvertedSpectra"
	Ext       string // extension including the dot, e.g. ".csv"
	Delimiter rune
}

// Default output stems and delimiters.
const (
	DefaultBaseName       = "ConvertedSpectra"
	DefaultTableBaseName  = "ConvertedSpectraTable"
	DefaultCSVDelimiter   = ';'
	DefaultTableDelimiter = '\t'
)

// Formats returns the three variants of a run: base.csv, and tableBase.txt and
// tableBase.tab sharing one delimiter. Empty names and zero delimiters keep the defaults.
func Formats(base, tableBase string, csvDelim, tableDelim rune) []Format {
	if base == "" {
		base = DefaultBaseName
	}
	if tableBase == "" {
		tableBase = DefaultTableBaseName
	}
	if csvDelim == 0 {
		csvDelim = DefaultCSVDelimiter
	}
	if tableDelim == 0 {
		tableDelim = DefaultTableDelimiter
	}
	return []Format{
		{BaseName: base, Ext: ".csv", Delimiter: csvDelim},
		{BaseName: tableBase, Ext: ".txt", Delimiter: tableDelim},
		{BaseName: tableBase, Ext: ".tab", Delimiter: tableDelim},
	}
}

// NextFileName returns base+N+ext where N is one more than the largest numeric suffix
// already used by a file named base<digits> in dir. The directory is created if missing.
func NextFileName(dir, base, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &WriteError{Op: "mkdir", Path: dir, Err: err}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("list output directory: %w", err)
	}

	highest := 0
	for _, entry := range entries {
		stem, _, _ := strings.Cut(entry.Name(), ".")
		suffix, ok := strings.CutPrefix(stem, base)
		if !ok || !allDigits(suffix) {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}

	return fmt.Sprintf("%s%d%s", base, highest+1, ext), nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ExportSet writes one table per format into dir, each under the next free file name.
// The directory is locked for the duration so concurrent runs cannot claim the same name.
// It returns the written paths in format order.
func ExportSet(dir string, formats []Format, m *grid.Matrix, records []core.MoleculeRecord, raw bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &WriteError{Op: "mkdir", Path: dir, Err: err}
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("lock output directory: %w", err)
	}
	defer lock.Unlock() //nolint:errcheck

	// Names are picked before anything is written so variants sharing a stem
	// (".txt" and ".tab") get the same number.
	paths := make([]string, len(formats))
	for i, f := range formats {
		name, err := NextFileName(dir, f.BaseName, f.Ext)
		if err != nil {
			return nil, err
		}
		paths[i] = filepath.Join(dir, name)
	}

	for i, f := range formats {
		if err := Export(paths[i], m, records, Options{Delimiter: f.Delimiter, Raw: raw}); err != nil {
			return paths[:i], err
		}
	}
	return paths, nil
}
