// Package moldb loads the molecule metadata database (MoleculesInfo) that supplies
// electron counts, weights and ionization data for each molecule.
package moldb

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
)

// Column positions in a database row.
const (
	colName = iota
	colElectrons
	colWeight
	colSpectrumFile
	colIonizationType
	colIonizationFactor
	colFragmentationSource
	colIonizationSource
	numColumns
)

// Entry is one database row.
type Entry struct {
	Record core.MoleculeRecord
	// SpectrumFile is the raw spectrum file name relative to the JDX directory, or "".
	SpectrumFile string
}

// DB is an in-memory molecule database. A nil *DB behaves as an empty database.
type DB struct {
	path    string
	entries []Entry
	index   map[string]int
}

// Encoding describes how a database file is stored on disk.
type Encoding struct {
	Delimiter rune
	UTF16     bool
}

// EncodingFor picks the encoding from the file extension: .csv is ';'-delimited UTF-8,
// .txt and .tab are tab-delimited UTF-16.
func EncodingFor(path string) (Encoding, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return Encoding{Delimiter: ';'}, nil
	case ".txt", ".tab":
		return Encoding{Delimiter: '\t', UTF16: true}, nil
	}
	return Encoding{}, fmt.Errorf("unsupported database file type %q", filepath.Ext(path))
}

// Load reads the database at path.
func Load(path string) (*DB, error) {
	enc, err := EncodingFor(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open molecule database: %w", err)
	}
	defer f.Close()

	db, err := Parse(f, enc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	db.path = path
	return db, nil
}

// Parse reads a database from r. The first row is a header and is skipped.
func Parse(r io.Reader, enc Encoding) (*DB, error) {
	if enc.UTF16 {
		// BOM decides the byte order; little endian without one.
		r = transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
	}

	cr := csv.NewReader(r)
	cr.Comma = enc.Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	db := &DB{index: make(map[string]int)}
	header := true
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read molecule database: %w", err)
		}
		if header {
			header = false
			continue
		}

		line, _ := cr.FieldPos(0)
		entry, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if entry.Record.Name == "" {
			continue
		}
		// First occurrence wins, as with a top-down search.
		if _, dup := db.index[entry.Record.Name]; !dup {
			db.index[entry.Record.Name] = len(db.entries)
		}
		db.entries = append(db.entries, entry)
	}
	return db, nil
}

func parseRow(row []string) (Entry, error) {
	for len(row) < numColumns {
		row = append(row, "")
	}

	rec := core.MoleculeRecord{
		Name:                 strings.TrimSpace(strings.TrimPrefix(row[colName], "\ufeff")),
		IonizationType:       core.ParseKnownString(row[colIonizationType]),
		IonizationFactor:     core.ParseKnownString(row[colIonizationFactor]),
		FragmentationSource:  core.ParseKnownString(row[colFragmentationSource]),
		IonizationDataSource: core.ParseKnownString(row[colIonizationSource]),
	}

	var err error
	if rec.ElectronCount, err = core.ParseKnownInt(row[colElectrons]); err != nil {
		return Entry{}, fmt.Errorf("%s: electron number: %w", rec.Name, err)
	}
	if rec.MolecularWeight, err = core.ParseKnownFloat(row[colWeight]); err != nil {
		return Entry{}, fmt.Errorf("%s: molecular weight: %w", rec.Name, err)
	}

	entry := Entry{Record: rec}
	if !core.IsUnknownCell(row[colSpectrumFile]) {
		entry.SpectrumFile = strings.TrimSpace(row[colSpectrumFile])
	}
	return entry, nil
}

// Path returns the file the database was loaded from.
func (db *DB) Path() string {
	if db == nil {
		return ""
	}
	return db.path
}

// Len returns the number of rows.
func (db *DB) Len() int {
	if db == nil {
		return 0
	}
	return len(db.entries)
}

// Lookup returns the entry whose name matches exactly.
func (db *DB) Lookup(name string) (Entry, bool) {
	if db == nil {
		return Entry{}, false
	}
	i, ok := db.index[name]
	if !ok {
		return Entry{}, false
	}
	return db.entries[i], true
}

// Names returns every molecule name in file order.
func (db *DB) Names() []string {
	if db == nil {
		return nil
	}
	names := make([]string, len(db.entries))
	for i, e := range db.entries {
		names[i] = e.Record.Name
	}
	return names
}
