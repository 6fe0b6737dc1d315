// Package library reads spectra from SQLite spectral libraries that use the
// CompoundTable/SpectrumTable layout (mzVault style).
package library

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when no compound matches the requested name.
var ErrNotFound = errors.New("compound not found in library")

// Library is a read-only handle on a SQLite spectral library.
type Library struct {
	db   *sql.DB
	path string
}

// Open opens the library at path read-only.
func Open(path string) (*Library, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open library %s: %w", path, err)
	}
	return &Library{db: db, path: path}, nil
}

// Path returns the file the library was opened from.
func (l *Library) Path() string {
	return l.path
}

// Lookup returns the first spectrum stored for the compound named name (case-insensitive).
func (l *Library) Lookup(ctx context.Context, name string) (*core.Spectrum, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT c.Name, COALESCE(c.Formula, ''), COALESCE(c.CASId, ''),
			s.NeutralMass, s.blobMass, s.blobIntensity
		FROM CompoundTable c
		JOIN SpectrumTable s ON s.CompoundId = c.CompoundId
		WHERE c.Name = ? COLLATE NOCASE
		ORDER BY s.SpectrumId
		LIMIT 1
	`, name)

	var (
		title, formula, cas string
		neutralMass         sql.NullFloat64
		massBlob, intBlob   []byte
	)
	if err := row.Scan(&title, &formula, &cas, &neutralMass, &massBlob, &intBlob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query library: %w", err)
	}

	masses, err := decodeFloat64s(massBlob)
	if err != nil {
		return nil, fmt.Errorf("%q blobMass: %w", name, err)
	}
	intensities, err := decodeFloat64s(intBlob)
	if err != nil {
		return nil, fmt.Errorf("%q blobIntensity: %w", name, err)
	}
	if len(masses) != len(intensities) {
		return nil, fmt.Errorf("%q: %d masses but %d intensities", name, len(masses), len(intensities))
	}

	spec := &core.Spectrum{
		Title:        title,
		Formula:      formula,
		CASNumber:    cas,
		SourceFile:   l.path,
		SourceFormat: "library",
		Points:       make([]core.Point, len(masses)),
	}
	if neutralMass.Valid && neutralMass.Float64 > 0 {
		spec.MolecularWeight = core.Some(neutralMass.Float64)
	}
	for i := range masses {
		spec.Points[i] = core.Point{Mass: masses[i], Intensity: intensities[i]}
	}

	// Ensure points are sorted
	if !spec.ArePointsSorted() {
		spec.SortPoints()
	}
	return spec, nil
}

// Names lists every compound name in the library.
func (l *Library) Names(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT Name FROM CompoundTable ORDER BY CompoundId`)
	if err != nil {
		return nil, fmt.Errorf("failed to list compounds: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan compound: %w", err)
		}
		if name.Valid && name.String != "" {
			names = append(names, name.String)
		}
	}
	return names, rows.Err()
}

// Close closes the database connection
func (l *Library) Close() error {
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("failed to close library: %w", err)
	}
	return nil
}

// decodeFloat64s decodes a little-endian float64 blob
func decodeFloat64s(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(blob))
	}
	values := make([]float64, len(blob)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return values, nil
}
