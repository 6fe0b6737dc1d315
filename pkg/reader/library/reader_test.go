package library

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
)

const fixtureSchema = `
CREATE TABLE CompoundTable (
	CompoundId INTEGER PRIMARY KEY,
	Formula TEXT,
	Name TEXT,
	CASId TEXT
);
CREATE TABLE SpectrumTable (
	SpectrumId INTEGER PRIMARY KEY,
	CompoundId INTEGER REFERENCES CompoundTable(CompoundId),
	NeutralMass DOUBLE,
	blobMass BLOB,
	blobIntensity BLOB
);
`

func encodeFloat64s(values ...float64) []byte {
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// newFixture writes a two-compound library and returns its path.
func newFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(fixtureSchema)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO CompoundTable VALUES (1, 'CH4O', 'Methanol', '67-56-1'), (2, 'H2O', 'Water', NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO SpectrumTable VALUES (?, ?, ?, ?, ?)`,
		1, 1, 32.042, encodeFloat64s(31, 15, 29), encodeFloat64s(9999, 528, 6473))
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO SpectrumTable VALUES (?, ?, ?, ?, ?)`,
		2, 2, nil, encodeFloat64s(17, 18), encodeFloat64s(212, 999))
	require.NoError(t, err)

	return path
}

func TestLookup(t *testing.T) {
	lib, err := Open(newFixture(t))
	require.NoError(t, err)
	defer lib.Close()

	spec, err := lib.Lookup(context.Background(), "METHANOL")
	require.NoError(t, err)

	assert.Equal(t, "Methanol", spec.Title)
	assert.Equal(t, "CH4O", spec.Formula)
	assert.Equal(t, "67-56-1", spec.CASNumber)
	assert.Equal(t, "library", spec.SourceFormat)
	assert.Equal(t, core.Some(32.042), spec.MolecularWeight)
	assert.Equal(t, []core.Point{
		{Mass: 15, Intensity: 528},
		{Mass: 29, Intensity: 6473},
		{Mass: 31, Intensity: 9999},
	}, spec.Points)

	water, err := lib.Lookup(context.Background(), "water")
	require.NoError(t, err)
	assert.False(t, water.MolecularWeight.Valid)
	assert.Empty(t, water.CASNumber)
}

func TestLookupNotFound(t *testing.T) {
	lib, err := Open(newFixture(t))
	require.NoError(t, err)
	defer lib.Close()

	_, err = lib.Lookup(context.Background(), "Argon")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNames(t *testing.T) {
	lib, err := Open(newFixture(t))
	require.NoError(t, err)
	defer lib.Close()

	names, err := lib.Names(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Methanol", "Water"}, names)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.db"))
	assert.Error(t, err)
}

func TestDecodeFloat64s(t *testing.T) {
	values, err := decodeFloat64s(encodeFloat64s(1.5, 2.25))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.25}, values)

	_, err = decodeFloat64s([]byte{1, 2, 3})
	assert.Error(t, err)
}
