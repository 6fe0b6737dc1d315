package moldb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
)

func TestLoadCSV(t *testing.T) {
	db, err := Load("testdata/MoleculesInfo.csv")
	require.NoError(t, err)

	assert.Equal(t, 3, db.Len())
	assert.Equal(t, []string{"Methanol", "Water", "Ethane"}, db.Names())

	methanol, ok := db.Lookup("Methanol")
	require.True(t, ok)
	assert.Equal(t, "methanol.jdx", methanol.SpectrumFile)
	assert.Equal(t, core.MoleculeRecord{
		Name:                 "Methanol",
		ElectronCount:        core.Some(18),
		MolecularWeight:      core.Some(32.042),
		IonizationType:       core.Some("EI"),
		IonizationFactor:     core.Some("1.9"),
		FragmentationSource:  core.Some("NIST Webbook"),
		IonizationDataSource: core.Some("Hudson 2003"),
	}, methanol.Record)

	water, ok := db.Lookup("Water")
	require.True(t, ok)
	assert.Equal(t, core.Some(10), water.Record.ElectronCount)
	assert.Empty(t, water.SpectrumFile)
	assert.False(t, water.Record.IonizationType.Valid)

	// Short rows are padded with unknown cells.
	ethane, ok := db.Lookup("Ethane")
	require.True(t, ok)
	assert.Equal(t, core.UnknownRecord("Ethane"), ethane.Record)
	assert.Equal(t, "ethane.msp", ethane.SpectrumFile)
}

func TestLookupIsExact(t *testing.T) {
	db, err := Load("testdata/MoleculesInfo.csv")
	require.NoError(t, err)

	_, ok := db.Lookup("methanol")
	assert.False(t, ok)
}

func TestLoadUTF16Table(t *testing.T) {
	content := "Molecule\tElectron Number\tMolecular Weight\tJDX File\tIonization Type\tIonization Factor\tFragmentation\tIonization Source\n" +
		"Acetone\t32\t58.08\tacetone.jdx\tEI\t3.6\tNIST Webbook\tunknown\n"
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(content)
	require.NoError(t, err)

	for _, ext := range []string{".txt", ".tab"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "MoleculesInfoTable"+ext)
			require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))

			db, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, path, db.Path())

			acetone, ok := db.Lookup("Acetone")
			require.True(t, ok)
			assert.Equal(t, core.Some(32), acetone.Record.ElectronCount)
			assert.Equal(t, core.Some(58.08), acetone.Record.MolecularWeight)
			assert.False(t, acetone.Record.IonizationDataSource.Valid)
		})
	}
}

func TestParseRejectsBadNumbers(t *testing.T) {
	in := "header\nArgon;eighteen;39.95\n"
	_, err := Parse(strings.NewReader(in), Encoding{Delimiter: ';'})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "electron number")
}

func TestEncodingFor(t *testing.T) {
	enc, err := EncodingFor("MoleculesInfo.CSV")
	require.NoError(t, err)
	assert.Equal(t, Encoding{Delimiter: ';'}, enc)

	enc, err = EncodingFor("MoleculesInfoTable.tab")
	require.NoError(t, err)
	assert.Equal(t, Encoding{Delimiter: '\t', UTF16: true}, enc)

	_, err = EncodingFor("MoleculesInfo.xlsx")
	assert.Error(t, err)
}

func TestNilDB(t *testing.T) {
	var db *DB
	_, ok := db.Lookup("Water")
	assert.False(t, ok)
	assert.Nil(t, db.Names())
	assert.Zero(t, db.Len())
}
