package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/jdxconv/pkg/convert"
	"github.com/ChrisMcGann/jdxconv/pkg/moldb"
)

type stubLister struct {
	names []string
	err   error
}

func (s stubLister) Names(context.Context) ([]string, error) {
	return s.names, s.err
}

func TestAllMoleculesPrefersDatabase(t *testing.T) {
	db, err := moldb.Parse(strings.NewReader("Molecule\nMethanol\nWater\n"), moldb.Encoding{Delimiter: ';'})
	require.NoError(t, err)

	names, err := allMolecules(context.Background(), db, stubLister{names: []string{"Argon"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Methanol", "Water"}, names)
}

func TestAllMoleculesFallsBackToLibrary(t *testing.T) {
	names, err := allMolecules(context.Background(), nil, stubLister{names: []string{"Argon", "Neon"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Argon", "Neon"}, names)

	_, err = allMolecules(context.Background(), nil, stubLister{err: errors.New("disk I/O error")})
	assert.ErrorContains(t, err, "list spectral library")

	names, err = allMolecules(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRenderOutcomesReportsDroppedPeaks(t *testing.T) {
	got := renderOutcomes([]convert.Outcome{
		{Name: "Squalene", Source: convert.SourceRemote, Points: 40, Dropped: 3},
		{Name: "Ghost", Source: convert.SourceNone, Err: convert.ErrNoSpectrum},
	})
	assert.Contains(t, got, "ok, 3 peaks above the grid dropped")
	assert.Contains(t, got, convert.ErrNoSpectrum.Error())
}
