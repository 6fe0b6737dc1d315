package jcamp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
)

func TestReadFileNISTPeakTable(t *testing.T) {
	spec, err := ReadFile("testdata/methanol.jdx")
	require.NoError(t, err)

	assert.Equal(t, "Methanol", spec.Title)
	assert.Equal(t, "C H4 O", spec.Formula)
	assert.Equal(t, "67-56-1", spec.CASNumber)
	assert.Equal(t, "NIST Mass Spectrometry Data Center", spec.Origin)
	assert.Equal(t, core.Some(32.0), spec.MolecularWeight)
	assert.Equal(t, "jdx", spec.SourceFormat)
	assert.Equal(t, "methanol.jdx", spec.SourceFile)

	require.Len(t, spec.Points, 15)
	assert.Equal(t, core.Point{Mass: 12, Intensity: 9}, spec.Points[0])
	assert.Equal(t, core.Point{Mass: 31, Intensity: 9999}, spec.Points[10])
	assert.Equal(t, core.Point{Mass: 35, Intensity: 1}, spec.Points[14])
	require.NoError(t, spec.Validate())
}

func TestParseAppliesFactors(t *testing.T) {
	doc := `##TITLE=scaled
##XFACTOR=1
##YFACTOR=0.5
##PEAK TABLE=(XY..XY)
1,10 2,20
##END=
`
	spec, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []core.Point{{Mass: 1, Intensity: 5}, {Mass: 2, Intensity: 10}}, spec.Points)
}

func TestParseAFFNRows(t *testing.T) {
	doc := `##TITLE=profile
##FIRSTX=10
##LASTX=14
##NPOINTS=5
##XYDATA=(X++(Y..Y))
10 1 2 3
13 4 5
##END=
`
	spec, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, spec.Points, 5)
	for i, p := range spec.Points {
		assert.Equal(t, float64(10+i), p.Mass)
		assert.Equal(t, float64(i+1), p.Intensity)
	}
}

func TestReaderMultipleBlocks(t *testing.T) {
	doc := `##TITLE=linked
##JCAMP-DX=5.01
##DATA TYPE=LINK
##BLOCKS=2
##TITLE=first
##PEAK TABLE=(XY..XY)
1,1
##END=
##TITLE=second
##PEAK TABLE=(XY..XY)
2,2 3,3
##END=
##END=
`
	r := NewReader(strings.NewReader(doc))
	var titles []string
	for r.Next() {
		titles = append(titles, r.Spectrum().Title)
	}
	require.NoError(t, r.Err())
	assert.Equal(t, []string{"first", "second"}, titles)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		line int
	}{
		{"bad pair", "##TITLE=x\n##PEAK TABLE=(XY..XY)\n1,2 3\n##END=\n", 3},
		{"bad number", "##TITLE=x\n##PEAK TABLE=(XY..XY)\n1,abc\n##END=\n", 3},
		{"npoints mismatch", "##TITLE=x\n##NPOINTS=3\n##PEAK TABLE=(XY..XY)\n1,2\n##END=\n", 5},
		{"unsupported form", "##TITLE=x\n##XYDATA=(R..R)\n##END=\n", 2},
		{"bad factor", "##TITLE=x\n##YFACTOR=big\n", 2},
		{"no block", "just text\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)

			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.line, perr.Line)
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile("testdata/does-not-exist.jdx")
	assert.Error(t, err)
}
