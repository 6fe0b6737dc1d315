// Package convert resolves molecule names to spectra and metadata and assembles them
// into a binned matrix ready for export.
package convert

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
	"github.com/ChrisMcGann/jdxconv/pkg/grid"
	"github.com/ChrisMcGann/jdxconv/pkg/moldb"
	"github.com/ChrisMcGann/jdxconv/pkg/nist"
)

// Where a molecule's spectrum came from.
const (
	SourceLocal   = "local"
	SourceLibrary = "library"
	SourceRemote  = "nist"
	SourceNone    = "none"
)

// Fragmentation source labels written when the database does not supply one.
const (
	RemoteFragmentationSource  = "NIST Webbook"
	LocalFragmentationSource   = "local file"
	LibraryFragmentationSource = "spectral library"
)

// ErrNoSpectrum is recorded when no source could supply a spectrum.
var ErrNoSpectrum = errors.New("no spectrum source available")

// Library looks spectra up in a local spectral library.
type Library interface {
	Lookup(ctx context.Context, name string) (*core.Spectrum, error)
}

// Remote fetches metadata and spectra from an online database.
type Remote interface {
	Metadata(ctx context.Context, name string) (nist.Metadata, error)
	Spectrum(ctx context.Context, name string) (*core.Spectrum, error)
}

// Pipeline resolves molecules in order. Nil DB, Library, or Remote are skipped.
type Pipeline struct {
	DB      *moldb.DB
	JDXDir  string
	Library Library
	Remote  Remote
	Binner  *grid.Binner
	Logger  *zap.Logger
}

// Outcome reports how one molecule was resolved.
type Outcome struct {
	Name   string
	Source string // SourceLocal, SourceLibrary, SourceRemote or SourceNone
	Path   string // spectrum file, when read from disk
	Points  int
	Dropped int   // peaks above the grid width that were left out
	Err     error // why the spectrum is all zero, if it is
}

// Batch is the result of a run: records and matrix columns are in request order.
type Batch struct {
	Records  []core.MoleculeRecord
	Matrix   *grid.Matrix
	Outcomes []Outcome
}

// Run resolves every name. Per-molecule failures degrade to a zero spectrum with unknown
// metadata and are reported in Outcomes; only context cancellation aborts the run.
func (p *Pipeline) Run(ctx context.Context, names []string) (*Batch, error) {
	if p.Binner == nil {
		return nil, errors.New("convert: pipeline has no binner")
	}
	logger := p.logger()

	batch := &Batch{
		Records:  make([]core.MoleculeRecord, 0, len(names)),
		Matrix:   grid.NewMatrix(p.Binner.Width()),
		Outcomes: make([]Outcome, 0, len(names)),
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, dense, outcome := p.Resolve(ctx, name)
		if err := batch.Matrix.Append(dense); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		batch.Records = append(batch.Records, rec)
		batch.Outcomes = append(batch.Outcomes, outcome)

		fields := []zap.Field{
			zap.String("molecule", name),
			zap.String("source", outcome.Source),
			zap.Int("points", outcome.Points),
			zap.Stringer("electrons", rec.ElectronCount),
			zap.Stringer("molecular_weight", rec.MolecularWeight),
		}
		if outcome.Err != nil {
			logger.Warn("molecule converted with empty spectrum", append(fields, zap.Error(outcome.Err))...)
		} else {
			logger.Info("molecule converted", fields...)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return batch, nil
}

// Resolve produces the record and binned spectrum for one molecule.
//
// A database row supplies metadata and may name a spectrum file in JDXDir. Without a
// row, a <name>.jdx or <name>.msp file in JDXDir is used. Otherwise, or when the named
// file is missing, the library and then the remote are tried. Unknown electron counts
// and weights are filled from the spectrum document and then the remote.
func (p *Pipeline) Resolve(ctx context.Context, name string) (core.MoleculeRecord, grid.DenseSpectrum, Outcome) {
	logger := p.logger().With(zap.String("molecule", name))
	outcome := Outcome{Name: name, Source: SourceNone}

	entry, inDB := p.DB.Lookup(name)
	rec := core.UnknownRecord(name)
	if inDB {
		rec = entry.Record
	}

	var (
		spec *core.Spectrum
		err  error
	)
	switch {
	case inDB && entry.SpectrumFile != "":
		if path, ok := resolveDBFile(p.JDXDir, entry.SpectrumFile); ok {
			spec, err = ReadSpectrumFile(path)
			outcome.Source, outcome.Path = SourceLocal, path
		} else {
			logger.Debug("database spectrum file not found", zap.String("file", entry.SpectrumFile))
		}
	case !inDB:
		if path, ok := findLocalFile(p.JDXDir, name); ok {
			spec, err = ReadSpectrumFile(path)
			outcome.Source, outcome.Path = SourceLocal, path
		}
	}

	if spec == nil {
		if err != nil {
			logger.Warn("local spectrum unreadable", zap.String("path", outcome.Path), zap.Error(err))
		}
		var fetchErr error
		spec, outcome.Source, fetchErr = p.fetchSpectrum(ctx, name)
		err = errors.Join(err, fetchErr)
		if spec != nil {
			outcome.Path = ""
		}
	}

	fragSource := rec.FragmentationSource
	switch {
	case spec == nil:
		fragSource = core.Known[string]{}
	case outcome.Source == SourceLocal && !inDB:
		fragSource = core.Some(LocalFragmentationSource)
		if spec.Origin != "" {
			fragSource = core.Some(spec.Origin)
		}
	case outcome.Source == SourceLibrary:
		fragSource = core.Some(LibraryFragmentationSource)
	case outcome.Source == SourceRemote:
		fragSource = core.Some(RemoteFragmentationSource)
	}
	rec.FragmentationSource = fragSource

	p.fillMetadata(ctx, logger, &rec, spec)

	if spec == nil {
		if err == nil {
			err = ErrNoSpectrum
		}
		outcome.Source = SourceNone
		outcome.Err = err
		return rec, p.Binner.Zero(), outcome
	}

	spec.SortPoints()
	dense, err := p.Binner.Bin(spec.Points)
	if errors.Is(err, grid.ErrGridOverflow) {
		dense, outcome.Dropped, err = p.binInRange(spec.Points)
		if err == nil {
			logger.Warn("peaks above the grid dropped",
				zap.Int("dropped", outcome.Dropped),
				zap.Int("width", p.Binner.Width()))
		}
	}
	if err != nil {
		rec.FragmentationSource = core.Known[string]{}
		outcome.Err = err
		return rec, p.Binner.Zero(), outcome
	}
	outcome.Points = len(spec.Points) - outcome.Dropped
	return rec, dense, outcome
}

// binInRange bins the points at or below the grid width and reports how many were left
// out.
func (p *Pipeline) binInRange(points []core.Point) (grid.DenseSpectrum, int, error) {
	width := p.Binner.Width()
	b, err := grid.NewBinner(width, grid.WithDropOverflow(true))
	if err != nil {
		return nil, 0, err
	}
	dense, err := b.Bin(points)
	if err != nil {
		return nil, 0, err
	}
	dropped := 0
	for _, pt := range points {
		if int(math.Floor(pt.Mass)) > width {
			dropped++
		}
	}
	return dense, dropped, nil
}

// fetchSpectrum tries the library and then the remote.
func (p *Pipeline) fetchSpectrum(ctx context.Context, name string) (*core.Spectrum, string, error) {
	var errs []error
	if p.Library != nil {
		spec, err := p.Library.Lookup(ctx, name)
		if err == nil {
			return spec, SourceLibrary, nil
		}
		errs = append(errs, fmt.Errorf("library: %w", err))
	}
	if p.Remote != nil {
		spec, err := p.Remote.Spectrum(ctx, name)
		if err == nil {
			return spec, SourceRemote, nil
		}
		errs = append(errs, fmt.Errorf("remote: %w", err))
	}
	if len(errs) == 0 {
		return nil, SourceNone, nil
	}
	return nil, SourceNone, errors.Join(errs...)
}

// fillMetadata completes unknown electron counts and weights from the spectrum document
// and then the remote. Other fields are left as they are.
func (p *Pipeline) fillMetadata(ctx context.Context, logger *zap.Logger, rec *core.MoleculeRecord, spec *core.Spectrum) {
	if spec != nil {
		if !rec.ElectronCount.Valid && spec.Formula != "" {
			if n, err := core.ElectronCount(spec.Formula); err == nil {
				rec.ElectronCount = core.Some(n)
			} else {
				logger.Debug("document formula not usable", zap.String("formula", spec.Formula), zap.Error(err))
			}
		}
		if !rec.MolecularWeight.Valid {
			if mw, ok := spec.MolecularWeight.Get(); ok {
				rec.MolecularWeight = core.Some(mw)
			} else if spec.Formula != "" {
				if mw, err := core.MolecularWeight(spec.Formula); err == nil {
					rec.MolecularWeight = core.Some(mw)
				}
			}
		}
	}

	if (rec.ElectronCount.Valid && rec.MolecularWeight.Valid) || p.Remote == nil {
		return
	}
	meta, err := p.Remote.Metadata(ctx, rec.Name)
	if err != nil {
		logger.Debug("remote metadata unavailable", zap.Error(err))
		return
	}
	if !rec.ElectronCount.Valid && meta.ElectronCount > 0 {
		rec.ElectronCount = core.Some(meta.ElectronCount)
	}
	if !rec.MolecularWeight.Valid && meta.MolecularWeight > 0 {
		rec.MolecularWeight = core.Some(meta.MolecularWeight)
	}
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
