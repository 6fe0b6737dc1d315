package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/jdxconv/internal/config"
	"github.com/ChrisMcGann/jdxconv/pkg/convert"
	"github.com/ChrisMcGann/jdxconv/pkg/grid"
	"github.com/ChrisMcGann/jdxconv/pkg/moldb"
	"github.com/ChrisMcGann/jdxconv/pkg/nist"
	"github.com/ChrisMcGann/jdxconv/pkg/reader/library"
	"github.com/ChrisMcGann/jdxconv/pkg/writer/table"
)

type convertOptions struct {
	all          bool
	database     string
	jdxDir       string
	outDir       string
	libraryPath  string
	offline      bool
	width        int
	raw          bool
	dropOverflow bool
}

func newConvertCmd() *cobra.Command {
	opts := &convertOptions{}
	c := &cobra.Command{
		Use:   "convert [molecule...]",
		Short: "Convert molecules to grid tables",
		Long: `Resolve each molecule's spectrum and metadata, bin the spectra onto the integer
mass grid, and write ConvertedSpectraN.csv, ConvertedSpectraTableN.txt and
ConvertedSpectraTableN.tab into the output directory.

Molecule names may also be given as one argument separated by ';'. With no names and
no --all, names are read interactively.

Examples:
  # Convert two molecules
  jdxconv convert Methanol Ethanol

  # Convert every molecule in the database without touching the network
  jdxconv convert --all --offline

  # Use a tab-delimited UTF-16 database and a local spectral library
  jdxconv convert --database MoleculesInfoTable.txt --library nist.db "Acetone;Water"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts, args)
		},
	}

	f := c.Flags()
	f.BoolVar(&opts.all, "all", false, "Convert every molecule in the database")
	f.StringVar(&opts.database, "database", "", "Molecule database (.csv, .txt or .tab)")
	f.StringVar(&opts.jdxDir, "jdx-dir", "", "Directory of local JCAMP-DX and MSP files")
	f.StringVar(&opts.outDir, "out-dir", "", "Output directory")
	f.StringVar(&opts.libraryPath, "library", "", "SQLite spectral library consulted before the WebBook")
	f.BoolVar(&opts.offline, "offline", false, "Never contact the NIST WebBook")
	f.IntVar(&opts.width, "width", 0, "Grid width in mass units (0 = config value)")
	f.BoolVar(&opts.raw, "raw", false, "Write intensities unmodified instead of truncated to integers")
	f.BoolVar(&opts.dropOverflow, "drop-overflow", false, "Ignore peaks above the grid width")
	return c
}

// applyFlags overrides configuration values with explicitly set flags.
func (o *convertOptions) applyFlags(cmd *cobra.Command, c *config.Config) error {
	paths := []struct {
		flag  string
		value string
		dst   *string
	}{
		{"database", o.database, &c.Paths.Database},
		{"jdx-dir", o.jdxDir, &c.Paths.JDXDir},
		{"out-dir", o.outDir, &c.Paths.OutputDir},
		{"library", o.libraryPath, &c.Paths.Library},
	}
	for _, p := range paths {
		if !cmd.Flags().Changed(p.flag) {
			continue
		}
		expanded, err := config.ExpandPath(p.value)
		if err != nil {
			return fmt.Errorf("--%s: %w", p.flag, err)
		}
		*p.dst = expanded
	}
	if o.width > 0 {
		c.Grid.Width = o.width
	}
	if cmd.Flags().Changed("raw") {
		c.Export.RawValues = o.raw
	}
	if cmd.Flags().Changed("drop-overflow") {
		c.Grid.DropOverflow = o.dropOverflow
	}
	if o.offline {
		c.NIST.Enabled = false
	}
	return c.Validate()
}

func runConvert(cmd *cobra.Command, opts *convertOptions, args []string) error {
	ctx := cmd.Context()
	if err := opts.applyFlags(cmd, cfg); err != nil {
		return err
	}

	log := logger.With(zap.String("run_id", uuid.NewString()))

	db, err := moldb.Load(cfg.Paths.Database)
	switch {
	case err == nil:
		log.Info("loaded molecule database", zap.String("path", db.Path()), zap.Int("molecules", db.Len()))
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("molecule database not found, continuing without it", zap.String("path", cfg.Paths.Database))
		db = nil
	default:
		return err
	}

	var lib *library.Library
	if cfg.Paths.Library != "" {
		if lib, err = library.Open(cfg.Paths.Library); err != nil {
			return err
		}
		defer lib.Close()
	}

	names, err := moleculeNames(cmd, opts, args, db, lib)
	if err != nil {
		return err
	}

	binOpts := []grid.Option{grid.WithDropOverflow(cfg.Grid.DropOverflow)}
	binner, err := grid.NewBinner(cfg.Grid.Width, binOpts...)
	if err != nil {
		return err
	}

	pipeline := &convert.Pipeline{
		DB:     db,
		JDXDir: cfg.Paths.JDXDir,
		Binner: binner,
		Logger: log,
	}
	if lib != nil {
		pipeline.Library = lib
	}

	if cfg.NIST.Enabled {
		nistOpts := []nist.Option{nist.WithLogger(log)}
		if cfg.NIST.SaveDownloads {
			nistOpts = append(nistOpts, nist.WithSaveDir(cfg.Paths.JDXDir))
		}
		client, err := nist.NewClient(nist.Config{
			BaseURL:           cfg.NIST.BaseURL,
			UserAgent:         cfg.NIST.UserAgent,
			TimeoutSeconds:    cfg.NIST.TimeoutSeconds,
			RequestsPerSecond: cfg.NIST.RequestsPerSecond,
			BreakerFailures:   uint32(cfg.NIST.BreakerFailures),
		}, nistOpts...)
		if err != nil {
			return err
		}
		pipeline.Remote = client
	}

	batch, err := pipeline.Run(ctx, names)
	if err != nil {
		return err
	}

	formats := table.Formats(cfg.Export.BaseName, cfg.Export.TableBaseName, cfg.CSVDelimiter(), cfg.TableDelimiter())
	paths, err := table.ExportSet(cfg.Paths.OutputDir, formats, batch.Matrix, batch.Records, cfg.Export.RawValues)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderOutcomes(batch.Outcomes))
	fmt.Fprintln(out, "Conversion complete: outputs written in")
	for _, p := range paths {
		fmt.Fprintf(out, "  %s\n", relativeToWD(p))
	}
	return nil
}

// moleculeNames returns the molecules to convert from arguments, --all, or the prompt.
// "All" means every database molecule, or every library compound when no database
// is loaded.
func moleculeNames(cmd *cobra.Command, opts *convertOptions, args []string, db *moldb.DB, lib *library.Library) ([]string, error) {
	var names []string
	for _, arg := range args {
		names = append(names, splitNames(arg)...)
	}
	if len(names) > 0 && !opts.all {
		return names, nil
	}

	var lister namesLister
	if lib != nil {
		lister = lib
	}
	all, err := allMolecules(cmd.Context(), db, lister)
	if err != nil {
		return nil, err
	}
	if opts.all {
		if len(all) == 0 {
			return nil, fmt.Errorf("--all needs a molecule database or spectral library, none loaded from %s", cfg.Paths.Database)
		}
		return all, nil
	}

	in := cmd.InOrStdin()
	if !isTerminal(in) {
		return nil, errors.New("no molecules given; pass names, --all, or run interactively")
	}
	names, err = promptMoleculeNames(in, cmd.ErrOrStderr(), all)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.New("no molecules entered")
	}
	return names, nil
}

// namesLister is satisfied by *library.Library.
type namesLister interface {
	Names(ctx context.Context) ([]string, error)
}

func allMolecules(ctx context.Context, db *moldb.DB, lib namesLister) ([]string, error) {
	if db.Len() > 0 {
		return db.Names(), nil
	}
	if lib == nil {
		return nil, nil
	}
	names, err := lib.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("list spectral library: %w", err)
	}
	return names, nil
}

func renderOutcomes(outcomes []convert.Outcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		status := "ok"
		switch {
		case o.Err != nil:
			status = o.Err.Error()
		case o.Dropped > 0:
			status = fmt.Sprintf("ok, %d peaks above the grid dropped", o.Dropped)
		}
		rows = append(rows, []string{o.Name, o.Source, strconv.Itoa(o.Points), status})
	}
	return renderTable(
		[]string{"Molecule", "Source", "Points", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func relativeToWD(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil && !filepath.IsAbs(rel) && rel[0] != '.' {
		return rel
	}
	return path
}
