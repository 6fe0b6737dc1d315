package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/jdxconv/pkg/convert"
	"github.com/ChrisMcGann/jdxconv/pkg/core"
	"github.com/ChrisMcGann/jdxconv/pkg/grid"
	"github.com/ChrisMcGann/jdxconv/pkg/writer/table"
)

func newValidateCmd() *cobra.Command {
	var width int
	c := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check that a spectrum file parses and fits the grid",
		Long: `Parse a JCAMP-DX (.jdx) or MSP (.msp) file and bin it onto the grid without writing
anything. Reports the point count, mass range, base peak and metadata, and fails if the
spectrum cannot be binned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if width <= 0 {
				width = cfg.Grid.Width
			}
			return runValidate(cmd, args[0], width)
		},
	}
	c.Flags().IntVar(&width, "width", 0, "Grid width in mass units (0 = config value)")
	return c
}

func runValidate(cmd *cobra.Command, path string, width int) error {
	spec, err := convert.ReadSpectrumFile(path)
	if err != nil {
		return err
	}

	binner, err := grid.NewBinner(width, grid.WithDropOverflow(cfg.Grid.DropOverflow))
	if err != nil {
		return err
	}

	lo, hi := spec.MassRange()
	rows := [][]string{
		{"Title", spec.Name()},
		{"Format", spec.SourceFormat},
		{"Points", strconv.Itoa(len(spec.Points))},
		{"Mass range", fmt.Sprintf("%g - %g", lo, hi)},
		{"Formula", orUnknown(spec.Formula)},
		{"Hill formula", hillFormula(spec.Formula)},
		{"Electrons", electronsFor(spec.Formula)},
		{"Molecular weight", weightFor(spec)},
		{"CAS", orUnknown(spec.CASNumber)},
	}
	if base, ok := spec.BasePeak(); ok {
		rows = append(rows, []string{"Base peak", fmt.Sprintf("%g (%g)", base.Mass, base.Intensity)})
	}

	if verr := spec.Validate(); verr != nil {
		logger.Warn("spectrum has problems", zap.String("file", path), zap.Error(verr))
	}

	if !spec.ArePointsSorted() {
		logger.Info("points are not in mass order, sorting", zap.String("file", path))
		spec.SortPoints()
	}
	_, binErr := binner.Bin(spec.Points)
	status := fmt.Sprintf("fits a %d unit grid", width)
	if binErr != nil {
		status = binErr.Error()
	}
	rows = append(rows, []string{"Grid", status})

	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
	if binErr != nil {
		return fmt.Errorf("%s: %w", path, binErr)
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return core.UnknownLabel
	}
	return s
}

func hillFormula(formula string) string {
	if formula == "" {
		return core.UnknownLabel
	}
	comp, err := core.ParseFormula(formula)
	if err != nil {
		return core.UnknownLabel
	}
	return comp.HillFormula()
}

func electronsFor(formula string) string {
	if formula == "" {
		return core.UnknownLabel
	}
	n, err := core.ElectronCount(formula)
	if err != nil {
		return core.UnknownLabel
	}
	return strconv.Itoa(n)
}

func weightFor(spec *core.Spectrum) string {
	if mw, ok := spec.MolecularWeight.Get(); ok {
		return table.FormatFloat(mw)
	}
	if spec.Formula != "" {
		if mw, err := core.MolecularWeight(spec.Formula); err == nil {
			return table.FormatFloat(mw) + " (from formula)"
		}
	}
	return core.UnknownLabel
}
