package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/jdxconv/pkg/grid"
	reader "github.com/ChrisMcGann/jdxconv/pkg/reader/table"
)

func newSummarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize [file]",
		Short: "Summarize a converted spectra table",
		Long:  `Print per-molecule statistics for a converted table: metadata, nonzero peak count, base peak, and total intensity.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd, args[0])
		},
	}
}

func runSummarize(cmd *cobra.Command, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tbl, err := reader.ReadFile(path, 0)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s, %d molecules, %d mass rows (delimiter %q)\n",
		path, humanize.Bytes(uint64(info.Size())), len(tbl.Records), len(tbl.Masses), tbl.Delimiter)

	rows := make([][]string, 0, len(tbl.Records))
	for k, rec := range tbl.Records {
		stats := spectrumStats(tbl.Matrix, k)
		base := "-"
		if stats.peaks > 0 {
			base = strconv.Itoa(stats.baseMass)
		}
		rows = append(rows, []string{
			rec.Name,
			rec.ElectronCount.String(),
			rec.MolecularWeight.String(),
			strconv.Itoa(stats.peaks),
			base,
			humanize.Commaf(stats.total),
			rec.FragmentationSource.String(),
		})
	}

	fmt.Fprintln(out, renderTable(
		[]string{"Molecule", "Electrons", "MW", "Peaks", "Base peak", "Total intensity", "Fragmentation source"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
	return nil
}

type columnStats struct {
	peaks    int
	baseMass int
	total    float64
}

// spectrumStats summarizes matrix column k.
func spectrumStats(m *grid.Matrix, k int) columnStats {
	var s columnStats
	best := 0.0
	for g := 1; g <= m.Width(); g++ {
		v := m.At(k, g)
		if v == 0 {
			continue
		}
		s.peaks++
		s.total += v
		if v > best {
			best, s.baseMass = v, g
		}
	}
	return s
}
