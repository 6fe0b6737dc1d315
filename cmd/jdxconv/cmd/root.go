// Package cmd provides CLI command implementations
package cmd

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/jdxconv/internal/config"
	"github.com/ChrisMcGann/jdxconv/internal/logging"
)

var (
	// Global flags
	configPath string
	logLevel   string
	logFormat  string

	// Loaded by the root command before any subcommand runs
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "jdxconv",
	Short: "jdxconv - mass spectrum to grid table converter",
	Long: `jdxconv converts electron-ionization mass spectra (JCAMP-DX, MSP, SQLite
spectral libraries, or the NIST Chemistry WebBook) into fixed-width delimited tables
with one column per molecule and one row per integer mass.

Molecule metadata (electron count, molecular weight, ionization data) comes from the
MoleculesInfo database, the spectrum documents themselves, and the WebBook.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, _, _, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Logging.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			loaded.Logging.Format = logFormat
		}
		l, err := logging.NewFromConfig(loaded)
		if err != nil {
			return err
		}
		cfg, logger = loaded, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/jdxconv/config.toml or ./jdxconv.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console or json")

	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newSummarizeCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	file, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
