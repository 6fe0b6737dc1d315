package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExport()
	c.normalizeNIST()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.Database, err = expandPath(strings.TrimSpace(c.Paths.Database)); err != nil {
		return fmt.Errorf("paths.database: %w", err)
	}
	if c.Paths.JDXDir, err = expandPath(strings.TrimSpace(c.Paths.JDXDir)); err != nil {
		return fmt.Errorf("paths.jdx_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.Library, err = expandPath(strings.TrimSpace(c.Paths.Library)); err != nil {
		return fmt.Errorf("paths.library: %w", err)
	}
	return nil
}

func (c *Config) normalizeExport() {
	c.Export.BaseName = strings.TrimSpace(c.Export.BaseName)
	c.Export.TableBaseName = strings.TrimSpace(c.Export.TableBaseName)
	if c.Export.BaseName == "" {
		c.Export.BaseName = Default().Export.BaseName
	}
	if c.Export.TableBaseName == "" {
		c.Export.TableBaseName = Default().Export.TableBaseName
	}
	// TOML writers often spell tab as a literal "\t" in single quotes.
	if c.Export.TableDelimiter == `\t` {
		c.Export.TableDelimiter = "\t"
	}
	if c.Export.CSVDelimiter == `\t` {
		c.Export.CSVDelimiter = "\t"
	}
}

func (c *Config) normalizeNIST() {
	c.NIST.BaseURL = strings.TrimRight(strings.TrimSpace(c.NIST.BaseURL), "/")
	if c.NIST.BaseURL == "" {
		c.NIST.BaseURL = Default().NIST.BaseURL
	}
	c.NIST.UserAgent = strings.TrimSpace(c.NIST.UserAgent)
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}
