package config

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGrid(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateNIST(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateGrid() error {
	if c.Grid.Width < 1 {
		return fmt.Errorf("grid.width must be at least 1, got %d", c.Grid.Width)
	}
	return nil
}

func (c *Config) validateExport() error {
	for name, d := range map[string]string{
		"export.csv_delimiter":   c.Export.CSVDelimiter,
		"export.table_delimiter": c.Export.TableDelimiter,
	} {
		if utf8.RuneCountInString(d) != 1 {
			return fmt.Errorf("%s must be a single character, got %q", name, d)
		}
		r, _ := utf8.DecodeRuneInString(d)
		if r == '\n' || r == '\r' || (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return fmt.Errorf("%s %q would be ambiguous with table content", name, d)
		}
	}
	if c.Export.BaseName == c.Export.TableBaseName {
		return errors.New("export.base_name and export.table_base_name must differ")
	}
	return nil
}

func (c *Config) validateNIST() error {
	if !c.NIST.Enabled {
		return nil
	}
	if c.NIST.TimeoutSeconds < 0 {
		return errors.New("nist.timeout_seconds must be non-negative")
	}
	if c.NIST.RequestsPerSecond < 0 {
		return errors.New("nist.requests_per_second must be non-negative")
	}
	if c.NIST.BreakerFailures < 1 {
		return errors.New("nist.breaker_failures must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	return nil
}

// CSVDelimiter returns the delimiter for the CSV variant.
func (c *Config) CSVDelimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Export.CSVDelimiter)
	return r
}

// TableDelimiter returns the delimiter for the .txt and .tab variants.
func (c *Config) TableDelimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Export.TableDelimiter)
	return r
}
