package config

import "github.com/ChrisMcGann/jdxconv/pkg/writer/table"

// Default returns a Config populated with the built-in defaults. Relative paths are
// resolved against the working directory by Load.
func Default() Config {
	return Config{
		Grid: Grid{
			Width: 300,
		},
		Paths: Paths{
			Database:  "MoleculesInfo.csv",
			JDXDir:    "JDXFiles",
			OutputDir: "OutputFiles",
		},
		Export: Export{
			BaseName:       table.DefaultBaseName,
			TableBaseName:  table.DefaultTableBaseName,
			CSVDelimiter:   string(rune(table.DefaultCSVDelimiter)),
			TableDelimiter: string(rune(table.DefaultTableDelimiter)),
		},
		NIST: NIST{
			Enabled:           true,
			BaseURL:           "https://webbook.nist.gov",
			TimeoutSeconds:    10,
			RequestsPerSecond: 1,
			UserAgent:         "jdxconv",
			BreakerFailures:   3,
			SaveDownloads:     true,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}
