package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ChrisMcGann/jdxconv/pkg/core"
	"github.com/ChrisMcGann/jdxconv/pkg/reader/jcamp"
	"github.com/ChrisMcGann/jdxconv/pkg/reader/msp"
)

// spectrumExts are the raw spectrum formats read from the JDX directory, in lookup order.
var spectrumExts = []string{".jdx", ".msp"}

// ReadSpectrumFile parses a JCAMP-DX or MSP file, chosen by extension. A path without
// an extension is read as JCAMP-DX.
func ReadSpectrumFile(path string) (*core.Spectrum, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msp":
		return msp.ReadFile(path)
	case ".jdx", ".jcamp", ".dx", "":
		return jcamp.ReadFile(path)
	}
	return nil, fmt.Errorf("%s: unsupported spectrum file type", path)
}

// resolveDBFile returns the path of a spectrum file named by a database row. Names without
// an extension get ".jdx".
func resolveDBFile(dir, name string) (string, bool) {
	if filepath.Ext(name) == "" {
		name += ".jdx"
	}
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// findLocalFile looks for <molecule>.jdx or <molecule>.msp in dir, comparing the file
// stem case-insensitively.
func findLocalFile(dir, molecule string) (string, bool) {
	if dir == "" {
		return "", false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, ext := range spectrumExts {
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if !strings.EqualFold(filepath.Ext(name), ext) {
				continue
			}
			if strings.EqualFold(strings.TrimSuffix(name, filepath.Ext(name)), molecule) {
				return filepath.Join(dir, name), true
			}
		}
	}
	return "", false
}
