// Package config loads, normalizes, and validates jdxconv configuration.
//
// Configuration is read from TOML. Load resolves an explicit path first, then
// ~/.config/jdxconv/config.toml, then ./jdxconv.toml in the working directory,
// falling back to Default when no file exists. Path values accept a leading "~".
package config
