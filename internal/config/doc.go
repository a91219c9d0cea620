// Package config loads and merges lyon configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (LYON_PROVIDER, LYON_MODEL, LYON_FORMAT, LYON_DB_PATH, etc.)
//  3. Config file ($XDG_CONFIG_HOME/lyon/config.toml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Stored] to read the file over the
// defaults without environment overrides, [Save] to write it back, and
// [SetField] to update a single dotted key.
package config
