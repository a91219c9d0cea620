// Package cli wires together the Cobra command tree for the lyon binary.
//
// It defines the root command and all subcommands (review, diff, history,
// providers, config, version), binds flags, reads configuration, drives the
// review engine, and returns deterministic exit codes for CI gating.
package cli
