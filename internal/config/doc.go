// Package config loads, normalizes, and validates Skyhaul configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SKYHAUL_API_KEY. The Config type centralizes every knob the CLI and
// pipeline need, so catalog credentials, storage directories, and downloader
// limits are discovered in one pass and threaded through constructors rather
// than read from globals.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical cadence values, and clear validation errors.
package config
