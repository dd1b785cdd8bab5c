// Package logging builds the slog loggers used across skyhaul. Console
// output is a condensed human-readable line format (with a JSON option),
// and when a log directory is configured the same records fan out to a
// JSON lines file for later inspection.
package logging
