// Package logging assembles structured slog loggers and formatting helpers
// used by the taiga CLI and plugin daemons.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and provides a no-op logger for tests and wiring code that cannot
// fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits log lines with the same shape.
package logging
