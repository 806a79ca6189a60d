// Package logging assembles structured slog loggers for reelgen.
//
// It owns the console and JSON handlers, fans records out to an optional JSON
// log file, and exposes context helpers so stage code tags log lines with the
// run ID and stage name automatically. A no-op logger is provided for tests
// and wiring code that has nothing to log to.
package logging
