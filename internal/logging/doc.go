// Package logging assembles structured slog loggers and formatting helpers used
// across dualsub.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code tags log lines
// with run IDs, stages and correlation IDs. TeeLogger copies a run's records
// into its own log file under the state directory. The package also provides
// a no-op logger for tests and wiring code that cannot fail.
package logging
