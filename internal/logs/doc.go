// Package logs reads the per-run JSON log files.
//
// Last returns the final lines of a file with bounded memory, ReadFrom
// continues from a byte offset, and Follow polls for appended lines until the
// caller says the run is over. Render turns one JSON record into a compact
// console line.
package logs
