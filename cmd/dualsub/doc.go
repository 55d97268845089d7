// Package main hosts the dualsub CLI entrypoint and command graph.
//
// The stateless commands (convert, merge, inspect) work on subtitle files
// directly. translate, summarize, process and burn call the configured
// providers and tools; process and burn are recorded in the run journal that
// history, logs and status read. serve exposes the stateless operations over HTTP.
//
// Configuration is resolved once per invocation from --config, the default
// path, or ./dualsub.toml, in that order.
package main
