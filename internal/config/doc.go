// Package config loads, normalizes, and validates dualsub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY and GEMINI_API_KEY. Domain values (style, formats, line
// order, kind preference) are validated with the same constructors the
// pipeline uses, so a config that loads is a config the pipeline accepts.
package config
