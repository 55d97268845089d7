// Package language normalizes language codes for translation targets,
// transcription hints and artifact file names.
//
// Tag validation and canonical casing come from golang.org/x/text/language;
// a small table adds display names and word forms ("french").
package language
