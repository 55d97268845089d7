// Package subformat converts cue documents to and from SubRip, WebVTT and
// plain text.
//
// Parsing is strict about timestamp syntax so that any timestamp read from a
// file is written back byte for byte. Writers are pure and never fail; a
// document survives Write followed by Parse unchanged whenever Representable
// reports no problem for the target format. Plain text drops timing and is
// never representable in that sense.
//
// WebVTT files must use the full HH:MM:SS.mmm form. The short MM:SS.mmm form
// is rejected with a ParseError because it would not write back unchanged.
// The WebVTT writer emits each cue index as the cue identifier.
package subformat
