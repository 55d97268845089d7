// Package pipeline runs dualsub end to end: load or transcribe the source,
// translate it, merge both languages, and optionally summarize and burn the
// result into the video.
//
// Every run holds an exclusive lock on its output directory, gets a uuid,
// and is recorded stage by stage in the journal when one is configured.
// Stages run in order and the first failure stops the run; files written by
// earlier stages stay on disk and in the journal.
package pipeline
