// Package translation turns a cue document into its translation by fanning
// cue batches out to a Translator through a fixed-size worker pool.
//
// Each batch owns an explicit retry state machine (see State and Next).
// Transient failures back off exponentially with jitter; permanent failures
// and exhausted retries cancel the run. Results are tagged with their cue
// index and sorted back into document order, so the output always has the
// same cue count, indices and timings as the input.
package translation
