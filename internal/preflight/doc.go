// Package preflight provides readiness checks for the translation provider,
// external binaries and the directories dualsub writes to.
//
// These checks run in two contexts:
//   - The pipeline calls RunAll before a run so a missing key or unwritable
//     directory fails before any audio is transcribed.
//   - The CLI "dualsub status" command uses the individual check functions
//     to display health.
package preflight
