// Package services defines shared utilities consumed by the pipeline stages
// and the external tool integrations.
//
// Context helpers stamp run IDs, stage names and correlation identifiers for
// logging. Structured error markers plus the Wrap helper let callers classify
// failures as retryable or as needing different input, which the journal and
// the CLI exit code both rely on.
package services
