// Package journal records pipeline runs and the artifacts they write in a
// SQLite database under the state directory.
//
// A run row is inserted when the pipeline starts, its stage is updated as it
// advances, and it is closed as succeeded, failed or rejected. Artifacts of
// completed stages stay recorded even when a later stage fails.
//
// Schema changes bump schemaVersion in schema.go; an older database is
// rejected with ErrSchemaMismatch and must be deleted.
package journal
