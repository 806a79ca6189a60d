// Package history persists run records and cached transcripts in SQLite.
//
// Each pipeline run is a row in runs that moves from running to rendered and
// then to published, publish_failed or failed. The transcripts table caches
// aligner output keyed by the audio content hash so re-running a day with the
// same narration skips the transcription call.
//
// The schema is embedded and stamped with a version. A database written by a
// different version is refused with ErrSchemaMismatch rather than migrated.
package history
