// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so every stage failure
//     names its stage while errors.Is still reaches the underlying sentinel.
//
// Client packages for external APIs and tools live in subpackages.
package services
