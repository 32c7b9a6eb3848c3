// Package services defines shared utilities consumed by the pipeline stages
// and the decoder integration.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and the user-facing
//     operation for logging and tracing.
//   - Structured error markers plus the Wrap helper that map failures onto the
//     installer's taxonomy (launch failure, tool failure, manifest unavailable,
//     precondition unmet) and the hints shown next to them.
//
// Use these helpers when wiring new stage logic so error classification and
// observability stay uniform across the pipeline.
package services
