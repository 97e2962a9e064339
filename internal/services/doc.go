// Package services defines shared utilities consumed by the pipeline stages and
// the external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and rung identifiers for
//     logging.
//   - Structured error markers plus the Wrap helper so every failure can be
//     classified with errors.Is regardless of which adapter produced it.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
