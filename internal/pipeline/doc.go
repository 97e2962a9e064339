// Package pipeline wires the probe, ladder decision, rendition fan-out and
// master manifest into a single conversion run.
//
// A Runner holds an exclusive lock on <root>/.<base>.lock for the duration of
// a run, tags the context with a fresh run ID, and records the outcome in the
// run ledger when one is configured.
package pipeline
