// Package orchestrator runs the rendition jobs of a ladder concurrently with
// a bounded worker count and collects their results in ladder order.
package orchestrator
