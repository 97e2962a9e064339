// Package rendition runs the transcoder for a single ladder rung.
//
// Each rung's encoder settings are a typed Params value rendered into an
// argument list. A Transcoder owns exactly one rung directory per Run and
// reports the outcome as a JobResult instead of an error.
package rendition
