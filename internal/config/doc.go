// Package config loads, normalizes, and validates hlsladder configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// HLSLADDER_FFMPEG. The Config type centralizes every knob the CLI needs so
// tool paths, worker counts, and the run ledger location are discovered in one
// pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
