// Package main hosts the hlsladder CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into pipeline runs,
// run ledger queries, preflight checks and configuration scaffolding. It
// centralizes configuration resolution and logger setup so subcommands can
// focus on output.
//
// Exit status: 0 when every rung succeeded, 2 when the master manifest was
// written but at least one rung failed, 1 for any fatal error.
package main
