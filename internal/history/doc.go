// Package history keeps a SQLite ledger of conversion runs and the outcome of
// each rung, backing the `hlsladder history` commands.
package history
