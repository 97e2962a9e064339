// Package preflight provides readiness checks for the external tools and
// filesystem paths hlsladder depends on.
//
// These checks run in two contexts:
//   - "hlsladder convert" calls CheckSystemDeps and CheckOutputRoot before
//     probing so a missing ffmpeg fails fast instead of failing every rung.
//   - "hlsladder doctor" prints every check as a table.
package preflight
