// Package testsupport holds helpers shared by package tests: a temp-dir
// config builder and stub ffprobe/ffmpeg scripts.
package testsupport
