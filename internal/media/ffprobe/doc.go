// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - StreamInfo: width, height, and bitrate of the first video stream
//   - ProbeError: fatal inspection failure
//
// Primary entry point:
//   - Prober.Probe: executes ffprobe and returns the StreamInfo
package ffprobe
