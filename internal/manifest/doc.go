// Package manifest renders and writes the HLS master playlist.
package manifest
