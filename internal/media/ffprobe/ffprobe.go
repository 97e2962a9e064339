package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"hlsladder/internal/services"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	BitRate   string `json:"bit_rate"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// StreamInfo is the subset of the first video stream the ladder decision needs.
// All fields are positive for a StreamInfo returned by Probe.
type StreamInfo struct {
	Width      int
	Height     int
	BitRateBps int64
}

// ProbeError reports a failed inspection. It always wraps one of the
// services markers so callers can classify it with errors.Is.
type ProbeError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("probe %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("probe %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Executor abstracts command execution for testability. It returns stdout,
// stderr, and the process error.
type Executor interface {
	Output(ctx context.Context, binary string, args []string) ([]byte, []byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Output(ctx context.Context, binary string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Option configures the Prober.
type Option func(*Prober)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(p *Prober) {
		if exec != nil {
			p.exec = exec
		}
	}
}

// Prober runs ffprobe against source files.
type Prober struct {
	binary string
	exec   Executor
}

// New constructs a Prober. An empty binary defaults to "ffprobe".
func New(binary string, opts ...Option) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	p := &Prober{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Args returns the ffprobe argument list used to inspect path.
func Args(path string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		"-i", path,
	}
}

// Probe inspects the first video stream of path.
func (p *Prober) Probe(ctx context.Context, path string) (StreamInfo, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return StreamInfo{}, &ProbeError{Reason: "empty path", Err: services.ErrValidation}
	}

	stdout, stderr, err := p.exec.Output(ctx, p.binary, Args(path))
	if err != nil {
		detail := strings.TrimSpace(string(stderr))
		if detail == "" {
			detail = err.Error()
		}
		return StreamInfo{}, &ProbeError{
			Path:   path,
			Reason: "ffprobe failed",
			Err:    services.Wrap(services.ErrExternalTool, "probe", p.binary, detail, err),
		}
	}

	result, err := Parse(stdout)
	if err != nil {
		return StreamInfo{}, &ProbeError{Path: path, Reason: "unparsable ffprobe output", Err: services.Wrap(services.ErrExternalTool, "probe", "parse", "", err)}
	}
	info, err := result.StreamInfo()
	if err != nil {
		return StreamInfo{}, &ProbeError{Path: path, Reason: "unusable video stream", Err: err}
	}
	return info, nil
}

// Parse decodes raw ffprobe JSON output.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// FirstVideo returns the first stream whose codec type is video.
func (r Result) FirstVideo() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			count++
		}
	}
	return count
}

// BitRate returns the container bitrate in bits per second, or 0 when unavailable.
func (r Result) BitRate() int64 {
	return parseRate(r.Format.BitRate)
}

// StreamInfo extracts width, height, and bitrate of the first video stream.
// The stream bitrate wins; Matroska sources usually omit it, in which case the
// container bitrate is used.
func (r Result) StreamInfo() (StreamInfo, error) {
	stream, ok := r.FirstVideo()
	if !ok {
		return StreamInfo{}, services.Wrap(services.ErrValidation, "probe", "select stream", "no video stream", nil)
	}
	if stream.Width <= 0 || stream.Height <= 0 {
		return StreamInfo{}, services.Wrap(services.ErrValidation, "probe", "dimensions",
			fmt.Sprintf("invalid dimensions %dx%d", stream.Width, stream.Height), nil)
	}
	rate := parseRate(stream.BitRate)
	if rate <= 0 {
		rate = r.BitRate()
	}
	if rate <= 0 {
		return StreamInfo{}, services.Wrap(services.ErrValidation, "probe", "bitrate", "bitrate unavailable", nil)
	}
	return StreamInfo{Width: stream.Width, Height: stream.Height, BitRateBps: rate}, nil
}

func parseRate(value string) int64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || strings.EqualFold(cleaned, "N/A") {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || parsed < 0 {
		return 0
	}
	return int64(parsed)
}

// IsProbeError reports whether err carries a *ProbeError.
func IsProbeError(err error) bool {
	var probeErr *ProbeError
	return errors.As(err, &probeErr)
}
