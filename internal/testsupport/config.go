package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"hlsladder/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique temp history path per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")
	cfgVal.Logging.Level = "warn"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStubbedBinaries writes stub ffprobe and ffmpeg scripts and points the
// config at them. The ffprobe stub reports a 1280x720 stream at 2 Mbps.
func WithStubbedBinaries() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		b.cfg.Tools.FFprobe = WriteScript(b.t, filepath.Join(binDir, "ffprobe"), FFprobeScript(1280, 720, 2_000_000))
		b.cfg.Tools.FFmpeg = WriteScript(b.t, filepath.Join(binDir, "ffmpeg"), FFmpegScript)
	}
}

// WithHistoryDisabled turns the run ledger off.
func WithHistoryDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}
