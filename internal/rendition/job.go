package rendition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"hlsladder/internal/ladder"
	"hlsladder/internal/logging"
	"hlsladder/internal/services"
)

const (
	stderrTailBytes = 16 * 1024
	stderrTailLines = 8
)

// Executor abstracts command execution for testability. Implementations
// stream the process stderr into stderr and return the process error.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stderr io.Writer) error
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	return cmd.Run()
}

// Option configures the Transcoder.
type Option func(*Transcoder)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(t *Transcoder) {
		if exec != nil {
			t.exec = exec
		}
	}
}

// WithTimeout bounds each job. Zero disables the limit.
func WithTimeout(timeout time.Duration) Option {
	return func(t *Transcoder) {
		if timeout > 0 {
			t.timeout = timeout
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transcoder) {
		t.logger = logger
	}
}

// Transcoder runs one ffmpeg process per rung.
type Transcoder struct {
	binary  string
	timeout time.Duration
	exec    Executor
	logger  *slog.Logger
}

// New constructs a Transcoder. An empty binary defaults to "ffmpeg".
func New(binary string, opts ...Option) *Transcoder {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	t := &Transcoder{binary: binary, exec: commandExecutor{}}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.NewComponentLogger(t.logger, "rendition")
	return t
}

// Run produces a single rung. It never returns an error: every failure is
// folded into the JobResult so sibling jobs are unaffected.
func (t *Transcoder) Run(ctx context.Context, rung ladder.Rung, input string, layout ladder.Layout) JobResult {
	ctx = services.WithRung(ctx, string(rung.ID))
	logger := logging.WithContext(ctx, t.logger)
	start := time.Now()

	params := NewParams(rung, input, layout)
	command := append([]string{t.binary}, params.Args()...)
	result := JobResult{Rung: rung, ExitCode: -1, Command: command}

	dir := layout.RungDir(rung)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Outcome = Failure
		result.Detail = fmt.Sprintf("create rung directory: %v", err)
		result.Duration = time.Since(start)
		logging.WarnWithContext(logger, "rendition directory unavailable", "job_failed",
			logging.String("dir", dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check output directory permissions"),
			logging.String(logging.FieldImpact, "rung omitted from master manifest"),
		)
		return result
	}

	runCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	logger.Info("rendition started",
		logging.Event("job_started"),
		logging.String("command", shellquote.Join(command...)),
	)

	stderr := newTailBuffer(stderrTailBytes)
	err := t.exec.Run(runCtx, t.binary, params.Args(), stderr)
	result.Duration = time.Since(start)

	if err == nil {
		result.Outcome = Success
		result.ExitCode = 0
		result.OutputBytes = dirSize(dir)
		logger.Info("rendition completed",
			logging.Event("job_completed"),
			logging.Int("exit_code", 0),
			logging.Duration("duration", result.Duration),
		)
		return result
	}

	result.Outcome = Failure
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	}
	result.Detail = failureDetail(runCtx, err, stderr.Lines(stderrTailLines))
	logging.WarnWithContext(logger, "rendition failed", "job_failed",
		logging.Int("exit_code", result.ExitCode),
		logging.Duration("duration", result.Duration),
		logging.String("detail", result.Detail),
		logging.String(logging.FieldErrorHint, "inspect ffmpeg stderr for the failing rung"),
		logging.String(logging.FieldImpact, "rung omitted from master manifest"),
	)
	return result
}

func failureDetail(ctx context.Context, err error, tail string) string {
	var parts []string
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		parts = append(parts, "timed out")
	}
	parts = append(parts, err.Error())
	if tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ": ")
}

func dirSize(dir string) uint64 {
	var total uint64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, infoErr := d.Info(); infoErr == nil {
			total += uint64(info.Size())
		}
		return nil
	})
	return total
}
