package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"hlsladder/internal/history"
	"hlsladder/internal/ladder"
	"hlsladder/internal/logging"
	"hlsladder/internal/manifest"
	"hlsladder/internal/media/ffprobe"
	"hlsladder/internal/orchestrator"
	"hlsladder/internal/services"
)

// ErrRenditionsFailed is returned alongside a complete Report when the master
// manifest was written but at least one rung failed.
var ErrRenditionsFailed = errors.New("one or more renditions failed")

// Prober inspects a source. *ffprobe.Prober satisfies it.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.StreamInfo, error)
}

// Ledger records finished runs. *history.Store satisfies it.
type Ledger interface {
	RecordRun(ctx context.Context, run history.Run) error
}

// Request names the source and where its ladder is written.
type Request struct {
	Input      string
	OutputRoot string
	BaseName   string
}

// Report describes a finished run.
type Report struct {
	RunID      string
	Request    Request
	Info       ffprobe.StreamInfo
	Ladder     ladder.Ladder
	Decision   string
	Summary    orchestrator.Summary
	MasterPath string
	StartedAt  time.Time
	Duration   time.Duration
}

// Option configures the Runner.
type Option func(*Runner)

// WithLedger records every run that got a run ID.
func WithLedger(ledger Ledger) Option {
	return func(r *Runner) { r.ledger = ledger }
}

// WithProbeTimeout bounds the probe step. Zero disables the limit.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(r *Runner) { r.probeTimeout = timeout }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// Runner drives probe, decide, orchestrate and manifest for one request.
type Runner struct {
	prober       Prober
	orchestrator *orchestrator.Orchestrator
	ledger       Ledger
	probeTimeout time.Duration
	logger       *slog.Logger
	newID        func() string
	now          func() time.Time
}

// New constructs a Runner.
func New(prober Prober, orch *orchestrator.Orchestrator, opts ...Option) *Runner {
	r := &Runner{
		prober:       prober,
		orchestrator: orch,
		newID:        uuid.NewString,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "pipeline")
	return r
}

// Validate checks that every request field is present.
func (req Request) Validate() error {
	var missing []string
	if strings.TrimSpace(req.Input) == "" {
		missing = append(missing, "input")
	}
	if strings.TrimSpace(req.OutputRoot) == "" {
		missing = append(missing, "output directory")
	}
	if strings.TrimSpace(req.BaseName) == "" {
		missing = append(missing, "base filename")
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrValidation, "request", "validate", "missing "+strings.Join(missing, ", "), nil)
	}
	return nil
}

// Run converts req.Input into an HLS ladder. Fatal problems return an error
// and a partial Report. When only some rungs fail, the returned error is
// ErrRenditionsFailed and the Report is complete.
func (r *Runner) Run(ctx context.Context, req Request) (Report, error) {
	report := Report{Request: req, StartedAt: r.now()}
	if err := req.Validate(); err != nil {
		return report, err
	}
	layout, err := ladder.NewLayout(req.OutputRoot, req.BaseName)
	if err != nil {
		return report, err
	}
	report.MasterPath = layout.Master()

	if err := os.MkdirAll(layout.Root, 0o755); err != nil {
		return report, services.Wrap(services.ErrValidation, "request", "create output root", layout.Root, err)
	}

	lock := flock.New(layout.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return report, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return report, services.Wrap(services.ErrBusy, "request", "lock", fmt.Sprintf("another run is writing %s", layout.Master()), nil)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	report.RunID = r.newID()
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("conversion started",
		logging.Event("run_started"),
		logging.String("input", req.Input),
		logging.String("output_root", layout.Root),
		logging.String("base_name", layout.Base),
	)

	err = r.execute(ctx, logger, req.Input, layout, &report)
	report.Duration = r.now().Sub(report.StartedAt)

	r.record(context.WithoutCancel(ctx), logger, report, err)

	if err != nil && !errors.Is(err, ErrRenditionsFailed) {
		logger.Error("conversion failed",
			logging.Event("run_failed"),
			logging.Error(err),
			logging.String("error_class", services.Class(err)),
			logging.Duration("elapsed", report.Duration),
		)
		return report, err
	}

	logger.Info("conversion finished",
		logging.Event("run_completed"),
		logging.Int("succeeded", len(report.Summary.Succeeded())),
		logging.Int("failed", len(report.Summary.Failed())),
		logging.String("master", report.MasterPath),
		logging.Duration("elapsed", report.Duration),
	)
	return report, err
}

func (r *Runner) execute(ctx context.Context, logger *slog.Logger, input string, layout ladder.Layout, report *Report) error {
	probeCtx := logging.WithStage(ctx, "probe")
	if r.probeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(probeCtx, r.probeTimeout)
		defer cancel()
	}
	logging.WithContext(probeCtx, logger).Info("probing source", logging.Event("probe_started"))
	info, err := r.prober.Probe(probeCtx, input)
	if err != nil {
		return err
	}
	report.Info = info

	report.Ladder = ladder.Decide(info)
	report.Decision = ladder.Explain(info)
	logger.Info("ladder decided",
		logging.Event("ladder_decided"),
		logging.Int("width", info.Width),
		logging.Int("height", info.Height),
		logging.Int64("bit_rate", info.BitRateBps),
		logging.Strings("rungs", report.Ladder.Strings()),
		logging.String("reason", report.Decision),
	)

	report.Summary = r.orchestrator.Orchestrate(logging.WithStage(ctx, "transcode"), report.Ladder, input, layout)
	if err := ctx.Err(); err != nil {
		// Jobs were killed; the previous master manifest stays in place.
		return fmt.Errorf("conversion interrupted: %w", err)
	}

	succeeded := report.Summary.Succeeded()
	if err := manifest.Write(layout, succeeded); err != nil {
		return err
	}
	logger.Info("master manifest written",
		logging.Event("manifest_written"),
		logging.String("path", layout.Master()),
		logging.Int("variants", len(succeeded)),
	)

	if failed := report.Summary.Failed(); len(failed) > 0 {
		ids := make([]string, len(failed))
		for i, f := range failed {
			ids[i] = string(f.Rung.ID)
		}
		return fmt.Errorf("%w: %s", ErrRenditionsFailed, strings.Join(ids, ", "))
	}
	return nil
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, report Report, runErr error) {
	if r.ledger == nil {
		return
	}
	if err := r.ledger.RecordRun(ctx, HistoryRun(report, runErr)); err != nil {
		logging.WarnWithContext(logger, "run not recorded", "ledger_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check [history].path permissions"),
			logging.String(logging.FieldImpact, "run missing from hlsladder history"),
		)
	}
}

// HistoryRun converts a report into its ledger row.
func HistoryRun(report Report, runErr error) history.Run {
	run := history.Run{
		ID:         report.RunID,
		InputPath:  report.Request.Input,
		OutputRoot: report.Request.OutputRoot,
		BaseName:   report.Request.BaseName,
		Width:      report.Info.Width,
		Height:     report.Info.Height,
		BitRate:    report.Info.BitRateBps,
		Ladder:     report.Ladder.Strings(),
		Decision:   report.Decision,
		MasterPath: report.MasterPath,
		StartedAt:  report.StartedAt,
		Duration:   report.Duration,
	}
	for _, res := range report.Summary.Results {
		run.Rungs = append(run.Rungs, history.RungResult{
			Rung:        string(res.Rung.ID),
			Outcome:     res.Outcome.String(),
			ExitCode:    res.ExitCode,
			Detail:      res.Detail,
			Duration:    res.Duration,
			OutputBytes: res.OutputBytes,
		})
	}
	switch {
	case runErr == nil:
		run.Status = history.StatusSucceeded
	case errors.Is(runErr, ErrRenditionsFailed):
		run.Status = history.StatusPartial
		if len(report.Summary.Succeeded()) == 0 {
			run.Status = history.StatusFailed
		}
	default:
		run.Status = history.StatusFailed
		run.ErrorClass = services.Class(runErr)
		run.ErrorMessage = runErr.Error()
	}
	return run
}
