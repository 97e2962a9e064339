package main

import (
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"hlsladder/internal/config"
	"hlsladder/internal/deps"
	"hlsladder/internal/history"
	"hlsladder/internal/logging"
	"hlsladder/internal/media/ffprobe"
	"hlsladder/internal/orchestrator"
	"hlsladder/internal/pipeline"
	"hlsladder/internal/preflight"
	"hlsladder/internal/rendition"
	"hlsladder/internal/services"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var req pipeline.Request

	cmd := &cobra.Command{
		Use:   "convert -i <input_file> -o <output_directory> -f <name_of_files>",
		Short: "Probe a source and write its HLS ladder and master manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := checkConvertPreflight(cfg, req.OutputRoot); err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			runner, closeLedger := buildRunner(cfg, logger)
			defer closeLedger()

			report, runErr := runner.Run(runCtx, req)
			if report.RunID != "" && report.Ladder != nil {
				printConvertReport(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&req.Input, "input", "i", "", "Source video file")
	cmd.Flags().StringVarP(&req.OutputRoot, "output", "o", "", "Directory receiving the rung directories and master manifest")
	cmd.Flags().StringVarP(&req.BaseName, "filename", "f", "", "Base name for the master manifest, rung directories and segments")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("filename")

	return cmd
}

func checkConvertPreflight(cfg *config.Config, outputRoot string) error {
	if missing := deps.MissingRequired(preflight.CheckSystemDeps(cfg)); len(missing) > 0 {
		details := make([]string, len(missing))
		for i, status := range missing {
			details[i] = fmt.Sprintf("%s: %s", status.Name, status.Detail)
		}
		return services.Wrap(services.ErrConfiguration, "preflight", "binaries", strings.Join(details, "; "), nil)
	}
	if strings.TrimSpace(outputRoot) != "" {
		if result := preflight.CheckOutputRoot(outputRoot); !result.Passed {
			return services.Wrap(services.ErrValidation, "preflight", result.Name, result.Detail, nil)
		}
	}
	return nil
}

func buildRunner(cfg *config.Config, logger *slog.Logger) (*pipeline.Runner, func()) {
	prober := ffprobe.New(cfg.FFprobeBinary())
	transcoder := rendition.New(cfg.FFmpegBinary(),
		rendition.WithTimeout(cfg.JobTimeout()),
		rendition.WithLogger(logger),
	)
	orch := orchestrator.New(transcoder, cfg.Transcode.Workers, logger)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithProbeTimeout(cfg.ProbeTimeout()),
	}
	closeLedger := func() {}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logging.WarnWithContext(logger, "run ledger unavailable", "ledger_unavailable",
				logging.Error(err),
				logging.String("path", cfg.History.Path),
				logging.String(logging.FieldErrorHint, "check [history].path or set enabled = false"),
				logging.String(logging.FieldImpact, "this run will not appear in hlsladder history"),
			)
		} else {
			opts = append(opts, pipeline.WithLedger(store))
			closeLedger = func() { _ = store.Close() }
		}
	}
	return pipeline.New(prober, orch, opts...), closeLedger
}

func printConvertReport(out io.Writer, report pipeline.Report, color bool) {
	fmt.Fprintf(out, "Run:      %s\n", report.RunID)
	fmt.Fprintf(out, "Source:   %dx%d @ %s\n", report.Info.Width, report.Info.Height, formatBitrate(report.Info.BitRateBps))
	fmt.Fprintf(out, "Ladder:   %s\n", strings.Join(report.Ladder.Strings(), ", "))

	rows := make([][]string, 0, len(report.Summary.Results))
	for _, res := range report.Summary.Results {
		status := colorize("ok", ansiGreen, color)
		if !res.Succeeded() {
			status = colorize("failed", ansiRed, color)
		}
		rows = append(rows, []string{
			string(res.Rung.ID),
			status,
			fmt.Sprintf("%d", res.ExitCode),
			formatDuration(res.Duration),
			formatSize(res.OutputBytes),
			formatBitrate(int64(res.Rung.Bandwidth)),
			firstLine(res.Detail),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Rung", "Status", "Exit", "Time", "Size", "Bandwidth", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))

	succeeded, total := len(report.Summary.Succeeded()), len(report.Summary.Results)
	summary := fmt.Sprintf("%d/%d renditions succeeded in %s", succeeded, total, formatDuration(report.Duration))
	switch {
	case succeeded == total:
		summary = colorize(summary, ansiGreen, color)
	case succeeded > 0:
		summary = colorize(summary, ansiYellow, color)
	default:
		summary = colorize(summary, ansiRed, color)
	}
	fmt.Fprintln(out, summary)
	fmt.Fprintf(out, "Master:   %s\n", report.MasterPath)
}
