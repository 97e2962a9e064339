package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hlsladder/internal/config"
	"hlsladder/internal/history"
	"hlsladder/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded conversion runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						formatWhen(run.StartedAt),
						run.BaseName,
						strings.Join(run.Ladder, ","),
						fmt.Sprintf("%d/%d", run.Succeeded(), len(run.Rungs)),
						string(run.Status),
						formatDuration(run.Duration),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Started", "Name", "Ladder", "Rungs", "Status", "Elapsed"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list")

	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run and its per-rung results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					if errors.Is(err, history.ErrNotFound) {
						return services.Wrap(services.ErrValidation, "history", "show", err.Error(), nil)
					}
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:       %s\n", run.ID)
				fmt.Fprintf(out, "Status:    %s\n", run.Status)
				fmt.Fprintf(out, "Started:   %s (%s)\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), formatWhen(run.StartedAt))
				fmt.Fprintf(out, "Elapsed:   %s\n", formatDuration(run.Duration))
				fmt.Fprintf(out, "Input:     %s\n", run.InputPath)
				fmt.Fprintf(out, "Output:    %s\n", run.OutputRoot)
				if run.Width > 0 {
					fmt.Fprintf(out, "Source:    %dx%d @ %s\n", run.Width, run.Height, formatBitrate(run.BitRate))
				}
				if run.Decision != "" {
					fmt.Fprintf(out, "Decision:  %s\n", run.Decision)
				}
				if run.MasterPath != "" {
					fmt.Fprintf(out, "Master:    %s\n", run.MasterPath)
				}
				if run.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:     %s (%s)\n", run.ErrorMessage, run.ErrorClass)
				}
				if len(run.Rungs) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(run.Rungs))
				for _, rung := range run.Rungs {
					rows = append(rows, []string{
						rung.Rung,
						rung.Outcome,
						fmt.Sprintf("%d", rung.ExitCode),
						formatDuration(rung.Duration),
						formatSize(rung.OutputBytes),
						firstLine(rung.Detail),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Rung", "Outcome", "Exit", "Time", "Size", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := requireHistory(cfg); err != nil {
		return err
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func requireHistory(cfg *config.Config) error {
	if !cfg.History.Enabled {
		return services.Wrap(services.ErrConfiguration, "history", "", "run ledger disabled ([history].enabled = false)", nil)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
