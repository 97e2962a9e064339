package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hlsladder/internal/deps"
	"hlsladder/internal/preflight"
	"hlsladder/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			color := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cfg)
			checks := preflight.RunAll(cfg)

			rows := make([][]string, 0, len(statuses)+len(checks))
			for _, status := range statuses {
				rows = append(rows, []string{status.Name, checkLabel(status.Available, status.Optional, color), status.Command, emptyDash(status.Detail)})
			}
			for _, check := range checks {
				rows = append(rows, []string{check.Name, checkLabel(check.Passed, false, color), "", check.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Command", "Detail"}, rows, nil))
			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
			}

			missing := deps.MissingRequired(statuses)
			failed := 0
			for _, check := range checks {
				if !check.Passed {
					failed++
				}
			}
			if len(missing) > 0 || failed > 0 {
				return services.Wrap(services.ErrConfiguration, "doctor", "",
					fmt.Sprintf("%d required tool(s) missing, %d directory check(s) failed", len(missing), failed), nil)
			}
			return nil
		},
	}
}

func checkLabel(ok, optional, color bool) string {
	switch {
	case ok:
		return colorize("OK", ansiGreen, color)
	case optional:
		return colorize("WARN", ansiYellow, color)
	default:
		return colorize("MISSING", ansiRed, color)
	}
}

func emptyDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
