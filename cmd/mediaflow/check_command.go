package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediaflow/internal/deps"
	"mediaflow/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var services bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check external tools, directories, and services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			failures := 0

			statuses := preflight.CheckSystemDeps(cfg)
			toolRows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				detail := status.Detail
				if status.Available {
					detail = status.Command
				}
				toolRows = append(toolRows, []string{status.Name, statusLabel(status.Available, status.Optional), yesNo(status.Optional), detail})
			}
			failures += len(deps.MissingRequired(statuses))
			fmt.Fprintln(out, renderTable([]string{"Tool", "Status", "Optional", "Detail"}, toolRows, nil))

			results := preflight.RunAll(cmd.Context(), cfg)
			results = append(results, preflight.CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
			for _, result := range results {
				if !result.Passed {
					failures++
				}
			}
			if services {
				results = append(results, preflight.CheckDiffusion(cmd.Context(), cfg.Diffusion.BaseURL))
				if llm := cfg.TranslationLLM(); strings.TrimSpace(llm.APIKey) != "" {
					results = append(results, preflight.CheckLLM(cmd.Context(), "Translation LLM", llm))
				}
			}
			checkRows := make([][]string, 0, len(results))
			for _, result := range results {
				checkRows = append(checkRows, []string{result.Name, statusLabel(result.Passed, false), result.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, checkRows, nil))

			if failures > 0 {
				return errors.New("required checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&services, "services", false, "Also probe the diffusion and LLM APIs (informational)")
	return cmd
}

func statusLabel(ok, optional bool) string {
	switch {
	case ok:
		return "ok"
	case optional:
		return "missing"
	default:
		return "FAIL"
	}
}
