package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediaflow/internal/logging"
	"mediaflow/internal/project"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <project>",
		Short: "Check a project's pipelines, types, and commands without running them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			manager, err := project.NewManager(cfg, project.DefaultRegistry(), logging.NewNop())
			if err != nil {
				return err
			}
			issues, err := manager.Validate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintln(out, "Project valid")
				return nil
			}
			for _, issue := range issues {
				label := "error"
				if issue.Warning {
					label = "warning"
				}
				fmt.Fprintf(out, "%s: %s\n", label, issue)
			}
			if errs := project.Errors(issues); len(errs) > 0 {
				return fmt.Errorf("project has %d error(s)", len(errs))
			}
			fmt.Fprintln(out, "Project valid (with warnings)")
			return nil
		},
	}
}
