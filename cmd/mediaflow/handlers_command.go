package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediaflow/internal/artifact"
	"mediaflow/internal/handler"
	"mediaflow/internal/logging"
	"mediaflow/internal/project"
)

func newHandlersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "handlers",
		Short: "List activity types and their commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry := project.DefaultRegistry()
			env := handler.Env{
				Store:   artifact.NewStore(),
				Logger:  logging.NewNop(),
				Config:  cfg,
				WorkDir: cfg.Paths.WorkDir,
			}

			rows := make([][]string, 0, len(registry.Types()))
			for _, typeName := range registry.Types() {
				factory, err := registry.Lookup(typeName)
				if err != nil {
					return err
				}
				family, err := factory(env)
				if err != nil {
					rows = append(rows, []string{typeName, "-", "unavailable: " + err.Error()})
					continue
				}
				rows = append(rows, []string{typeName, strings.Join(handler.CommandNames(family), "\n"), "ready"})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Type", "Commands", "Status"}, rows, nil))
			return nil
		},
	}
}
