package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline once",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, history, err := ctx.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer history.Close()

			result, runErr := runner.Run(cmd.Context())
			if result != nil {
				fmt.Fprint(cmd.OutOrStdout(), result.Summary())
			}
			return runErr
		},
	}
}
