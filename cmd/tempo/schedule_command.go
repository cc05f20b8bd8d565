package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tempo/internal/workflow"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on the configured interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			runner, history, err := ctx.newRunner(cmd.Context())
			if err != nil {
				return err
			}
			defer history.Close()

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			scheduler := workflow.New(cfg, runner.Run, logger)
			if err := scheduler.Start(signalCtx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Scheduling a run every %s; press Ctrl-C to stop\n",
				time.Duration(cfg.Workflow.ScheduleInterval)*time.Minute)

			<-signalCtx.Done()
			scheduler.Stop()
			fmt.Fprintln(cmd.OutOrStdout(), "Scheduler stopped")
			return nil
		},
	}
}
