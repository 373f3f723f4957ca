package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dbankscard/hookguard/internal/application/triggers"
	"github.com/dbankscard/hookguard/internal/infrastructure/cli/helpers"
)

// NewTriggersCommand selects reviewers for the latest change set.
func NewTriggersCommand(rt *Runtime) *cobra.Command {
	var (
		testReport  string
		performance string
		noQueue     bool
	)

	cmd := &cobra.Command{
		Use:   "triggers [files...]",
		Short: "Recommend and queue reviewers for the most recent changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			req := triggers.Request{
				Files:           args,
				Root:            rt.Root,
				TestReport:      testReport,
				PerformanceFile: container.Paths.Performance,
				CI:              rt.CI,
				OutputPath:      container.Paths.Output,
				PendingPath:     container.Paths.Pending,
			}
			if performance != "" {
				req.PerformanceFile = performance
			}
			if noQueue {
				req.PendingPath = ""
			}

			analysis, err := container.Triggers.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), analysis); err != nil {
				return err
			}
			helpers.NewPrinter(cmd.ErrOrStderr()).TriggerSummary(analysis, time.Now())
			return nil
		},
	}

	cmd.Flags().StringVar(&testReport, "test-report", "", "JUnit XML report to read test failures from")
	cmd.Flags().StringVar(&performance, "performance", "", "Performance metrics file (default .claude/metrics/performance.json)")
	cmd.Flags().BoolVar(&noQueue, "no-queue", false, "Do not append commands to the pending commands file")
	return cmd
}
