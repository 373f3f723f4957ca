package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbankscard/hookguard/internal/infrastructure/cli/helpers"
	"github.com/dbankscard/hookguard/internal/infrastructure/metrics"
	"github.com/dbankscard/hookguard/internal/pkg/filesystem"
)

// NewStatsCommand reports the persisted approval counters.
func NewStatsCommand(rt *Runtime) *cobra.Command {
	var (
		asJSON   bool
		promPath string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show approval statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := container.Stats.Load()
			if err != nil {
				return fmt.Errorf("failed to load statistics: %w", err)
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), stats); err != nil {
					return err
				}
			} else {
				helpers.NewPrinter(cmd.OutOrStdout()).Statistics(stats)
			}

			if promPath != "" {
				tf := metrics.NewTextfile()
				tf.ObserveStatistics(stats)
				if err := tf.Write(filesystem.ExpandPath(promPath, rt.Root)); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw statistics object")
	cmd.Flags().StringVar(&promPath, "prometheus", "", "Also write the counters as a Prometheus textfile")
	return cmd
}
