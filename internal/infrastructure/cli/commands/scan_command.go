package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbankscard/hookguard/internal/application/report"
	"github.com/dbankscard/hookguard/internal/application/scan"
	"github.com/dbankscard/hookguard/internal/infrastructure/cli/helpers"
	"github.com/dbankscard/hookguard/internal/infrastructure/metrics"
	"github.com/dbankscard/hookguard/internal/infrastructure/sarif"
	"github.com/dbankscard/hookguard/internal/pkg/filesystem"
	"github.com/dbankscard/hookguard/internal/version"
)

// NewScanCommand scans files (default: the staged set) and fails on a policy
// violation.
func NewScanCommand(rt *Runtime) *cobra.Command {
	var (
		reportPath string
		noReport   bool
		sarifPath  string
		promPath   string
	)

	cmd := &cobra.Command{
		Use:   "scan [files...]",
		Short: "Scan files for secrets, vulnerable code, permissions and vulnerable dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			target := ""
			if !noReport {
				target = container.Paths.Report
				if reportPath != "" {
					target = filesystem.ExpandPath(reportPath, rt.Root)
				}
			}

			rep, err := container.Scan.Run(cmd.Context(), scan.Request{
				Files:      args,
				Root:       rt.Root,
				ReportPath: target,
			})
			if err != nil {
				return err
			}

			if err := writeJSON(cmd.OutOrStdout(), rep); err != nil {
				return err
			}
			helpers.NewPrinter(cmd.ErrOrStderr()).ScanSummary(rep, container.Config.Security.Threshold())

			if sarifPath != "" {
				if err := sarif.Write(filesystem.ExpandPath(sarifPath, rt.Root), rep.Findings, "hookguard", version.Version); err != nil {
					return err
				}
			}
			if promPath != "" {
				tf := metrics.NewTextfile()
				tf.ObserveReport(rep)
				if err := tf.Write(filesystem.ExpandPath(promPath, rt.Root)); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}

			if v := report.Violation(rep); v != nil {
				return v
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Persisted report path (default .claude/security-report.json)")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "Do not persist the report")
	cmd.Flags().StringVar(&sarifPath, "sarif", "", "Also write findings as SARIF 2.1.0")
	cmd.Flags().StringVar(&promPath, "prometheus", "", "Also write scan gauges as a Prometheus textfile")
	return cmd
}
