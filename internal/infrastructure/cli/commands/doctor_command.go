package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbankscard/hookguard/internal/domain"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose policy files, state and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctorDiagnostics(cmd, rt)
		},
	}
}

// runDoctorDiagnostics runs environment diagnostics
func runDoctorDiagnostics(cmd *cobra.Command, rt *Runtime) error {
	container, err := rt.Container(cmd.Context())
	if err != nil {
		return err
	}
	if container.Doctor == nil {
		return fmt.Errorf("doctor service unavailable")
	}

	report, err := container.Doctor.Run(cmd.Context())

	// Display report even if there were errors
	displayDoctorReport(cmd.OutOrStdout(), report)

	if err != nil {
		return fmt.Errorf("diagnostics completed with errors: %w", err)
	}
	if report.Failed() {
		return fmt.Errorf("diagnostics reported failures")
	}
	return nil
}

// displayDoctorReport displays the health check report
func displayDoctorReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s - %s\n",
			strings.ToUpper(string(check.Status)),
			check.Name,
			check.Details)
	}
}
