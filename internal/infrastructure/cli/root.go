package cli

import (
	"github.com/spf13/cobra"

	"github.com/dbankscard/hookguard/internal/infrastructure/cli/commands"
	"github.com/dbankscard/hookguard/internal/ports"
)

// Options holds CLI-level configuration.
type Options struct {
	Logger ports.Logger
}

// NewRootCmd wires the cobra root command. The returned runtime owns the
// lazily built container and must be closed by the caller.
func NewRootCmd(opts Options) (*cobra.Command, *commands.Runtime) {
	rt := commands.NewRuntime(opts.Logger)

	root := &cobra.Command{
		Use:   "hookguard",
		Short: "hookguard - approval, scanning and reviewer automation hooks",
		Long: "hookguard classifies shell commands before they run, scans changed files for " +
			"secrets and vulnerable code, and recommends reviewers for recent changes.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rt.BindFlags(root)

	root.AddCommand(
		commands.NewApproveCommand(rt),
		commands.NewScanCommand(rt),
		commands.NewTriggersCommand(rt),
		commands.NewStatsCommand(rt),
		commands.NewAuditCommand(rt),
		commands.NewRulesCommand(rt),
		commands.NewDoctorCommand(rt),
		commands.NewVersionCommand(),
	)
	return root, rt
}
