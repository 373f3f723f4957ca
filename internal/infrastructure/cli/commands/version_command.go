package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbankscard/hookguard/internal/version"
)

// NewVersionCommand creates the version command. It needs no container, so
// it works even when the policy files are broken.
func NewVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show hookguard build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			line := "hookguard version " + info.Version
			if info.Commit != "" {
				line += " (" + shortCommit(info.Commit) + ")"
			}
			fmt.Fprintln(out, line)
			if info.BuildDate != "" {
				fmt.Fprintf(out, "built %s with %s\n", info.BuildDate, info.GoVersion)
			} else {
				fmt.Fprintf(out, "built with %s\n", info.GoVersion)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as JSON")
	return cmd
}

func shortCommit(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
