package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dbankscard/hookguard/internal/infrastructure/cli/helpers"
	"github.com/dbankscard/hookguard/internal/pkg/filesystem"
	"github.com/dbankscard/hookguard/internal/ports"
)

// NewAuditCommand creates the audit command with all subcommands
func NewAuditCommand(rt *Runtime) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the command audit log",
	}

	auditCmd.AddCommand(
		newAuditListCommand(rt),
		newAuditSearchCommand(rt),
		newAuditExportCommand(rt),
	)

	return auditCmd
}

func newAuditListCommand(rt *Runtime) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audit entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.New(ErrInvalidAuditSize)
			}
			sink, err := auditSink(cmd, rt)
			if err != nil {
				return err
			}
			return listAuditEntries(cmd.OutOrStdout(), sink, limit, "")
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultAuditLimit, "Max entries to show (0 for all)")
	return cmd
}

func newAuditSearchCommand(rt *Runtime) *cobra.Command {
	var (
		query string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the audit log by command, reason or user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if query == "" {
				return errors.New(ErrQueryRequired)
			}
			if limit < 0 {
				return errors.New(ErrInvalidAuditSize)
			}
			sink, err := auditSink(cmd, rt)
			if err != nil {
				return err
			}
			return listAuditEntries(cmd.OutOrStdout(), sink, limit, query)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Search keyword")
	cmd.Flags().IntVar(&limit, "limit", DefaultAuditSearchLimit, "Limit search results (0 for all)")
	return cmd
}

func newAuditExportCommand(rt *Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Export the audit log to a JSONL file, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sink, err := auditSink(cmd, rt)
			if err != nil {
				return err
			}
			dest := filesystem.ExpandPath(args[0], rt.Root)
			if err := sink.ExportJSON(dest); err != nil {
				return fmt.Errorf("failed to export audit log to %s: %w", dest, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported audit log to %s\n", dest)
			return nil
		},
	}
}

func auditSink(cmd *cobra.Command, rt *Runtime) (ports.AuditSink, error) {
	container, err := rt.Container(cmd.Context())
	if err != nil {
		return nil, err
	}
	if container.Audit == nil {
		return nil, errors.New("audit log unavailable")
	}
	return container.Audit, nil
}

func listAuditEntries(out io.Writer, sink ports.AuditSink, limit int, query string) error {
	entries, err := sink.Entries(limit, query)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, MsgNoAuditEntries)
		return nil
	}
	helpers.NewPrinter(out).AuditEntries(entries)
	return nil
}
