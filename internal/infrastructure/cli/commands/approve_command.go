package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbankscard/hookguard/internal/application/approval"
)

// NewApproveCommand classifies one command line and exits non-zero unless it
// is auto-approved.
func NewApproveCommand(rt *Runtime) *cobra.Command {
	var userApproved bool

	cmd := &cobra.Command{
		Use:   "approve -- <command...>",
		Short: "Classify a command and decide whether it may run without confirmation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.TrimSpace(strings.Join(args, " "))
			if command == "" {
				return errors.New(ErrCommandRequired)
			}
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			decision, err := container.Approval.Evaluate(approval.Request{
				Command:      command,
				Context:      rt.ExecContext(),
				UserApproved: userApproved,
			})
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), decision); err != nil {
				return err
			}
			if v := approval.Violation(decision); v != nil {
				return v
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&userApproved, "user-approved", false, "Record the command as approved by the user")
	return cmd
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
