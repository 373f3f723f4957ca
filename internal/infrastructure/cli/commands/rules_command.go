package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dbankscard/hookguard/internal/domain"
	"github.com/dbankscard/hookguard/internal/infrastructure/cli/helpers"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand(rt *Runtime) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the loaded rule store",
	}
	rulesCmd.AddCommand(newRulesListCommand(rt))
	return rulesCmd
}

func newRulesListCommand(rt *Runtime) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules, optionally restricted to one category",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := domain.RuleCategory(category)
			if category != "" && !slices.Contains(domain.RuleCategories, cat) {
				return fmt.Errorf(ErrUnknownCategory, category)
			}
			container, err := rt.Container(cmd.Context())
			if err != nil {
				return err
			}
			var rules []domain.Rule
			for _, c := range domain.RuleCategories {
				if category == "" || c == cat {
					rules = append(rules, container.Rules.AllRules(c)...)
				}
			}
			if len(rules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), MsgNoRules)
				return nil
			}
			helpers.NewPrinter(cmd.OutOrStdout()).Rules(rules)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "safe, dangerous, custom, secret or vulnerability")
	return cmd
}
