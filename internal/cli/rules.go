package cli

import (
	"github.com/spf13/cobra"

	"preflight/internal/config"
	"preflight/internal/console"
	"preflight/internal/preflight"
)

// NewRulesCommand lists the rules the engine evaluates.
func NewRulesCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the preflight rules",
		Long: `List every rule with its category and what it checks, in display order.
Categories disabled through PREFLIGHT_DISABLED_RULES are hidden unless --all is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := config.LoadRules()
			if err != nil {
				return err
			}
			rules := append([]preflight.Rule{preflight.CameraRule()}, preflight.DefaultRuleSet(opts.Rules).Rules()...)
			set := preflight.NewRuleSet(rules...)
			if !all {
				set = set.Without(opts.Disabled...)
			}
			console.NewRenderer(cmd.OutOrStdout(), false).Rules(set.Rules())
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include disabled categories")
	return cmd
}
