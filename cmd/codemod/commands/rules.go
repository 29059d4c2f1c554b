package commands

import (
	"fmt"
	"slices"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/codemod/cmd/codemod/opts"
	"github.com/walteh/codemod/pkg/rules"
	"gitlab.com/tozd/go/errors"
)

// NewRulesCmd creates a command listing every resolvable rule
func NewRulesCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List available rules",
		Long: `Rules lists the compiled-in rules followed by the declarative rules
found in the rules directory. Rules run by default are marked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := opts.LoadConfig(ctx)
			if err != nil {
				return errors.Errorf("loading config: %w", err)
			}

			names, err := rules.Default(cfg.RulesDir).Names()
			if err != nil {
				return errors.Errorf("listing rules: %w", err)
			}

			items := make([]pterm.BulletListItem, 0, len(names))
			for _, name := range names {
				text := name
				if slices.Contains(rules.Builtin, name) {
					text += pterm.Gray(" (default)")
				}
				items = append(items, pterm.BulletListItem{Level: 0, Text: text})
			}

			list, err := pterm.DefaultBulletList.WithItems(items).Srender()
			if err != nil {
				return errors.Errorf("rendering rules: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), list)
			return err
		},
	}

	return cmd
}
