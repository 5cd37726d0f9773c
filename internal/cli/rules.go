package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/isobundle/pkg/config"
	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/rules"
	"github.com/arthur-debert/isobundle/pkg/types"
)

func newRulesCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Short:   MsgRulesShort,
		GroupID: "core",
	}
	cmd.AddCommand(newExplainCmd(g))
	return cmd
}

func newExplainCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "explain <client|server> <path>",
		Short:   MsgExplainShort,
		Example: MsgExplainExample,
		Args:    cobra.ExactArgs(2),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return []string{string(types.TargetClient), string(types.TargetServer)}, cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveDefault
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := types.ParseTarget(args[0])
			if err != nil {
				return report(cmd, g, errors.Wrap(err, errors.ErrInvalidInput, "invalid target"))
			}
			root, err := g.projectRoot()
			if err != nil {
				return report(cmd, g, err)
			}
			overrides, err := g.overrides(target)
			if err != nil {
				return report(cmd, g, err)
			}
			cfg, err := config.Load(root, target, overrides)
			if err != nil {
				return report(cmd, g, err)
			}
			compiled, err := rules.Compile(target, cfg.Root, cfg.Rules)
			if err != nil {
				return report(cmd, g, err)
			}

			module := args[1]
			if !filepath.IsAbs(module) {
				module = filepath.Join(root, module)
			}
			trace, matched := rules.NewMatcher(compiled).Explain(types.NewModuleRef(module))

			renderer, err := g.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := renderer.RenderTrace(args[1], trace, matched); err != nil {
				return err
			}
			if matched != nil && !matched.Chain.Scope.Contains(module) {
				return renderer.RenderMessage(MsgScopeBypass)
			}
			return nil
		},
	}
}
