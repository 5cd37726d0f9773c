package cli

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/isobundle/pkg/buildmode"
	"github.com/arthur-debert/isobundle/pkg/bundler"
	"github.com/arthur-debert/isobundle/pkg/metrics"
	"github.com/arthur-debert/isobundle/pkg/types"
	"github.com/arthur-debert/isobundle/pkg/ui"
)

func newBuildCmd(g *globals) *cobra.Command {
	var (
		nodeEnv     string
		metricsFile string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:               "build [client|server|all]",
		Short:             MsgBuildShort,
		Long:              MsgBuildLong,
		Example:           MsgBuildExample,
		GroupID:           "core",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: targetCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := parseTargets(args)
			if err != nil {
				return report(cmd, g, err)
			}
			root, err := g.projectRoot()
			if err != nil {
				return report(cmd, g, err)
			}
			renderer, err := g.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			mode := resolveMode(cmd, nodeEnv)
			var m *metrics.Metrics
			if metricsFile != "" {
				m = metrics.New()
			}

			log.Info().Str("root", root).Str("mode", string(mode)).Bool("dry_run", dryRun).Msg("Building")

			var results []*bundler.Result
			var buildErr error
			// a dry run of client then server hands the unwritten page on
			staged := map[string][]byte{}
			for _, target := range targets {
				overrides, err := g.overrides(target)
				if err != nil {
					return report(cmd, g, err)
				}
				result, err := bundler.Build(cmd.Context(), bundler.Options{
					Root:      root,
					Target:    target,
					Mode:      mode,
					Overrides: overrides,
					Metrics:   m,
					DryRun:    dryRun,
					Staged:    staged,
				})
				if err != nil {
					buildErr = err
					break
				}
				for path, content := range result.Staged() {
					staged[path] = content
				}
				results = append(results, result)
			}

			if len(results) > 0 {
				if err := renderer.RenderBuilds(results); err != nil {
					return err
				}
			}
			if m != nil {
				if err := m.WriteTextfile(metricsFile); err != nil {
					return report(cmd, g, err)
				}
				log.Info().Str("path", metricsFile).Msg("Wrote build statistics")
			}
			if buildErr != nil {
				return report(cmd, g, buildErr)
			}
			if dryRun && renderer.Format() != ui.FormatJSON {
				_ = renderer.RenderMessage(MsgDryRunNotice)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&nodeEnv, "node-env", "", MsgFlagNodeEnv)
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", MsgFlagMetricsFile)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, MsgFlagDryRun)
	return cmd
}

// resolveMode reads the mode signal once, the flag winning over NODE_ENV
func resolveMode(cmd *cobra.Command, nodeEnv string) types.BuildMode {
	if cmd.Flags().Changed("node-env") {
		return buildmode.Resolve(nodeEnv)
	}
	return buildmode.FromLookup(os.LookupEnv)
}
