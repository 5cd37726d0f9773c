package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/isobundle/pkg/bundler"
	"github.com/arthur-debert/isobundle/pkg/types"
	"github.com/arthur-debert/isobundle/pkg/watch"
)

func newWatchCmd(g *globals) *cobra.Command {
	var (
		nodeEnv  string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:               "watch [client|server|all]",
		Short:             MsgWatchShort,
		Long:              MsgWatchLong,
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
			overrides := make(map[types.BuildTarget]map[string]interface{}, len(targets))
			for _, target := range targets {
				if overrides[target], err = g.overrides(target); err != nil {
					return report(cmd, g, err)
				}
			}

			w, err := watch.New(watch.Options{
				Root:      root,
				Targets:   targets,
				Mode:      resolveMode(cmd, nodeEnv),
				Overrides: overrides,
				Debounce:  debounce,
				OnBuild: func(target types.BuildTarget, result *bundler.Result, err error) {
					if err != nil {
						_ = report(cmd, g, err)
						return
					}
					_ = renderer.RenderBuilds([]*bundler.Result{result})
				},
			})
			if err != nil {
				return report(cmd, g, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := w.Run(ctx); err != nil {
				return report(cmd, g, err)
			}
			if ctx.Err() == context.Canceled {
				_ = renderer.RenderMessage(MsgWatchStopped)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&nodeEnv, "node-env", "", MsgFlagNodeEnv)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, MsgFlagDebounce)
	return cmd
}
