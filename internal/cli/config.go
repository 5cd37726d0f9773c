package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/isobundle/pkg/config"
	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/types"
)

func newConfigCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		GroupID: "core",
	}
	cmd.AddCommand(newConfigPrintCmd(g))
	cmd.AddCommand(newConfigInitCmd(g))
	return cmd
}

func newConfigPrintCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:               "print <client|server>",
		Short:             MsgConfigPrint,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: targetCompletion,
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
			content, err := config.Marshal(cfg)
			if err != nil {
				return report(cmd, g, err)
			}
			_, err = cmd.OutOrStdout().Write(content)
			return err
		},
	}
}

func newConfigInitCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: MsgConfigInit,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := g.projectRoot()
			if err != nil {
				return report(cmd, g, err)
			}
			if existing := config.FindProjectFile(root); existing != "" {
				return report(cmd, g, errors.Newf(errors.ErrInvalidInput, MsgErrConfigExists, filepath.Base(existing)).
					WithDetail(errors.DetailPath, existing))
			}

			sections := make([]string, 0, len(types.AllTargets))
			for _, target := range types.AllTargets {
				sections = append(sections, config.GenerateConfigContent(target))
			}
			path := filepath.Join(root, config.ProjectFiles[0])
			content := strings.Join(sections, "\n")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return report(cmd, g, errors.Wrapf(err, errors.ErrOutputWrite, "cannot write %s", path).
					WithDetail(errors.DetailPath, path))
			}

			renderer, err := g.renderer(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return renderer.RenderMessage(fmt.Sprintf(MsgConfigWritten, path))
		},
	}
}
