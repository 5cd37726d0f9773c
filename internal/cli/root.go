// Package cli implements the isobundle command tree
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/isobundle/internal/version"
	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/logging"
	"github.com/arthur-debert/isobundle/pkg/types"
	"github.com/arthur-debert/isobundle/pkg/ui"
)

// globals are the persistent flags shared by every command
type globals struct {
	verbosity int
	root      string
	format    string
	sets      []string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:     "isobundle",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.String(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(g.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().CountVarP(&g.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&g.root, "root", ".", MsgFlagRoot)
	rootCmd.PersistentFlags().StringVar(&g.format, "format", "auto", MsgFlagFormat)
	rootCmd.PersistentFlags().StringArrayVar(&g.sets, "set", nil, MsgFlagSet)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	rootCmd.AddCommand(newBuildCmd(g))
	rootCmd.AddCommand(newWatchCmd(g))
	rootCmd.AddCommand(newRulesCmd(g))
	rootCmd.AddCommand(newConfigCmd(g))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// projectRoot returns the absolute --root
func (g *globals) projectRoot() (string, error) {
	root, err := filepath.Abs(g.root)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "invalid root %s", g.root)
	}
	return root, nil
}

func (g *globals) renderer(w io.Writer) (*ui.Renderer, error) {
	format, err := ui.ParseFormat(g.format)
	if err != nil {
		return nil, err
	}
	return ui.NewRenderer(format, w), nil
}

// overrides returns the --set values that apply to target. A key prefixed
// with a target name applies to that target only.
func (g *globals) overrides(target types.BuildTarget) (map[string]interface{}, error) {
	if len(g.sets) == 0 {
		return nil, nil
	}
	out := make(map[string]interface{})
	for _, set := range g.sets {
		key, value, ok := strings.Cut(set, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.Newf(errors.ErrInvalidInput, "invalid --set %q, expected key=value", set)
		}
		if prefix, rest, found := strings.Cut(key, "."); found {
			if t, err := types.ParseTarget(prefix); err == nil {
				if t != target {
					continue
				}
				key = rest
			}
		}
		out[key] = value
	}
	return out, nil
}

// parseTargets expands a target argument, "all" being client then server
func parseTargets(args []string) ([]types.BuildTarget, error) {
	if len(args) == 0 || args[0] == "all" {
		return types.AllTargets, nil
	}
	t, err := types.ParseTarget(args[0])
	if err != nil {
		return nil, errors.Newf(errors.ErrInvalidInput, MsgErrTargetArg, args[0])
	}
	return []types.BuildTarget{t}, nil
}

func targetCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"all", string(types.TargetClient), string(types.TargetServer)}, cobra.ShellCompDirectiveNoFileComp
}

// report renders err on stderr and returns it for the exit status
func report(cmd *cobra.Command, g *globals, err error) error {
	if r, rerr := g.renderer(cmd.ErrOrStderr()); rerr == nil {
		_ = r.RenderError(err)
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date, version.Bundler())
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
