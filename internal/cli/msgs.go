package cli

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "A dual-target bundler for isomorphic JavaScript applications"
	MsgVersionShort    = "Print version information"
	MsgBuildShort      = "Build the client and/or server bundle"
	MsgWatchShort      = "Rebuild on source changes"
	MsgRulesShort      = "Inspect the module rules of a target"
	MsgExplainShort    = "Show which rule matches a module and why"
	MsgConfigShort     = "Inspect and create configuration"
	MsgConfigPrint     = "Print the effective configuration of a target as TOML"
	MsgConfigInit      = "Write a commented-out isobundle.toml with every default"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgDryRunNotice  = "DRY RUN MODE - nothing was written"
	MsgConfigWritten = "Wrote %s"
	MsgWatchStopped  = "Stopped watching"
	MsgVersionFormat = "isobundle version %s\n  commit:  %s\n  built:   %s\n  esbuild: %s\n"
	MsgScopeBypass   = "The module is outside the rule's include/exclude scope and is loaded unchanged"

	// Error messages
	MsgErrTargetArg    = "unknown target %q (expected client, server or all)"
	MsgErrConfigExists = "%s already exists, not overwriting"

	// Flag descriptions
	MsgFlagVerbose     = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagRoot        = "Project root directory"
	MsgFlagFormat      = "Output format: auto, term, text or json"
	MsgFlagDryRun      = "Build without writing any artifact"
	MsgFlagNodeEnv     = "Build mode signal, overrides NODE_ENV"
	MsgFlagMetricsFile = "Write build statistics in Prometheus text format to this file"
	MsgFlagSet         = "Override a configuration key, like client.assets.inline_limit=0 (repeatable)"
	MsgFlagDebounce    = "How long to wait for more changes before rebuilding"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/build-long.txt
	msgBuildLongRaw string
	MsgBuildLong    = strings.TrimSpace(msgBuildLongRaw)

	//go:embed msgs/build-example.txt
	msgBuildExampleRaw string
	MsgBuildExample    = strings.TrimSpace(msgBuildExampleRaw)

	//go:embed msgs/watch-long.txt
	msgWatchLongRaw string
	MsgWatchLong    = strings.TrimSpace(msgWatchLongRaw)

	//go:embed msgs/explain-example.txt
	msgExplainExampleRaw string
	MsgExplainExample    = strings.TrimSpace(msgExplainExampleRaw)
)
