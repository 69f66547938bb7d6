// Package cli implements the wheeltag command-line interface.
//
// The main command is addplat, which adds platform tags to the filename and
// WHEEL manifest of one or more wheels. The CLI is built using cobra and logs
// through charmbracelet/log.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// attached to the command's context.Context and retrieved with
// loggerFromContext.
//
// # Configuration
//
// Defaults for addplat flags are read from a TOML file, see
// [github.com/matzehuels/wheeltag/internal/config]. Flags given on the
// command line always win.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/wheeltag/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "wheeltag adds platform tags to Python wheels",
		Long: `wheeltag declares that a binary wheel is compatible with additional platforms
by adding platform tags to its filename and to the Tag lines of its WHEEL
manifest.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := LogInfo
			if c.verbose {
				level = LogDebug
			}
			c.SetLogLevel(level)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/wheeltag/config.toml)")

	root.AddCommand(c.addplatCommand())
	root.AddCommand(c.completionCommand())

	return root
}
