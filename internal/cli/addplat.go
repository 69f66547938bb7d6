package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/wheeltag/internal/config"
	"github.com/matzehuels/wheeltag/pkg/pipeline"
	"github.com/matzehuels/wheeltag/pkg/tags"
)

// addplatFlags holds the flag values of the addplat command.
type addplatFlags struct {
	platTags     []string
	osxVers      []string
	dualArch     string
	wheelDir     string
	clobber      bool
	rmOrig       bool
	skipErrors   bool
	updateRecord bool
	report       string
}

// addplatCommand creates the addplat command for adding platform tags.
func (c *CLI) addplatCommand() *cobra.Command {
	var flags addplatFlags

	cmd := &cobra.Command{
		Use:   "addplat WHEEL [WHEEL...]",
		Short: "Add platform tags to wheel filenames and WHEEL manifests",
		Long: `Add platform tags to the filename and WHEEL manifest of each wheel.

A wheel built for one platform can be declared compatible with others: every
requested tag is added to the platform part of the filename, and a Tag line is
added to the manifest for each python/abi pair already listed. Tags that are
already present are left alone. A wheel that already carries every requested
tag is not rewritten.

Unless --wheel-dir is given, results are written next to the input wheel.
With --wheel-dir every input is written there, including wheels that already
carry the tags, so a repeated run needs --clobber to replace its own output.`,
		Example: `  # Add intel and x86_64 tags for macOS 10.9
  wheeltag addplat -x 10_9 dist/pkg-1.0-cp39-cp39-macosx_10_9_x86_64.whl

  # Add an explicit tag, write to another directory, remove the input
  wheeltag addplat -p manylinux1_x86_64 -w fixed -r dist/*.whl

  # Keep going past broken wheels and record what happened
  wheeltag addplat -x 11_0 -d universal2 -k --report report.yaml dist/*.whl`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := flags.options(cmd, cfg, args)
			opts.Logger = loggerFromContext(cmd.Context())
			return c.runAddplat(cmd, opts, flags.report)
		},
	}

	flags.register(cmd.Flags())
	_ = cmd.RegisterFlagCompletionFunc("dual-arch-type", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{tags.DualArchIntel, tags.DualArchUniversal2}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.MarkFlagDirname("wheel-dir")

	return cmd
}

func (f *addplatFlags) register(fs *pflag.FlagSet) {
	fs.StringArrayVarP(&f.platTags, "plat-tag", "p", nil, "platform tag to add (repeatable)")
	fs.StringArrayVarP(&f.osxVers, "osx-ver", "x", nil, "macOS version such as 10_9; adds macosx_VER_{dual} and macosx_VER_x86_64 (repeatable)")
	fs.StringVarP(&f.dualArch, "dual-arch-type", "d", tags.DefaultDualArch, "dual architecture for --osx-ver: intel or universal2")
	fs.StringVarP(&f.wheelDir, "wheel-dir", "w", "", "directory to write wheels to (default: next to each input); existing outputs need --clobber")
	fs.BoolVarP(&f.clobber, "clobber", "c", false, "overwrite existing output wheels")
	fs.BoolVarP(&f.rmOrig, "rm-orig", "r", false, "remove the input wheel when a new one was written elsewhere")
	fs.BoolVarP(&f.skipErrors, "skip-errors", "k", false, "skip wheels that cannot be modified instead of failing")
	fs.BoolVar(&f.updateRecord, "update-record", false, "also refresh the WHEEL row of RECORD")
	fs.StringVar(&f.report, "report", "", "write a run report (.json, or .yaml/.yml)")
}

// options merges flags with config defaults. Flags set on the command line
// take precedence.
func (f *addplatFlags) options(cmd *cobra.Command, cfg *config.Config, wheels []string) pipeline.Options {
	set := cmd.Flags().Changed
	opts := pipeline.Options{
		Wheels:       wheels,
		PlatTags:     f.platTags,
		OSXVersions:  f.osxVers,
		DualArch:     f.dualArch,
		WheelDir:     f.wheelDir,
		Clobber:      f.clobber,
		RmOrig:       f.rmOrig,
		SkipErrors:   f.skipErrors,
		UpdateRecord: f.updateRecord,
	}
	if !set("plat-tag") && len(cfg.PlatTags) > 0 {
		opts.PlatTags = cfg.PlatTags
	}
	if !set("dual-arch-type") && cfg.DualArchType != "" {
		opts.DualArch = cfg.DualArchType
	}
	if !set("wheel-dir") && cfg.WheelDir != "" {
		opts.WheelDir = cfg.WheelDir
	}
	if !set("clobber") {
		opts.Clobber = opts.Clobber || cfg.Clobber
	}
	if !set("rm-orig") {
		opts.RmOrig = opts.RmOrig || cfg.RmOrig
	}
	if !set("skip-errors") {
		opts.SkipErrors = opts.SkipErrors || cfg.SkipErrors
	}
	if !set("update-record") {
		opts.UpdateRecord = opts.UpdateRecord || cfg.UpdateRecord
	}
	return opts
}

func (c *CLI) runAddplat(cmd *cobra.Command, opts pipeline.Options, reportPath string) error {
	prog := newProgress(opts.Logger)

	result, runErr := c.newRunner().Run(cmd.Context(), opts)
	if result != nil {
		c.printResult(result)
		prog.done(fmt.Sprintf("processed %d wheels", len(result.Entries)))

		if reportPath != "" {
			if err := result.WriteReport(reportPath); err != nil {
				if runErr != nil {
					return runErr
				}
				return err
			}
			printFile(c.Out, reportPath)
		}
	}
	return runErr
}

func (c *CLI) printResult(result *pipeline.Result) {
	tagList := StyleTag.Render(strings.Join(result.Tags, ", "))
	for _, e := range result.Entries {
		switch e.Status {
		case pipeline.StatusWritten:
			printSuccess(c.Out, "Wrote %s", e.Output)
			if e.RemovedOriginal {
				printInfo(c.Out, "Removed %s", e.Wheel)
			}
		case pipeline.StatusUnchanged:
			printInfo(c.Out, "%s already has tags %s", e.Wheel, tagList)
		case pipeline.StatusSkipped:
			printWarning(c.Out, "Cannot modify %s because %s", e.Wheel, e.Error)
		}
	}
	if len(result.Entries) > 1 {
		printSummary(c.Out,
			result.Count(pipeline.StatusWritten),
			result.Count(pipeline.StatusUnchanged),
			result.Count(pipeline.StatusSkipped))
	}
}
