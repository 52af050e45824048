package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mergiraf/mergiraf/pkg/lang"
	"github.com/mergiraf/mergiraf/pkg/settings"
)

// errConflicts signals that the merge completed but left conflicts in the
// output, reported through the exit code the way git merge drivers expect.
var errConflicts = errors.New("merge completed with conflicts")

func main() {
	var verbose bool

	root := &cobra.Command{
		Use:   "mergiraf",
		Short: "Syntax-aware three-way merge driver powered by tree-sitter",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logrus.SetOutput(os.Stderr)
			logrus.SetLevel(logrus.WarnLevel)
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log cascade decisions")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newMergeCmd())
	root.AddCommand(newSolveCmd())
	root.AddCommand(newLanguagesCmd())

	if err := root.Execute(); err != nil {
		if !errors.Is(err, errConflicts) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("mergiraf 0.1.0-dev")
		},
	}
}

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages structured merging supports",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, p := range lang.All() {
				fmt.Fprintf(out, "%s:", p.Name)
				for _, ext := range p.Extensions {
					fmt.Fprintf(out, " .%s", ext)
				}
				for _, name := range p.SpecialFilenames {
					fmt.Fprintf(out, " %s", name)
				}
				fmt.Fprintln(out)
			}
		},
	}
}

// displayFlags bundles the display-settings flags shared by merge and
// solve, overlaid on top of whatever a .mergiraf.toml config pinned.
type displayFlags struct {
	configPath string
	markerSize uint8
	diff3      bool
	compact    bool
	leftLabel  string
	baseLabel  string
	rightLabel string
	timeout    time.Duration
}

func (f *displayFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", ".mergiraf.toml", "config file to read display settings from")
	cmd.Flags().Uint8Var(&f.markerSize, "marker-size", 0, "conflict marker length (default 7)")
	cmd.Flags().BoolVar(&f.diff3, "diff3", false, "include the base section in conflict markers")
	cmd.Flags().BoolVar(&f.compact, "compact", false, "minimize stable context around conflicts")
	cmd.Flags().StringVar(&f.leftLabel, "left-label", "", "label for the left side of conflict markers")
	cmd.Flags().StringVar(&f.baseLabel, "base-label", "", "label for the base section of conflict markers")
	cmd.Flags().StringVar(&f.rightLabel, "right-label", "", "label for the right side of conflict markers")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "deadline for structured merging (0 = unbounded)")
}

// display resolves the effective settings: config-file values first, then
// explicit flags on top. It also returns the config's per-extension
// language override table.
func (f *displayFlags) display(cmd *cobra.Command) (settings.Display, map[string]string, error) {
	d, overrides, err := settings.LoadDisplay(f.configPath)
	if err != nil {
		return d, nil, fmt.Errorf("read config %s: %w", f.configPath, err)
	}
	if cmd.Flags().Changed("marker-size") {
		d.ConflictMarkerSize = f.markerSize
	}
	if cmd.Flags().Changed("diff3") {
		d.Diff3 = f.diff3
	}
	if cmd.Flags().Changed("compact") {
		d.Compact = f.compact
	}
	if f.leftLabel != "" {
		d.LeftRevisionName = f.leftLabel
	}
	if f.baseLabel != "" {
		d.BaseRevisionName = f.baseLabel
	}
	if f.rightLabel != "" {
		d.RightRevisionName = f.rightLabel
	}
	return d, overrides, nil
}

// profileOverride maps path through the config's languages table, returning
// a pinned profile or nil when detection should run normally.
func profileOverride(path string, overrides map[string]string) *lang.Profile {
	if len(overrides) == 0 {
		return nil
	}
	for ext, name := range overrides {
		if hasExtension(path, ext) {
			if p, ok := lang.ByName(name); ok {
				return p
			}
		}
	}
	return nil
}

func hasExtension(path, ext string) bool {
	for len(ext) > 0 && ext[0] == '.' {
		ext = ext[1:]
	}
	n := len(path) - len(ext)
	return n > 0 && path[n-1] == '.' && path[n:] == ext
}
