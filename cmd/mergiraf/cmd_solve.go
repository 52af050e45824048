package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mergiraf/mergiraf/pkg/cascade"
	"github.com/mergiraf/mergiraf/pkg/provider"
)

func newSolveCmd() *cobra.Command {
	var flags displayFlags
	var print bool
	var noGit bool

	cmd := &cobra.Command{
		Use:   "solve <file>",
		Short: "Resolve the conflicts in an already-merged file",
		Long: "Re-merge a file that still contains conflict markers: the markers are " +
			"parsed back into the three revisions (consulting git's index for the " +
			"staged copies when available) and the structured merge is attempted on " +
			"those. The file is rewritten in place unless --print is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			conflicted, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			display, overrides, err := flags.display(cmd)
			if err != nil {
				return err
			}

			logger := logrus.WithField("path", path)
			var prov provider.Provider
			if !noGit {
				prov = provider.NewGit("", logger)
			}

			result := cascade.Resolve(cmd.Context(), path, string(conflicted), prov, cascade.Options{
				Display: display,
				Timeout: flags.timeout,
				Profile: profileOverride(path, overrides),
				Logger:  logger,
			})

			if print {
				fmt.Fprint(cmd.OutOrStdout(), result.Contents)
			} else if err := os.WriteFile(path, []byte(result.Contents), 0o644); err != nil {
				return err
			}

			if result.ConflictCount > 0 {
				logrus.Warnf("%s still has %d conflicts (%s)", path, result.ConflictCount, result.Method)
				cmd.SilenceUsage = true
				cmd.SilenceErrors = true
				return errConflicts
			}
			logrus.Infof("solved all conflicts in %s (%s)", path, result.Method)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&print, "print", false, "print the result to stdout instead of rewriting the file")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "do not consult git for the staged revisions")
	return cmd
}
