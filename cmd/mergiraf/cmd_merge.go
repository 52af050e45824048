package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mergiraf/mergiraf/pkg/cascade"
)

func newMergeCmd() *cobra.Command {
	var flags displayFlags
	var output string
	var pathHint string

	cmd := &cobra.Command{
		Use:   "merge <base> <left> <right>",
		Short: "Merge three revisions of a file",
		Long: "Merge three complete revisions of a file, writing the result to stdout " +
			"(or --output). Invoked as a git merge driver with %O %A %B, pass " +
			"--output %A and --path %P so the merged contents land back in the " +
			"worktree under the right language.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			left, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			right, err := os.ReadFile(args[2])
			if err != nil {
				return err
			}

			display, overrides, err := flags.display(cmd)
			if err != nil {
				return err
			}
			path := pathHint
			if path == "" {
				path = args[0]
			}

			result := cascade.Merge(cmd.Context(), path, string(base), string(left), string(right), cascade.Options{
				Display: display,
				Timeout: flags.timeout,
				Profile: profileOverride(path, overrides),
				Logger:  logrus.WithField("path", path),
			})

			if output != "" {
				if err := os.WriteFile(output, []byte(result.Contents), 0o644); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), result.Contents)
			}

			if result.ConflictCount > 0 {
				logrus.Warnf("merged %s with %d conflicts (%s)", path, result.ConflictCount, result.Method)
				cmd.SilenceUsage = true
				cmd.SilenceErrors = true
				return errConflicts
			}
			logrus.Debugf("merged %s cleanly (%s)", path, result.Method)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the merged result to this file instead of stdout")
	cmd.Flags().StringVarP(&pathHint, "path", "p", "", "filename used for language detection (defaults to the base path)")
	return cmd
}
