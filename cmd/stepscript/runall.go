package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/v0xg/stepscript/internal/batch"
)

// outputPreview is how much of a script's output run-all echoes
const outputPreview = 200

func newRunAllCmd(a *app) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "run-all [dir]",
		Short: "Run every generated script in a directory and tally the results",
		Long: `Runs each script in dir (default: the configured output directory) with its
interpreter: python3 for .py, node for .js, go run for .go. Exits non-zero
when any script fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Script.OutputDir
			if len(args) == 1 {
				dir = args[0]
			}

			sum, err := batch.Run(cmd.Context(), dir, batch.Options{
				Fs:       a.fs,
				Executor: a.executor,
				Target:   target,
				Logger:   a.log,
			})
			if err != nil {
				return err
			}

			for _, res := range sum.Results {
				if res.OK() {
					a.log.Success(a.out, "%s", res.File)
				} else {
					a.log.Failure(a.out, "%s: %v", res.File, res.Err)
				}
				if res.Output != "" {
					fmt.Fprintf(a.out, "  %s\n", preview(res.Output))
				}
			}
			fmt.Fprintf(a.out, "%d passed, %d failed\n", sum.Passed, sum.Failed)

			if sum.Failed > 0 {
				return fmt.Errorf("%d of %d script(s) failed", sum.Failed, len(sum.Results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", "Only run scripts of this dialect")
	return cmd
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= outputPreview {
		return s
	}
	return string(runes[:outputPreview]) + "..."
}
