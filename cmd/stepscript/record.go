package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/v0xg/stepscript/internal/action"
	"github.com/v0xg/stepscript/internal/browser"
	"github.com/v0xg/stepscript/internal/steps"
)

// browserOptions are the per-invocation overrides of the browser config
type browserOptions struct {
	headed  bool
	profile string
	retries int
}

func (o *browserOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.headed, "headed", false, "Show the browser window")
	cmd.Flags().StringVar(&o.profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	cmd.Flags().IntVar(&o.retries, "retries", 0, "Attempts per action (default from config)")
}

func (a *app) launch(url string, o browserOptions) (*browser.Browser, error) {
	bc := a.cfg.Browser
	if o.headed {
		bc.Headless = false
	}
	if o.profile != "" {
		bc.ProfileDir = o.profile
	}
	a.log.Progress(a.errOut, "Launching browser for %s... ", url)
	b, err := browser.Launch(url, browser.Options{
		Width:      bc.Width,
		Height:     bc.Height,
		Headless:   bc.Headless,
		ProfileDir: bc.ProfileDir,
		Timeout:    bc.Timeout,
		Fs:         a.fs,
	})
	if err != nil {
		fmt.Fprintln(a.errOut, "failed")
		return nil, fmt.Errorf("launch failed: %w", err)
	}
	fmt.Fprintln(a.errOut, "done")
	return b, nil
}

// execute runs actions live, recording each success into store, and prints
// one line per action
func (a *app) execute(ctx context.Context, b *browser.Browser, store *steps.Store, actions []action.Action, o browserOptions) error {
	retries := a.cfg.Browser.Retries
	if o.retries > 0 {
		retries = o.retries
	}
	runner := browser.NewRunner(b, browser.RunOptions{
		Retries:  retries,
		Recorder: store,
		Logger:   a.log,
	})

	results, err := runner.Run(ctx, actions)
	failed := 0
	for i, res := range results {
		switch {
		case !res.OK():
			failed++
			a.log.Failure(a.out, "[%d] %s %s: %v", i+1, res.Action.Type, res.Action.Selector, res.Err)
		case res.Output != "":
			a.log.Success(a.out, "[%d] %s %s: %s", i+1, res.Action.Type, res.Action.Selector, res.Output)
		default:
			a.log.Success(a.out, "[%d] %s %s", i+1, res.Action.Type, res.Action.Selector)
		}
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		a.log.Alert(a.out, "%d of %d action(s) failed and were not recorded", failed, len(actions))
	}
	return nil
}

func newRecordCmd(a *app) *cobra.Command {
	var (
		opts        browserOptions
		actionsFile string
		fresh       bool
	)
	cmd := &cobra.Command{
		Use:   "record <url>",
		Short: "Run actions in a live browser and record the ones that succeed",
		Long: `Opens url in Chromium, performs each action (retrying failures), appends every
successful action to the steps file and prints the resulting page map.
Compile the recording afterwards with "stepscript steps generate".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]

			var actions []action.Action
			if actionsFile != "" {
				text, err := a.readInput(actionsFile)
				if err != nil {
					return err
				}
				if actions, err = action.DecodeActions(text); err != nil {
					return err
				}
			}

			store := a.store()
			if fresh {
				if err := store.Clear(); err != nil {
					return err
				}
			}
			if err := store.SetURL(url); err != nil {
				return err
			}

			b, err := a.launch(url, opts)
			if err != nil {
				return err
			}
			defer b.Close()

			ctx := cmd.Context()
			if err := a.execute(ctx, b, store, actions, opts); err != nil {
				return err
			}

			pageMap, err := b.Crawl(ctx)
			if err != nil {
				return fmt.Errorf("crawl failed: %w", err)
			}
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(pageMap)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVarP(&actionsFile, "actions-file", "f", "", `File holding the action array ("-" for stdin)`)
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Clear previously recorded steps first")
	return cmd
}
