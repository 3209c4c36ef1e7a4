package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/v0xg/stepscript/internal/action"
	"github.com/v0xg/stepscript/internal/planner"
)

func newPlanCmd(a *app) *cobra.Command {
	var (
		browserOpts browserOptions
		scriptOpts  scriptOptions
		provider    string
		model       string
		baseURL     string
		compile     bool
		run         bool
	)
	cmd := &cobra.Command{
		Use:   "plan <url> <prompt>",
		Short: "Ask an LLM for the actions that fulfil a request",
		Long: `Crawls url, sends the page map and prompt to the configured LLM and prints
the resulting request blob. With --run the actions are also executed and
recorded; with --compile a script is generated from them.

Example:
  stepscript plan "https://example.com" "search for golang and take a screenshot" --compile`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, prompt := args[0], args[1]
			pc := a.cfg.Planner
			if provider != "" {
				pc.Provider = provider
			}
			if model != "" {
				pc.Model = model
			}
			if baseURL != "" {
				pc.BaseURL = baseURL
			}

			p, err := planner.NewProvider(pc.Provider, planner.Options{Model: pc.Model, BaseURL: pc.BaseURL})
			if err != nil {
				return fmt.Errorf("planner init failed: %w", err)
			}

			b, err := a.launch(url, browserOpts)
			if err != nil {
				return err
			}
			defer b.Close()

			ctx := cmd.Context()
			a.log.Progress(a.errOut, "Crawling %s... ", url)
			pageMap, err := b.Crawl(ctx)
			if err != nil {
				fmt.Fprintln(a.errOut, "failed")
				return fmt.Errorf("crawl failed: %w", err)
			}
			fmt.Fprintf(a.errOut, "done (found %d interactive elements)\n", len(pageMap.Elements))

			a.log.Progress(a.errOut, "Generating actions via %s... ", pc.Provider)
			actions, err := p.GenerateActions(ctx, pageMap, prompt)
			if err != nil {
				fmt.Fprintln(a.errOut, "failed")
				return fmt.Errorf("action generation failed: %w", err)
			}
			fmt.Fprintf(a.errOut, "done (%d actions)\n", len(actions))

			req := &action.Request{URL: url, Actions: actions}
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(req); err != nil {
				return err
			}

			if run {
				store := a.store()
				if err := store.SetURL(url); err != nil {
					return err
				}
				if err := a.execute(ctx, b, store, actions, browserOpts); err != nil {
					return err
				}
			}

			if compile {
				c, err := a.compiler(cmd, scriptOpts)
				if err != nil {
					return err
				}
				_, report, err := c.Compile(req)
				if err != nil {
					return err
				}
				a.printReport(report)
			}
			return nil
		},
	}
	browserOpts.bind(cmd)
	scriptOpts.bind(cmd)
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider: claude, openai (default from config)")
	cmd.Flags().StringVar(&model, "model", "", "Specific model override")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API endpoint override (e.g. a local OpenAI-compatible server)")
	cmd.Flags().BoolVar(&compile, "compile", false, "Compile the planned actions into a script")
	cmd.Flags().BoolVar(&run, "run", false, "Execute and record the planned actions")
	return cmd
}
