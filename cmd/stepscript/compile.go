package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/v0xg/stepscript/internal/action"
)

func newCompileCmd(a *app) *cobra.Command {
	var (
		opts    scriptOptions
		url     string
		asJSON  bool
		actions string
	)

	cmd := &cobra.Command{
		Use:   "compile [request-file]",
		Short: "Compile a request blob into a script",
		Long: `Reads a request blob {"url": ..., "actions": [...]} from a file, or from stdin
when no file (or "-") is given, writes the generated script and prints its
report. Lenient JSON (single quotes, trailing commas) is accepted.

Use --actions-file with --url to compile a bare action array instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req *action.Request
			if actions != "" {
				text, err := a.readInput(actions)
				if err != nil {
					return err
				}
				list, err := action.DecodeActions(text)
				if err != nil {
					return err
				}
				if list == nil {
					list = []action.Action{}
				}
				req = &action.Request{URL: url, Actions: list}
			} else {
				src := "-"
				if len(args) == 1 {
					src = args[0]
				}
				text, err := a.readInput(src)
				if err != nil {
					return err
				}
				if req, err = action.Decode(text); err != nil {
					return err
				}
				if url != "" {
					req.URL = url
				}
			}

			c, err := a.compiler(cmd, opts)
			if err != nil {
				return err
			}
			_, report, err := c.Compile(req)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			a.printReport(report)
			return nil
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVarP(&url, "url", "u", "", "Page URL (overrides the blob's url)")
	cmd.Flags().StringVarP(&actions, "actions-file", "f", "", `File holding a bare action array ("-" for stdin)`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

// readInput reads a file, or stdin for "-"
func (a *app) readInput(src string) (string, error) {
	if src == "-" {
		data, err := io.ReadAll(a.in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := afero.ReadFile(a.fs, src)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", src, err)
	}
	return string(data), nil
}
