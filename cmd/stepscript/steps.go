package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
	"github.com/v0xg/stepscript/internal/action"
)

func newStepsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Manage recorded steps",
	}
	cmd.AddCommand(
		newStepsListCmd(a),
		newStepsAddCmd(a),
		newStepsClearCmd(a),
		newStepsGenerateCmd(a),
	)
	return cmd
}

func newStepsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the recorded steps as a request blob",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(a.store().Request())
		},
	}
}

func newStepsAddCmd(a *app) *cobra.Command {
	var step action.Action
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record one step (type navigate sets the page URL)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if step.Type == "" {
				return errors.New("--type is required")
			}
			store := a.store()
			if err := store.Add(step); err != nil {
				return err
			}
			a.log.Success(a.out, "Recorded %s (%d step(s))", step.Type, len(store.Steps()))
			return nil
		},
	}
	cmd.Flags().StringVar(&step.Type, "type", "", "Action type")
	cmd.Flags().StringVar(&step.Selector, "selector", "", "Element locator")
	cmd.Flags().StringVar(&step.Value, "value", "", "Action value")
	return cmd
}

func newStepsClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard all recorded steps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store().Clear(); err != nil {
				return err
			}
			a.log.Success(a.out, "Cleared recorded steps")
			return nil
		},
	}
}

func newStepsGenerateCmd(a *app) *cobra.Command {
	var (
		opts scriptOptions
		keep bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Compile the recorded steps into a script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.store()
			c, err := a.compiler(cmd, opts)
			if err != nil {
				return err
			}
			_, report, err := c.Compile(store.Request())
			if err != nil {
				return err
			}
			a.printReport(report)
			if keep {
				return nil
			}
			return store.Clear()
		},
	}
	opts.bind(cmd)
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the recorded steps after generating")
	return cmd
}
