package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/v0xg/stepscript/internal/batch"
	"github.com/v0xg/stepscript/internal/compiler"
	"github.com/v0xg/stepscript/internal/config"
	"github.com/v0xg/stepscript/internal/logger"
	"github.com/v0xg/stepscript/internal/steps"
)

// app carries what every command needs; tests swap the fields
type app struct {
	cfg *config.Config
	log *logger.Logger

	fs       afero.Fs
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	clock    func() time.Time
	executor batch.Executor

	configPath string
	verbose    bool
}

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	a := &app{
		fs:       afero.NewOsFs(),
		in:       os.Stdin,
		out:      os.Stdout,
		errOut:   os.Stderr,
		clock:    time.Now,
		executor: batch.ExecExecutor{},
	}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stepscript",
		Short: "Compile browser action sequences into standalone automation scripts",
		Long: `stepscript turns an ordered list of browser actions (click, fill, wait,
screenshot, text, get_elements, snapshot) into a runnable Playwright script
and a step-by-step report of what the script will do.

Example:
  echo '{"url":"https://example.com","actions":[{"type":"click","selector":"#go"}]}' | stepscript compile`,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Close()
			}
		},
	}
	rootCmd.SetIn(a.in)
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default ./stepscript.yaml or ~/.stepscript/stepscript.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Show debug logs")

	rootCmd.AddCommand(
		newCompileCmd(a),
		newStepsCmd(a),
		newRecordCmd(a),
		newPlanCmd(a),
		newServeCmd(a),
		newRunAllCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// setup loads configuration and the logger once per invocation
func (a *app) setup() error {
	if a.cfg == nil {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.log == nil {
		level := a.cfg.Logging.Level
		if a.verbose {
			level = "debug"
		}
		l, err := logger.New(logger.Options{Level: level, File: a.cfg.Logging.File, Out: a.errOut})
		if err != nil {
			return err
		}
		a.log = l
	}
	return nil
}

// scriptOptions are the per-invocation overrides of the script config
type scriptOptions struct {
	target   string
	outDir   string
	prefix   string
	headless bool
}

func (o *scriptOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.target, "target", "t", "", fmt.Sprintf("Script dialect: %v (default from config)", compiler.TargetNames()))
	cmd.Flags().StringVarP(&o.outDir, "out-dir", "o", "", "Directory the script is written to (default from config)")
	cmd.Flags().StringVar(&o.prefix, "prefix", "", "Script filename prefix (default from config)")
	cmd.Flags().BoolVar(&o.headless, "headless", false, "Launch the browser headless in the generated script")
}

// compiler builds a compiler from config, with flags taking precedence
func (a *app) compiler(cmd *cobra.Command, o scriptOptions) (*compiler.Compiler, error) {
	sc := a.cfg.Script
	if o.target != "" {
		sc.Target = o.target
	}
	if o.outDir != "" {
		sc.OutputDir = o.outDir
	}
	if o.prefix != "" {
		sc.Prefix = o.prefix
	}
	if cmd.Flags().Changed("headless") {
		sc.Headless = o.headless
	}
	return a.compilerFor(sc)
}

func (a *app) compilerFor(sc config.ScriptConfig) (*compiler.Compiler, error) {
	t, err := compiler.LookupTarget(sc.Target)
	if err != nil {
		return nil, err
	}
	return compiler.New(compiler.Options{
		Target:    t,
		OutputDir: sc.OutputDir,
		Prefix:    sc.Prefix,
		Headless:  sc.Headless,
		Clock:     a.clock,
		Fs:        a.fs,
		Logger:    a.log,
	}), nil
}

func (a *app) store() *steps.Store {
	return steps.Open(a.fs, a.cfg.Steps.File, a.log)
}

// printReport writes the human-readable form of a report
func (a *app) printReport(r *compiler.Report) {
	for _, line := range r.Steps {
		fmt.Fprintf(a.out, "  %s\n", line)
	}
	for _, s := range r.Screenshots {
		fmt.Fprintf(a.out, "  screenshot: %s\n", s)
	}
	if r.Status == compiler.StatusError {
		a.log.Alert(a.out, "%s (some steps are unsupported)", r.Message)
	} else {
		a.log.Success(a.out, "%s", r.Message)
	}
	a.log.Success(a.out, "Saved to %s", r.ScriptFile)
}
