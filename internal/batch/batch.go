// Package batch runs every generated script in a directory with its
// interpreter and tallies which ones passed.
package batch

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/v0xg/stepscript/internal/compiler"
)

// Executor runs one command line and returns its combined output
type Executor interface {
	Execute(ctx context.Context, argv []string) (string, error)
}

// ExecExecutor runs commands as child processes
type ExecExecutor struct{}

// Execute implements Executor
func (ExecExecutor) Execute(ctx context.Context, argv []string) (string, error) {
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	return string(out), err
}

// Options configures Run
type Options struct {
	Fs       afero.Fs // Where the directory is listed (default OS)
	Executor Executor // Default ExecExecutor
	Target   string   // Only run scripts of this target ("" for all)
	Logger   logrus.FieldLogger
}

// Result is the outcome of one script
type Result struct {
	File   string `json:"file"`
	Target string `json:"target"`
	Output string `json:"output"`
	Err    error  `json:"-"`
}

// OK reports whether the script exited cleanly
func (r Result) OK() bool {
	return r.Err == nil
}

// Summary tallies a batch run, in file name order
type Summary struct {
	Results []Result `json:"results"`
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
}

// Run executes every script in dir whose extension belongs to a known
// target. Script failures are tallied; only listing errors and
// cancellation are returned.
func Run(ctx context.Context, dir string, opts Options) (*Summary, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Executor == nil {
		opts.Executor = ExecExecutor{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	var only *compiler.Target
	if opts.Target != "" {
		t, err := compiler.LookupTarget(opts.Target)
		if err != nil {
			return nil, err
		}
		only = t
	}

	entries, err := afero.ReadDir(opts.Fs, dir)
	if err != nil {
		return nil, fmt.Errorf("list scripts in %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	sum := &Summary{Results: []Result{}}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		t, ok := compiler.TargetForExt(filepath.Ext(e.Name()))
		if !ok || (only != nil && t != only) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		path := filepath.Join(dir, e.Name())
		argv := append(append([]string{}, t.Command...), path)
		out, err := opts.Executor.Execute(ctx, argv)

		res := Result{File: path, Target: t.Name, Output: out, Err: err}
		log := opts.Logger.WithFields(logrus.Fields{"file": path, "target": t.Name})
		if err != nil {
			sum.Failed++
			log.WithError(err).Warn("script failed")
		} else {
			sum.Passed++
			log.Debug("script passed")
		}
		sum.Results = append(sum.Results, res)
	}
	return sum, nil
}
