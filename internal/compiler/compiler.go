package compiler

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/v0xg/stepscript/internal/action"
)

// ErrPersist is returned when the generated script cannot be written
var ErrPersist = errors.New("failed to persist script")

// Options configures a Compiler
type Options struct {
	Target    *Target          // Output dialect (default python)
	OutputDir string           // Directory the script is written to (default ".")
	Prefix    string           // Filename prefix (default "test")
	Headless  bool             // Launch the browser headless in the generated script
	Clock     func() time.Time // Source of the filename timestamp (default time.Now)
	Fs        afero.Fs         // Destination filesystem (default OS)
	Logger    logrus.FieldLogger
}

// Artifact is a generated script and where it was written
type Artifact struct {
	Name string
	Path string
	Text string
}

// Compiler turns action sequences into standalone automation scripts
type Compiler struct {
	opts Options
}

// New creates a compiler, filling in defaults for unset options
func New(opts Options) *Compiler {
	if opts.Target == nil {
		opts.Target = targets[DefaultTarget]
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.Prefix == "" {
		opts.Prefix = "test"
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	return &Compiler{opts: opts}
}

// Target returns the dialect this compiler emits
func (c *Compiler) Target() *Target {
	return c.opts.Target
}

// Compile renders the request, writes the script and returns it together
// with its report. The only error is a persistence failure (ErrPersist);
// malformed actions are recorded in the report instead.
func (c *Compiler) Compile(req *action.Request) (*Artifact, *Report, error) {
	text, report := Render(c.opts.Target, req, c.opts.Headless)

	name := FileName(c.opts.Prefix, c.opts.Clock(), c.opts.Target.Ext)
	path := name
	if c.opts.OutputDir != "." {
		path = filepath.Join(c.opts.OutputDir, name)
	}

	if err := c.opts.Fs.MkdirAll(c.opts.OutputDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrPersist, c.opts.OutputDir, err)
	}
	if err := afero.WriteFile(c.opts.Fs, path, []byte(text), 0o644); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrPersist, path, err)
	}

	report.ScriptFile = path
	c.opts.Logger.WithFields(logrus.Fields{
		"file":    path,
		"target":  c.opts.Target.Name,
		"actions": len(req.Actions),
		"status":  report.Status,
	}).Info("script generated")

	return &Artifact{Name: name, Path: path, Text: text}, report, nil
}

// FileName builds "<prefix>-<unixSeconds>.<ext>"
func FileName(prefix string, now time.Time, ext string) string {
	return fmt.Sprintf("%s-%d.%s", prefix, now.Unix(), ext)
}

// Render produces the script text and report for a request without any I/O.
// The report's ScriptFile is left empty.
func Render(t *Target, req *action.Request, headless bool) (string, *Report) {
	b := newBuilder(t.Indent)

	headlessLit := t.False
	if headless {
		headlessLit = t.True
	}
	header := strings.NewReplacer(
		phURL, t.Quote(req.URL),
		phHeadless, headlessLit,
	)
	skipBlank := false
	for _, line := range t.Header {
		if skipBlank && line == "" {
			skipBlank = false
			continue
		}
		if line == phImports {
			imports := t.imports(req.Actions)
			if len(imports) == 0 {
				skipBlank = true
			}
			for _, imp := range imports {
				b.add(1, nil, t.Quote(imp))
			}
			continue
		}
		b.add(0, header, line)
	}

	acc := reportAcc{steps: []string{"Navigate to " + req.URL}}
	for i, a := range req.Actions {
		if tmpl := t.statement(a.Kind()); tmpl != nil {
			b.add(t.Depth, actionReplacer(t, a), tmpl...)
		}
		acc = acc.add(i+1, a)
	}

	b.add(0, nil, t.Footer...)

	return b.String(), acc.report(len(req.Actions))
}
