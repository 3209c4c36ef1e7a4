package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/v0xg/stepscript/internal/action"
)

// ErrUnsupported is returned for actions whose kind the runner cannot perform
var ErrUnsupported = errors.New("unsupported action type")

// snapshotLimit is how much page content a snapshot step reports
const snapshotLimit = 200

// Driver performs single actions on a live page
type Driver interface {
	Click(ctx context.Context, locator string) error
	Fill(ctx context.Context, locator, value string) error
	Screenshot(ctx context.Context, path string) error
	Text(ctx context.Context, locator string) (string, error)
	Count(ctx context.Context, locator string) (int, error)
	HTML(ctx context.Context) (string, error)
}

// Recorder receives every action that ran successfully
type Recorder interface {
	Add(a action.Action) error
}

// RunOptions configures a Runner
type RunOptions struct {
	Retries    int           // Attempts per action (default 3)
	RetryDelay time.Duration // Pause between attempts (default 500ms)
	Recorder   Recorder      // Optional
	Logger     logrus.FieldLogger

	sleep func(ctx context.Context, d time.Duration) error
}

// StepResult is the outcome of one action
type StepResult struct {
	Action   action.Action `json:"action"`
	Attempts int           `json:"attempts"`
	Output   string        `json:"output,omitempty"`
	Err      error         `json:"-"`
}

// OK reports whether the action succeeded
func (r StepResult) OK() bool {
	return r.Err == nil
}

// Runner executes actions against a Driver, retrying failures and
// recording what succeeded.
type Runner struct {
	driver Driver
	opts   RunOptions
}

// NewRunner creates a runner
func NewRunner(driver Driver, opts RunOptions) *Runner {
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = 500 * time.Millisecond
	}
	if opts.sleep == nil {
		opts.sleep = sleepCtx
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Runner{driver: driver, opts: opts}
}

// Run executes every action in order. A failed action does not stop the
// sequence; cancellation of ctx does.
func (r *Runner) Run(ctx context.Context, actions []action.Action) ([]StepResult, error) {
	results := make([]StepResult, 0, len(actions))
	for i, a := range actions {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := r.runOne(ctx, a)
		log := r.opts.Logger.WithFields(logrus.Fields{
			"step":     i + 1,
			"type":     a.Type,
			"selector": a.Selector,
			"attempts": res.Attempts,
		})
		if res.Err != nil {
			log.WithError(res.Err).Warn("action failed")
		} else {
			log.Debug("action done")
			if r.opts.Recorder != nil {
				if err := r.opts.Recorder.Add(a); err != nil {
					return results, fmt.Errorf("record step %d: %w", i+1, err)
				}
			}
		}
		results = append(results, res)
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, a action.Action) StepResult {
	res := StepResult{Action: a}
	if a.Kind() == action.KindUnsupported {
		res.Err = fmt.Errorf("%w: %s", ErrUnsupported, a.Type)
		return res
	}

	for attempt := 1; attempt <= r.opts.Retries; attempt++ {
		res.Attempts = attempt
		res.Output, res.Err = r.perform(ctx, a)
		if res.Err == nil || errors.Is(res.Err, errNoRetry) {
			break
		}
		if attempt < r.opts.Retries {
			if err := r.opts.sleep(ctx, r.opts.RetryDelay); err != nil {
				res.Err = err
				break
			}
		}
	}
	return res
}

// errNoRetry marks failures that another attempt cannot fix
var errNoRetry = errors.New("not retryable")

func (r *Runner) perform(ctx context.Context, a action.Action) (string, error) {
	d := r.driver
	switch a.Kind() {
	case action.KindClick:
		return "", d.Click(ctx, a.Selector)
	case action.KindFill:
		return "", d.Fill(ctx, a.Selector, a.Value)
	case action.KindWait:
		ms, err := strconv.Atoi(strings.TrimSpace(a.Value))
		if err != nil {
			return "", fmt.Errorf("%w: wait value %q is not a number of milliseconds", errNoRetry, a.Value)
		}
		return "", r.opts.sleep(ctx, time.Duration(ms)*time.Millisecond)
	case action.KindScreenshot:
		return a.Value, d.Screenshot(ctx, a.Value)
	case action.KindReadText:
		text, err := d.Text(ctx, a.Selector)
		return "Text: " + text, err
	case action.KindEnumerateElements:
		n, err := d.Count(ctx, a.Selector)
		return fmt.Sprintf("Found %d element(s)", n), err
	case action.KindSnapshot:
		html, err := d.HTML(ctx)
		return "Page snapshot: " + truncate(html, snapshotLimit) + "...", err
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, a.Type)
	}
}

// truncate keeps the first n characters of s
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
