package compiler

import (
	"fmt"

	"github.com/v0xg/stepscript/internal/action"
)

// Status is the overall outcome recorded in a Report
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Report describes what the compiled script does, step by step, without
// running it. Field names follow the tool-result wire format.
type Report struct {
	Status       Status   `json:"status"`
	Message      string   `json:"message"`
	Steps        []string `json:"test_steps"`
	PageElements []string `json:"page_elements"`
	Screenshots  []string `json:"screenshots"`
	ScriptFile   string   `json:"generated_script_file"`
}

// describe renders the report line for the action at 1-based position n
func describe(n int, a action.Action) string {
	switch a.Kind() {
	case action.KindClick:
		return fmt.Sprintf("Step %d: click element '%s'", n, a.Selector)
	case action.KindFill:
		return fmt.Sprintf("Step %d: fill '%s' with '%s'", n, a.Selector, a.Value)
	case action.KindWait:
		return fmt.Sprintf("Step %d: wait %s ms", n, a.Value)
	case action.KindScreenshot:
		return fmt.Sprintf("Step %d: screenshot to '%s'", n, a.Value)
	case action.KindReadText:
		return fmt.Sprintf("Step %d: read text of '%s'", n, a.Selector)
	case action.KindEnumerateElements:
		return fmt.Sprintf("Step %d: enumerate elements matching '%s'", n, a.Selector)
	case action.KindSnapshot:
		return fmt.Sprintf("Step %d: capture page snapshot", n)
	default:
		return fmt.Sprintf("Step %d: unsupported action type '%s'", n, a.Type)
	}
}

// reportAcc is folded over the action list. failed is sticky.
type reportAcc struct {
	steps       []string
	screenshots []string
	failed      bool
}

func (acc reportAcc) add(n int, a action.Action) reportAcc {
	acc.steps = append(acc.steps, describe(n, a))
	switch a.Kind() {
	case action.KindScreenshot:
		acc.screenshots = append(acc.screenshots, a.Value)
	case action.KindUnsupported:
		acc.failed = true
	}
	return acc
}

func (acc reportAcc) report(actionCount int) *Report {
	status := StatusSuccess
	if acc.failed {
		status = StatusError
	}
	screenshots := acc.screenshots
	if screenshots == nil {
		screenshots = []string{}
	}
	return &Report{
		Status:       status,
		Message:      fmt.Sprintf("Executed %d automation step(s)", actionCount),
		Steps:        acc.steps,
		PageElements: []string{},
		Screenshots:  screenshots,
	}
}
