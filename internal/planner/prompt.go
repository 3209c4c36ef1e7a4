package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/v0xg/stepscript/internal/action"
	"github.com/v0xg/stepscript/internal/browser"
)

const systemPrompt = `You are a browser test author. Your task is to convert a natural language request into a precise list of browser automation steps that will later be compiled into a Playwright script.

You will receive:
1. A page map containing the URL, title, and available interactive elements (buttons, inputs, links, etc.)
2. A user request describing what to do on the page

Output a JSON array of steps. Each step has:
- "type": one of "click", "fill", "wait", "screenshot", "text", "get_elements", "snapshot"
- "selector": CSS selector of the target element (required for click, fill, text, get_elements)
- "value": the text to enter for fill, milliseconds for wait, or the file name for screenshot

Guidelines:
- Use only selectors from the provided page map
- Add a wait (300-2000) after steps that load new content
- Use "text" to read back a result and "snapshot" to capture the whole page
- Keep the sequence minimal but complete

Example output:
[
  {"type": "fill", "selector": "#search", "value": "hello"},
  {"type": "click", "selector": "#search-btn"},
  {"type": "wait", "value": "1000"},
  {"type": "screenshot", "value": "results.png"}
]

Respond ONLY with the JSON array, no explanation or markdown.`

func buildUserPrompt(pageMap *browser.PageMap, userPrompt string) (string, error) {
	data, err := json.MarshalIndent(pageMap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal page map: %w", err)
	}
	return "Page map:\n" + string(data) + "\n\nUser request: " + userPrompt, nil
}

// parseActions extracts the first JSON array from a model response, which
// may be wrapped in prose or a code fence.
func parseActions(response string) ([]action.Action, error) {
	start := strings.Index(response, "[")
	if start == -1 {
		return nil, errors.New("no JSON array found in response")
	}

	depth := 0
	end := -1
	inString := false
	var quote byte
	for i := start; i < len(response) && end == -1; i++ {
		c := response[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == quote {
				inString = false
			}
		case c == '"' || c == '\'':
			inString, quote = true, c
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				end = i + 1
			}
		}
	}
	if end == -1 {
		return nil, errors.New("no matching closing bracket found")
	}

	actions, err := action.DecodeActions(response[start:end])
	if err != nil {
		return nil, err
	}
	if actions == nil {
		actions = []action.Action{}
	}
	return actions, nil
}
