package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/v0xg/stepscript/internal/action"
	"github.com/v0xg/stepscript/internal/compiler"
)

// ToolError is a tool failure reported back as an isError result
type ToolError struct {
	Code    string
	Message string
}

func (e *ToolError) Error() string {
	return e.Code + ": " + e.Message
}

func newToolError(code, format string, args ...any) *ToolError {
	return &ToolError{Code: code, Message: fmt.Sprintf(format, args...)}
}

type toolHandler func(args json.RawMessage) (any, error)

type tool struct {
	def     ToolDefinition
	handler toolHandler
}

var actionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"type": map[string]any{
			"type":        "string",
			"enum":        []string{"click", "fill", "wait", "screenshot", "text", "get_elements", "snapshot"},
			"description": "Action type",
		},
		"selector": map[string]any{
			"type":        "string",
			"description": "CSS selector or XPath of the target element (click, fill, text, get_elements)",
		},
		"value": map[string]any{
			"type":        "string",
			"description": "Text to fill, wait duration in milliseconds, or screenshot path",
		},
	},
	"required": []string{"type"},
}

func (s *Server) registerTools() {
	s.tools = map[string]tool{}

	s.add(ToolDefinition{
		Name:        s.cfg.ToolName,
		Description: "Generate a standalone automation script from a URL and an action list. Without actions, the recorded steps are used and then cleared.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url":     map[string]any{"type": "string", "description": "Page to open first"},
				"actions": map[string]any{"type": "array", "items": actionSchema, "description": "Ordered actions"},
				"target":  map[string]any{"type": "string", "enum": compiler.TargetNames(), "description": "Script language"},
			},
		},
	}, s.generateScript)

	recordSchema := map[string]any{}
	for k, v := range actionSchema {
		recordSchema[k] = v
	}
	s.add(ToolDefinition{
		Name:        "record_step",
		Description: "Record one action for later script generation. Type \"navigate\" with a URL value sets the start page.",
		InputSchema: recordSchema,
	}, s.recordStep)

	s.add(ToolDefinition{
		Name:        "list_steps",
		Description: "List the recorded steps and start page",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	}, s.listSteps)

	s.add(ToolDefinition{
		Name:        "clear_steps",
		Description: "Drop every recorded step",
		InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
	}, s.clearSteps)
}

func (s *Server) add(def ToolDefinition, h toolHandler) {
	s.tools[def.Name] = tool{def: def, handler: h}
}

// listTools returns tool definitions sorted by name
func (s *Server) listTools() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(s.tools))
	for _, t := range s.tools {
		defs = append(defs, t.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

func (s *Server) callTool(name string, args json.RawMessage) (any, error) {
	t, ok := s.tools[name]
	if !ok {
		return nil, newToolError("unknown_tool", "tool not found: %s", name)
	}
	return t.handler(args)
}

type generateArgs struct {
	URL     string          `json:"url"`
	Actions json.RawMessage `json:"actions"`
	Target  string          `json:"target"`
}

func (s *Server) generateScript(raw json.RawMessage) (any, error) {
	var args generateArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, newToolError("invalid_arguments", "%v", err)
		}
	}

	fromStore := len(args.Actions) == 0 || string(args.Actions) == "null"
	var req *action.Request
	if fromStore {
		if s.cfg.Store == nil {
			return nil, newToolError("unavailable", "no step store configured; pass actions explicitly")
		}
		req = s.cfg.Store.Request()
		if args.URL != "" {
			req.URL = args.URL
		}
	} else {
		text := string(args.Actions)
		var blob string
		if json.Unmarshal(args.Actions, &blob) == nil {
			// some agents send the action list as a JSON string
			text = blob
		}
		actions, err := action.DecodeActions(text)
		if err != nil {
			return nil, newToolError("invalid_arguments", "%v", err)
		}
		req = &action.Request{URL: args.URL, Actions: actions}
	}

	c, err := s.cfg.Compilers(args.Target)
	if err != nil {
		return nil, newToolError("invalid_arguments", "%v", err)
	}
	_, report, err := c.Compile(req)
	if err != nil {
		if errors.Is(err, compiler.ErrPersist) {
			return nil, newToolError("persist_failed", "%v", err)
		}
		return nil, err
	}

	if fromStore {
		if err := s.cfg.Store.Clear(); err != nil {
			s.cfg.Logger.WithError(err).Warn("failed to clear recorded steps")
		}
	}
	return report, nil
}

func (s *Server) recordStep(raw json.RawMessage) (any, error) {
	if s.cfg.Store == nil {
		return nil, newToolError("unavailable", "no step store configured")
	}
	var a action.Action
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, newToolError("invalid_arguments", "%v", err)
	}
	if a.Type == "" {
		return nil, newToolError("invalid_arguments", "type is required")
	}
	if err := s.cfg.Store.Add(a); err != nil {
		return nil, err
	}
	return map[string]any{"recorded": a, "count": len(s.cfg.Store.Steps())}, nil
}

func (s *Server) listSteps(json.RawMessage) (any, error) {
	if s.cfg.Store == nil {
		return nil, newToolError("unavailable", "no step store configured")
	}
	return s.cfg.Store.Request(), nil
}

func (s *Server) clearSteps(json.RawMessage) (any, error) {
	if s.cfg.Store == nil {
		return nil, newToolError("unavailable", "no step store configured")
	}
	if err := s.cfg.Store.Clear(); err != nil {
		return nil, err
	}
	return map[string]any{"cleared": true}, nil
}
