package mcp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/v0xg/stepscript/internal/compiler"
	"github.com/v0xg/stepscript/internal/steps"
)

// ServerConfig wires a Server
type ServerConfig struct {
	Name            string
	Version         string
	ProtocolVersion string
	ToolName        string

	// Compilers returns a compiler for the named target ("" for the default)
	Compilers func(target string) (*compiler.Compiler, error)
	Store     *steps.Store
	Logger    logrus.FieldLogger

	In  io.Reader
	Out io.Writer
}

// Server is a line-delimited JSON-RPC 2.0 MCP server over stdio
type Server struct {
	cfg   ServerConfig
	tools map[string]tool
}

// NewServer creates a server, defaulting to stdin/stdout
func NewServer(cfg ServerConfig) *Server {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.ProtocolVersion == "" {
		cfg.ProtocolVersion = "2024-11-05"
	}
	if cfg.ToolName == "" {
		cfg.ToolName = "playwright_script_generator"
	}
	if cfg.Compilers == nil {
		cfg.Compilers = func(target string) (*compiler.Compiler, error) {
			t, err := compiler.LookupTarget(target)
			if err != nil {
				return nil, err
			}
			return compiler.New(compiler.Options{Target: t}), nil
		}
	}
	if cfg.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.Logger = l
	}
	s := &Server{cfg: cfg}
	s.registerTools()
	return s
}

// Run serves requests until the input is exhausted
func (s *Server) Run() error {
	s.cfg.Logger.Infof("starting %s %s", s.cfg.Name, s.cfg.Version)

	scanner := bufio.NewScanner(s.cfg.In)
	// Avoid token-too-long for big payloads
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 16*1024*1024)

	enc := json.NewEncoder(s.cfg.Out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			if err := enc.Encode(errorResponse(nil, ErrParse, "Parse error", err.Error())); err != nil {
				return err
			}
			continue
		}

		resp := s.handle(req)
		if resp == nil {
			continue
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}

	return scanner.Err()
}

func (s *Server) handle(req Request) *Response {
	start := time.Now()
	log := s.cfg.Logger.WithFields(logrus.Fields{"method": req.Method, "id": req.ID})
	defer func() { log.WithField("elapsed", time.Since(start)).Debug("rpc handled") }()

	// notifications carry no id and get no response
	if req.ID == nil {
		log.Debug("notification")
		return nil
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "ping":
		return resultResponse(req.ID, map[string]any{})
	case "tools/list":
		return resultResponse(req.ID, map[string]any{"tools": s.listTools()})
	case "tools/call":
		return s.handleToolsCall(req, log)
	default:
		return errorResponse(req.ID, ErrMethodNotFound, "method not found", req.Method)
	}
}

func (s *Server) handleInitialize(req Request) *Response {
	return resultResponse(req.ID, map[string]any{
		"protocolVersion": s.cfg.ProtocolVersion,
		"serverInfo": map[string]any{
			"name":    s.cfg.Name,
			"version": s.cfg.Version,
		},
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
	})
}

func (s *Server) handleToolsCall(req Request, log logrus.FieldLogger) *Response {
	var params CallParams
	if len(req.Params) == 0 {
		return errorResponse(req.ID, ErrInvalidParams, "invalid params", "missing params")
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, ErrInvalidParams, "invalid params", err.Error())
	}

	res, err := s.callTool(params.Name, params.Arguments)
	if err != nil {
		log.WithError(err).WithField("tool", params.Name).Warn("tool call failed")

		var toolErr *ToolError
		text := fmt.Sprintf("ERROR: %v", err)
		if errors.As(err, &toolErr) {
			text = fmt.Sprintf("ERROR: %s (%s)", toolErr.Message, toolErr.Code)
		}
		return resultResponse(req.ID, ToolResult{
			Content: []Content{{Type: "text", Text: text}},
			IsError: true,
		})
	}

	return resultResponse(req.ID, ToolResult{
		Content: []Content{{Type: "text", Text: mustJSON(res)}},
	})
}

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
