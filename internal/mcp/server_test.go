package mcp_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/stepscript/internal/compiler"
	"github.com/v0xg/stepscript/internal/logger"
	"github.com/v0xg/stepscript/internal/mcp"
	"github.com/v0xg/stepscript/internal/steps"
)

type harness struct {
	fs    afero.Fs
	store *steps.Store
}

func newHarness() *harness {
	fs := afero.NewMemMapFs()
	return &harness{fs: fs, store: steps.Open(fs, "testSteps.json", logger.Discard())}
}

func (h *harness) compilers(target string) (*compiler.Compiler, error) {
	t, err := compiler.LookupTarget(target)
	if err != nil {
		return nil, err
	}
	return compiler.New(compiler.Options{
		Target: t,
		Clock:  func() time.Time { return time.Unix(1700000000, 0) },
		Fs:     h.fs,
	}), nil
}

// run feeds the request lines to a server and decodes every response line
func (h *harness) run(t *testing.T, lines ...string) []map[string]any {
	t.Helper()
	var out bytes.Buffer
	srv := mcp.NewServer(mcp.ServerConfig{
		Name:      "stepscript",
		Version:   "test",
		Compilers: h.compilers,
		Store:     h.store,
		Logger:    logger.Discard(),
		In:        strings.NewReader(strings.Join(lines, "\n") + "\n"),
		Out:       &out,
	})
	require.NoError(t, srv.Run())

	var responses []map[string]any
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		responses = append(responses, m)
	}
	return responses
}

func toolText(t *testing.T, resp map[string]any) (string, bool) {
	t.Helper()
	result := resp["result"].(map[string]any)
	content := result["content"].([]any)
	require.Len(t, content, 1)
	isErr, _ := result["isError"].(bool)
	return content[0].(map[string]any)["text"].(string), isErr
}

func TestInitializeAndList(t *testing.T) {
	h := newHarness()
	resps := h.run(t,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	)
	require.Len(t, resps, 3)

	info := resps[0]["result"].(map[string]any)
	assert.Equal(t, "2024-11-05", info["protocolVersion"])

	tools := resps[1]["result"].(map[string]any)["tools"].([]any)
	var names []string
	for _, tl := range tools {
		names = append(names, tl.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"clear_steps", "list_steps", "playwright_script_generator", "record_step"}, names)

	assert.Equal(t, float64(3), resps[2]["id"])
}

func TestGenerateWithActions(t *testing.T) {
	h := newHarness()
	resps := h.run(t, `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"playwright_script_generator","arguments":{"url":"https://www.baidu.com","actions":[{"type":"fill","selector":"e38","value":"ai"},{"type":"click","selector":"e76"}]}}}`)
	require.Len(t, resps, 1)

	text, isErr := toolText(t, resps[0])
	require.False(t, isErr, text)

	var report compiler.Report
	require.NoError(t, json.Unmarshal([]byte(text), &report))
	assert.Equal(t, compiler.StatusSuccess, report.Status)
	assert.Len(t, report.Steps, 3)
	assert.Equal(t, "test-1700000000.py", report.ScriptFile)

	script, err := afero.ReadFile(h.fs, "test-1700000000.py")
	require.NoError(t, err)
	assert.Contains(t, string(script), "page.fill('e38', 'ai')")
}

func TestGenerateFromRecordedSteps(t *testing.T) {
	h := newHarness()
	resps := h.run(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"record_step","arguments":{"type":"navigate","value":"https://example.com"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"record_step","arguments":{"type":"click","selector":"#go"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"playwright_script_generator","arguments":{"target":"js"}}}`,
	)
	require.Len(t, resps, 3)

	text, isErr := toolText(t, resps[2])
	require.False(t, isErr, text)
	var report compiler.Report
	require.NoError(t, json.Unmarshal([]byte(text), &report))
	assert.Equal(t, []string{"Navigate to https://example.com", "Step 1: click element '#go'"}, report.Steps)
	assert.Equal(t, "test-1700000000.js", report.ScriptFile)

	assert.Empty(t, h.store.Steps())
}

func TestGenerateActionsAsString(t *testing.T) {
	h := newHarness()
	resps := h.run(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"playwright_script_generator","arguments":{"url":"u","actions":"[{type: 'drag'}]"}}}`)

	text, isErr := toolText(t, resps[0])
	require.False(t, isErr, text)
	var report compiler.Report
	require.NoError(t, json.Unmarshal([]byte(text), &report))
	assert.Equal(t, compiler.StatusError, report.Status)
	assert.Equal(t, "Step 1: unsupported action type 'drag'", report.Steps[1])
}

func TestGenerateUnknownTarget(t *testing.T) {
	h := newHarness()
	resps := h.run(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"playwright_script_generator","arguments":{"url":"u","actions":[],"target":"cobol"}}}`)

	text, isErr := toolText(t, resps[0])
	assert.True(t, isErr)
	assert.Contains(t, text, "invalid_arguments")
}

func TestErrors(t *testing.T) {
	h := newHarness()
	resps := h.run(t,
		`not json`,
		`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"nope"}}`,
	)
	require.Len(t, resps, 4)

	codeOf := func(r map[string]any) float64 {
		return r["error"].(map[string]any)["code"].(float64)
	}
	assert.Equal(t, float64(mcp.ErrParse), codeOf(resps[0]))
	assert.Equal(t, float64(mcp.ErrMethodNotFound), codeOf(resps[1]))
	assert.Equal(t, float64(mcp.ErrInvalidParams), codeOf(resps[2]))

	text, isErr := toolText(t, resps[3])
	assert.True(t, isErr)
	assert.Contains(t, text, "unknown_tool")
}

func TestListAndClearSteps(t *testing.T) {
	h := newHarness()
	resps := h.run(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"record_step","arguments":{"type":"snapshot"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"list_steps","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"clear_steps","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"record_step","arguments":{"selector":"#x"}}}`,
	)
	require.Len(t, resps, 4)

	text, _ := toolText(t, resps[1])
	assert.Contains(t, text, `"type": "snapshot"`)

	_, isErr := toolText(t, resps[2])
	assert.False(t, isErr)
	assert.Empty(t, h.store.Steps())

	text, isErr = toolText(t, resps[3])
	assert.True(t, isErr)
	assert.Contains(t, text, "type is required")
}

func TestToolsWithoutStore(t *testing.T) {
	h := newHarness()
	h.store = nil
	resps := h.run(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"playwright_script_generator","arguments":{"url":"u"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"list_steps","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"playwright_script_generator","arguments":{"url":"u","actions":[{"type":"snapshot"}]}}}`,
	)
	require.Len(t, resps, 3)

	for _, r := range resps[:2] {
		text, isErr := toolText(t, r)
		assert.True(t, isErr)
		assert.Contains(t, text, "(unavailable)")
	}

	// Explicit actions never need the store
	text, isErr := toolText(t, resps[2])
	assert.False(t, isErr, text)
}
