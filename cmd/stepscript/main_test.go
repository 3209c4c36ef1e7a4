package main

import (
	"bytes"
	"context"
	"errors"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/stepscript/internal/compiler"
	"github.com/v0xg/stepscript/internal/config"
	"github.com/v0xg/stepscript/internal/logger"
)

type testApp struct {
	*app
	out *bytes.Buffer
}

func newTestApp(t *testing.T, stdin string) *testApp {
	t.Helper()
	chdir(t, t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &testApp{
		app: &app{
			cfg:    cfg,
			log:    logger.Discard(),
			fs:     afero.NewMemMapFs(),
			in:     strings.NewReader(stdin),
			out:    out,
			errOut: &bytes.Buffer{},
			clock:  func() time.Time { return time.Unix(1767535377, 0) },
		},
		out: out,
	}
}

func (ta *testApp) exec(t *testing.T, args ...string) error {
	t.Helper()
	root := newRootCmd(ta.app)
	root.SetArgs(args)
	return root.Execute()
}

func TestCompileFromStdin(t *testing.T) {
	ta := newTestApp(t, `{url: 'https://example.com', actions: [{type: 'click', selector: '#go'},]}`)
	require.NoError(t, ta.exec(t, "compile", "--json"))

	var report compiler.Report
	require.NoError(t, json.Unmarshal(ta.out.Bytes(), &report))
	assert.Equal(t, compiler.StatusSuccess, report.Status)
	assert.Equal(t, []string{"Navigate to https://example.com", "Step 1: click element '#go'"}, report.Steps)
	assert.Equal(t, "test-1767535377.py", report.ScriptFile)

	script, err := afero.ReadFile(ta.fs, "test-1767535377.py")
	require.NoError(t, err)
	assert.Contains(t, string(script), "page.click('#go')")
}

func TestCompileActionsFileWithFlags(t *testing.T) {
	ta := newTestApp(t, "")
	require.NoError(t, afero.WriteFile(ta.fs, "actions.json", []byte(`[{"type":"wait","value":250}]`), 0o644))

	err := ta.exec(t, "compile", "-f", "actions.json", "--url", "https://x.test",
		"--target", "js", "--out-dir", "out", "--prefix", "smoke", "--headless")
	require.NoError(t, err)

	script, err := afero.ReadFile(ta.fs, "out/smoke-1767535377.js")
	require.NoError(t, err)
	assert.Contains(t, string(script), "headless: true")
	assert.Contains(t, string(script), "await page.waitForTimeout(250)")
	assert.Contains(t, ta.out.String(), "Saved to out/smoke-1767535377.js")
}

func TestCompileUnsupportedStillWrites(t *testing.T) {
	ta := newTestApp(t, `{"url":"u","actions":[{"type":"drag"}]}`)
	require.NoError(t, ta.exec(t, "compile"))

	assert.Contains(t, ta.out.String(), "Step 1: unsupported action type 'drag'")
	exists, err := afero.Exists(ta.fs, "test-1767535377.py")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCompileMalformedActionDegrades(t *testing.T) {
	ta := newTestApp(t, `{"url":"u","actions":[{"type":"click","selector":"#ok"},{"type":7}]}`)
	require.NoError(t, ta.exec(t, "compile", "--json"))

	var report compiler.Report
	require.NoError(t, json.Unmarshal(ta.out.Bytes(), &report))
	assert.Equal(t, compiler.StatusError, report.Status)
	assert.Equal(t, []string{
		"Navigate to u",
		"Step 1: click element '#ok'",
		"Step 2: unsupported action type '7'",
	}, report.Steps)

	script, err := afero.ReadFile(ta.fs, "test-1767535377.py")
	require.NoError(t, err)
	assert.Contains(t, string(script), "page.click('#ok')")
}

func TestCompileErrors(t *testing.T) {
	ta := newTestApp(t, `not even close`)
	assert.Error(t, ta.exec(t, "compile", "--target", "cobol", "missing.json"))

	ta = newTestApp(t, "")
	assert.Error(t, ta.exec(t, "compile"))

	ta = newTestApp(t, `{"url":"u","actions":[]}`)
	assert.ErrorContains(t, ta.exec(t, "compile", "--target", "cobol"), "unknown target")
}

func TestCompilePersistFailure(t *testing.T) {
	ta := newTestApp(t, `{"url":"u","actions":[]}`)
	ta.fs = afero.NewReadOnlyFs(afero.NewMemMapFs())
	assert.ErrorIs(t, ta.exec(t, "compile"), compiler.ErrPersist)
}

func TestStepsLifecycle(t *testing.T) {
	ta := newTestApp(t, "")
	require.NoError(t, ta.exec(t, "steps", "add", "--type", "navigate", "--value", "https://example.com"))
	require.NoError(t, ta.exec(t, "steps", "add", "--type", "fill", "--selector", "#q", "--value", "go"))
	assert.Error(t, ta.exec(t, "steps", "add", "--selector", "#q"))

	ta.out.Reset()
	require.NoError(t, ta.exec(t, "steps", "list"))
	assert.Contains(t, ta.out.String(), `"url": "https://example.com"`)
	assert.Contains(t, ta.out.String(), `"selector": "#q"`)

	require.NoError(t, ta.exec(t, "steps", "generate", "--target", "go"))
	script, err := afero.ReadFile(ta.fs, "test-1767535377.go")
	require.NoError(t, err)
	assert.Contains(t, string(script), `page.MustElement("#q").MustSelectAllText().MustInput("go")`)

	// Generating consumes the recording
	ta.out.Reset()
	require.NoError(t, ta.exec(t, "steps", "list"))
	assert.Contains(t, ta.out.String(), `"url": ""`)
}

func TestStepsGenerateKeep(t *testing.T) {
	ta := newTestApp(t, "")
	require.NoError(t, ta.exec(t, "steps", "add", "--type", "snapshot"))
	require.NoError(t, ta.exec(t, "steps", "generate", "--keep"))
	require.NoError(t, ta.exec(t, "steps", "clear"))

	ta.out.Reset()
	require.NoError(t, ta.exec(t, "steps", "list"))
	assert.Contains(t, ta.out.String(), `"actions": []`)
}

func TestServe(t *testing.T) {
	ta := newTestApp(t, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"playwright_script_generator","arguments":{"url":"u","actions":[{"type":"snapshot"}]}}}`+"\n")
	require.NoError(t, ta.exec(t, "serve"))
	assert.Contains(t, ta.out.String(), `"id":1`)

	exists, err := afero.Exists(ta.fs, "test-1767535377.py")
	require.NoError(t, err)
	assert.True(t, exists)
}

type scriptedExecutor struct {
	fail map[string]bool
}

func (e scriptedExecutor) Execute(_ context.Context, argv []string) (string, error) {
	script := argv[len(argv)-1]
	if e.fail[script] {
		return "Error: element not found\n", errors.New("exit status 1")
	}
	return "Text: hello\n", nil
}

func TestRunAll(t *testing.T) {
	ta := newTestApp(t, `{"url":"u","actions":[{"type":"text","selector":"h1"}]}`)
	require.NoError(t, ta.exec(t, "compile", "--out-dir", "generated"))
	require.NoError(t, afero.WriteFile(ta.fs, "generated/old-1.js", []byte("x"), 0o644))

	ta.executor = scriptedExecutor{}
	ta.out.Reset()
	require.NoError(t, ta.exec(t, "run-all", "generated"))
	assert.Contains(t, ta.out.String(), "generated/test-1767535377.py")
	assert.Contains(t, ta.out.String(), "Text: hello")
	assert.Contains(t, ta.out.String(), "2 passed, 0 failed")

	ta.executor = scriptedExecutor{fail: map[string]bool{"generated/old-1.js": true}}
	ta.out.Reset()
	err := ta.exec(t, "run-all", "generated")
	assert.ErrorContains(t, err, "1 of 2 script(s) failed")
	assert.Contains(t, ta.out.String(), "1 passed, 1 failed")

	ta.out.Reset()
	require.NoError(t, ta.exec(t, "run-all", "generated", "--target", "py"))
	assert.Contains(t, ta.out.String(), "1 passed, 0 failed")
}

func TestVersion(t *testing.T) {
	ta := newTestApp(t, "")
	require.NoError(t, ta.exec(t, "version"))
	assert.Equal(t, "stepscript 0.1.0 (MCP 2024-11-05)\n", ta.out.String())
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
