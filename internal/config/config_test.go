package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/stepscript/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Script.OutputDir)
	assert.Equal(t, "test", cfg.Script.Prefix)
	assert.Equal(t, "python", cfg.Script.Target)
	assert.False(t, cfg.Script.Headless)
	assert.Equal(t, "testSteps.json", cfg.Steps.File)
	assert.Equal(t, "playwright_script_generator", cfg.Service.ToolName)
	assert.Equal(t, 3, cfg.Browser.Retries)
	assert.Equal(t, 30*time.Second, cfg.Browser.Timeout)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stepscript.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
script:
  output_dir: generated-scripts
  target: javascript
browser:
  timeout: 10s
`), 0o644))
	t.Setenv("STEPSCRIPT_SCRIPT_TARGET", "go")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "generated-scripts", cfg.Script.OutputDir)
	assert.Equal(t, "go", cfg.Script.Target)
	assert.Equal(t, 10*time.Second, cfg.Browser.Timeout)
	assert.Equal(t, "test", cfg.Script.Prefix)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
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
