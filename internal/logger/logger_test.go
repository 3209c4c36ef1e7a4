package logger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/stepscript/internal/logger"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stepscript.log")
	var console bytes.Buffer

	l, err := logger.New(logger.Options{Level: "debug", File: path, Out: &console})
	require.NoError(t, err)

	l.WithField("file", "test-1.py").Info("script generated")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "script generated")
	assert.Contains(t, string(data), "file=test-1.py")
	assert.Contains(t, console.String(), "script generated")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := logger.New(logger.Options{Level: "loud"})
	assert.Error(t, err)
}

func TestConsoleHelpers(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	l := logger.Discard()

	l.Progress(&out, "Compiling %d action(s)... ", 2)
	l.Success(&out, "Saved to %s", "test-1.py")
	l.Failure(&out, "boom")
	l.Alert(&out, "careful")

	assert.Equal(t, "→ Compiling 2 action(s)... ✓ Saved to test-1.py\n✗ boom\n⚠ careful\n", out.String())
}
