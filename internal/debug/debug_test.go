package debug

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetNoColor(true)
	t.Cleanup(func() {
		SetDebug(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetDebug(t *testing.T) {
	SetDebug(false)
	assert.False(t, IsEnabled(), "debug should be disabled initially")

	SetDebug(true)
	assert.True(t, IsEnabled())

	SetDebug(false)
	assert.False(t, IsEnabled())
}

func TestDebugOutput(t *testing.T) {
	buf := captureOutput(t)
	SetDebug(true)

	Debug("test message %s", "arg")

	output := buf.String()
	assert.Contains(t, output, "[DEBUG]")
	assert.Contains(t, output, "test message arg")
}

func TestDebugDisabled(t *testing.T) {
	buf := captureOutput(t)
	SetDebug(false)

	Debug("this should not appear")
	DebugSection("nor this")
	DebugValue("key", "value")

	assert.Empty(t, buf.String())
}

func TestDebugSection(t *testing.T) {
	buf := captureOutput(t)
	SetDebug(true)

	DebugSection("Test Section")

	assert.Contains(t, buf.String(), "=== Test Section ===")
}

func TestDebugValue(t *testing.T) {
	buf := captureOutput(t)
	SetDebug(true)

	DebugValue("key", "value")

	assert.Contains(t, buf.String(), "key = value")
}

func TestLoggerComponentField(t *testing.T) {
	buf := captureOutput(t)
	Setup(Options{Output: buf, NoColor: true, Verbose: true})

	l := Logger("builder")
	l.Info().Msg("rendered")

	assert.Contains(t, buf.String(), "rendered")
	assert.Contains(t, buf.String(), "component=builder")
}

func TestSetupWritesLogFile(t *testing.T) {
	buf := captureOutput(t)
	path := filepath.Join(t.TempDir(), "state", "doxx.log")

	Setup(Options{Output: buf, NoColor: true, Debug: true, LogFile: path})
	Debug("persisted line")
	Setup(Options{Output: buf, NoColor: true})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "persisted line")
}

func TestLogFileReceivesInfoWithoutDebug(t *testing.T) {
	buf := captureOutput(t)
	path := filepath.Join(t.TempDir(), "doxx.log")

	Setup(Options{Output: buf, NoColor: true, LogFile: path})
	l := Logger("remote")
	l.Info().Str("url", "https://example.com/a.doxt").Msg("fetched")
	Setup(Options{Output: buf, NoColor: true})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"remote"`)
	assert.Contains(t, string(data), "fetched")
	assert.Empty(t, buf.String(), "console stays at warn level")
}
