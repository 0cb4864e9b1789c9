package glal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, LevelWarning)
	l.Infof("device", "hidden")
	l.Warnf("device", "shown %d", 1)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARNING: ")
	assert.Contains(t, out, "[device] shown 1")
}

func TestFatalCarriesDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, LevelError)
	var seen Diagnostic
	l.SetFatalHandler(func(d Diagnostic) { seen = d })

	err := Recover(func() { l.Fatalf("opengl.buffer", "device local memory not accessible") })
	require.Error(t, err)
	d, ok := AsDiagnostic(err)
	require.True(t, ok)
	assert.Equal(t, LevelFatal, d.Severity)
	assert.Equal(t, "opengl.buffer", d.Component)
	assert.Equal(t, "opengl.buffer: device local memory not accessible", d.Error())
	assert.Equal(t, d.Component, seen.Component)
	assert.Contains(t, buf.String(), "FATAL: ")
	assert.Contains(t, d.Err.Error(), "device local memory not accessible")
}

func TestFatalWrapsCause(t *testing.T) {
	l, _ := testLogger(t)
	cause := errors.New("boom")
	err := Recover(func() { l.Fatal("vulkan", cause) })
	assert.True(t, errors.Is(err, cause))
}

func TestAssert(t *testing.T) {
	l, _ := testLogger(t)
	assert.NoError(t, Recover(func() { Assert(l, true, "c", "never") }))
	err := Recover(func() { l.Assert(false, "c", "value %d", 3) })
	assert.EqualError(t, err, "c: value 3")
}

func TestRecoverPassesForeignPanics(t *testing.T) {
	assert.PanicsWithValue(t, "other", func() {
		_ = Recover(func() { panic("other") })
	})
}

func TestFileLoggerSplitsSeverities(t *testing.T) {
	dir := t.TempDir()
	l, err := NewFileLogger(dir, LevelInfo)
	require.NoError(t, err)
	l.Infof("x", "info line")
	l.Warnf("x", "warn line")
	require.NoError(t, l.Close())

	info, err := os.ReadFile(filepath.Join(dir, "info_log.txt"))
	require.NoError(t, err)
	warn, err := os.ReadFile(filepath.Join(dir, "warn_log.txt"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(info), "info line"))
	assert.False(t, strings.Contains(string(info), "warn line"))
	assert.Contains(t, string(warn), "warn line")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, lvl)
	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
