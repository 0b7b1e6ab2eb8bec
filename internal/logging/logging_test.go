package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, charmlog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, charmlog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, charmlog.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, charmlog.InfoLevel, ParseLevel("info"))
	assert.Equal(t, charmlog.InfoLevel, ParseLevel("chatty"))
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "warn"})

	logger.Info("hidden")
	logger.Warn("fetch failed", "seq", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "fetch failed")
	assert.Contains(t, out, "seq=3")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Config{Level: "debug", JSON: true}).Debug("fetch issued", "page", 2)
	assert.Contains(t, buf.String(), `"msg":"fetch issued"`)
	assert.Contains(t, buf.String(), `"page":2`)
}

func TestOpen_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tablo.log")
	logger, closeFn, err := Open(Config{File: path, Level: "info"})
	require.NoError(t, err)

	logger.Info("started", "endpoint", "http://example.com")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "started")
}

func TestOpen_NoFileDiscards(t *testing.T) {
	logger, closeFn, err := Open(Config{})
	require.NoError(t, err)
	logger.Error("dropped")
	assert.NoError(t, closeFn())
}
