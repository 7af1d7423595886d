package diag

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanHandlerFormatsLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	h := newHumanHandler(&buf, slog.LevelDebug)
	logger := slog.New(h)

	logger.Info("link started", "objects", 3)

	out := buf.String()
	assert.Contains(t, out, "link started")
	assert.Contains(t, out, "objects=3")
}

func TestHumanHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	h := newHumanHandler(&buf, slog.LevelWarn)
	logger := slog.New(h)

	logger.Info("should not appear")
	logger.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestWithAttrsCarriesOverToChild(t *testing.T) {
	var buf bytes.Buffer
	h := newHumanHandler(&buf, slog.LevelDebug)
	logger := slog.New(h).With("component", "linker")

	logger.Error("overflow")

	assert.Contains(t, buf.String(), "component=linker")
}

func TestNewFansOutToJSONFile(t *testing.T) {
	var jsonBuf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, JSONFile: &jsonBuf})

	logger.Info("hello", "n", 1)

	require.NotEmpty(t, jsonBuf.String())
	assert.True(t, strings.Contains(jsonBuf.String(), `"msg":"hello"`))
}
