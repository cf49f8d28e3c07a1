package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNewFansOutToExtraHandlers(t *testing.T) {
	var stream, extra bytes.Buffer
	logger := New(Options{
		Output: &stream,
		Extra:  []slog.Handler{slog.NewTextHandler(&extra, nil)},
	})

	logger.Info("hello", "key", "value")

	assert.Contains(t, stream.String(), `"msg":"hello"`)
	assert.Contains(t, extra.String(), "msg=hello")
	assert.Contains(t, extra.String(), "key=value")
}

func TestNewDebugUsesTextHandler(t *testing.T) {
	var stream bytes.Buffer
	logger := New(Options{Output: &stream, Debug: true})

	logger.Debug("visible")

	assert.Contains(t, stream.String(), "msg=visible")
}
