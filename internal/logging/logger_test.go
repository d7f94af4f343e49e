package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestNewLogger_JSONWithComponentAndTrace(t *testing.T) {
	var buf bytes.Buffer
	l := ComponentLogger(NewLogger(Config{Level: "debug", Format: FormatJSON}, &buf), "sage")

	ctx := ContextWithTraceID(context.Background(), "trace-1")
	l.Info().Ctx(ctx).Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sage", entry["component"])
	assert.Equal(t, "trace-1", entry["trace_id"])
	assert.Equal(t, "hello", entry["message"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "error", Format: FormatJSON}, &buf)
	l.Info().Msg("dropped")
	assert.Zero(t, buf.Len())
}

func TestNewLoggerWithPath_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sagequery.log")
	res := NewLoggerWithPath(Config{Level: "info", Output: OutputFile, File: path})
	t.Cleanup(func() { _ = res.Close() })

	require.True(t, res.UsingFile)
	assert.False(t, res.FallbackUsed)
	assert.Equal(t, path, res.FilePath)

	res.Logger.Info().Msg("to file")
	require.NoError(t, res.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
}

func TestNewLoggerWithPath_Fallback(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	res := NewLoggerWithPath(Config{Output: OutputFile, File: filepath.Join(blocker, "x.log")})
	assert.False(t, res.UsingFile)
	assert.True(t, res.FallbackUsed)
	assert.NotEmpty(t, res.FallbackReason)
	assert.NoError(t, res.Close())
}

func TestTraceIDs(t *testing.T) {
	id := NewTraceID()
	_, err := ulid.Parse(id)
	require.NoError(t, err)

	ctx := context.Background()
	assert.Empty(t, TraceIDFromContext(ctx))
	assert.NotEqual(t, id, GetOrGenerateTraceID(ctx))

	ctx = ContextWithTraceID(ctx, id)
	assert.Equal(t, id, GetOrGenerateTraceID(ctx))
}

func TestFromContext_DefaultsSafely(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	l.Info().Msg("no panic")

	var buf bytes.Buffer
	stored := NewLogger(Config{Format: FormatJSON}, &buf)
	ctx := stored.WithContext(context.Background())
	FromContext(ctx).Info().Msg("stored")
	assert.Contains(t, buf.String(), "stored")
}
