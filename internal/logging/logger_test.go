// Package logging tests for structured JSON logging.
package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "line: %s", line)
		entries = append(entries, entry)
	}
	return entries
}

func TestInit_idempotent(t *testing.T) {
	global = nil
	once = *new(sync.Once)

	var buf1, buf2 bytes.Buffer
	Init(&buf1, LevelInfo)
	first := Get()
	Init(&buf2, LevelDebug)

	assert.Same(t, first, Get())
	assert.Equal(t, &buf1, Get().out)
}

func TestGet_default(t *testing.T) {
	global = nil
	once = *new(sync.Once)

	logger := Get()
	require.NotNil(t, logger)
	assert.Equal(t, os.Stdout, logger.out)
	assert.Equal(t, zerolog.InfoLevel, logger.zl.GetLevel())
}

func TestLogger_writesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelDebug)

	logger.Info("topic published", map[string]interface{}{"topic_id": "t-1"})
	logger.Error("publish failed", errors.New("boom"), map[string]interface{}{"topic_id": "t-2"})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "topic published", entries[0]["message"])
	assert.NotEmpty(t, entries[0]["time"])
	assert.Equal(t, "t-1", entries[0]["context"].(map[string]interface{})["topic_id"])

	assert.Equal(t, "error", entries[1]["level"])
	assert.Equal(t, "boom", entries[1]["error"])
}

func TestLogger_minLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["message"])
}

func TestLogger_unknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LogLevel("TRACE"))

	logger.Debug("hidden")
	logger.Info("shown")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0]["message"])
}

func TestLogger_mergesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelInfo)

	logger.Info("merged", map[string]interface{}{"a": "1"}, map[string]interface{}{"b": "2"})

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	ctx := entries[0]["context"].(map[string]interface{})
	assert.Equal(t, "1", ctx["a"])
	assert.Equal(t, "2", ctx["b"])
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, LevelInfo).With(map[string]interface{}{"component": "engine"})

	logger.Info("hello")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "engine", entries[0]["component"])
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel(" warn ")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}
