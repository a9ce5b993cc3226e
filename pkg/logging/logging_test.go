package logging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"WARNING", WarnLevel},
		{"error", ErrorLevel},
		{"bogus", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestZapLogger_Observed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLoggerFromCore(core)
	ctx := context.Background()

	logger.Info(ctx, "index complete", Fields{"root": "/data", "files": 3})
	logger.Error(ctx, "read failed", errors.New("boom"), nil)

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "index complete", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	ctxMap := entries[0].ContextMap()
	assert.Equal(t, "/data", ctxMap["root"])
	assert.EqualValues(t, 3, ctxMap["files"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestZapLogger_WithFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewZapLoggerFromCore(core).WithFields(Fields{"run_id": "r1"})

	logger.Info(context.Background(), "started", Fields{"phase": "match"})
	logger.Debug(context.Background(), "filtered out", nil)

	require.Equal(t, 1, logs.Len())
	ctxMap := logs.All()[0].ContextMap()
	assert.Equal(t, "r1", ctxMap["run_id"])
	assert.Equal(t, "match", ctxMap["phase"])
}

func TestZapLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")

	logger, err := NewZapLogger(Config{Path: path, Format: FormatJSON, Level: WarnLevel})
	require.NoError(t, err)

	logger.Info(context.Background(), "hidden", nil)
	logger.Warn(context.Background(), "visible", Fields{"pair": "a.txt"})
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.NotContains(t, content, "hidden")
	assert.Contains(t, content, `"message":"visible"`)
	assert.Contains(t, content, `"pair":"a.txt"`)
	assert.Equal(t, 1, strings.Count(content, "\n"))
}

func TestNullLogger(t *testing.T) {
	var logger Logger = NewNullLogger()
	logger.Info(context.Background(), "ignored", Fields{"k": "v"})
	child := logger.WithFields(Fields{"x": 1})
	child.Error(context.Background(), "ignored", assert.AnError, nil)
	assert.NoError(t, child.Close())
	assert.NoError(t, logger.Close())
}
