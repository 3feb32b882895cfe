package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "sitebaker.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, exists := err.Context().GetString("file")
		require.True(t, exists)
		assert.Equal(t, "sitebaker.yaml", file)
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		base := ConfigError("no output directory specified").Build()
		wrapped := fmt.Errorf("generate: %w", base)

		assert.True(t, IsClassified(wrapped))
		assert.True(t, HasCategory(wrapped, CategoryConfig))
		assert.Equal(t, CategoryConfig, GetCategory(wrapped))
		assert.True(t, stderrors.Is(wrapped, ConfigError("no output directory specified").Build()))
		assert.False(t, base.CanRetry())
		assert.True(t, base.IsFatal())
	})

	t.Run("Cause is unwrapped", func(t *testing.T) {
		cause := stderrors.New("permission denied")
		err := WrapError(cause, CategoryFileSystem, "clean output").Build()
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "permission denied")
	})

	t.Run("WithContext copies", func(t *testing.T) {
		base := GenerateError("generator failed").Build()
		withSource := base.WithContext("source", "a.md")
		_, had := base.Context().Get("source")
		assert.False(t, had)
		src, _ := withSource.Context().GetString("source")
		assert.Equal(t, "a.md", src)
	})
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad").Build(), expected: 2},
		{name: "config", err: ConfigError("missing").Build(), expected: 7},
		{name: "filesystem", err: FileSystemError("clean failed").Build(), expected: ExitCodeFailedTasks},
		{name: "internal", err: InternalError("boom").Build(), expected: 10},
		{name: "unclassified", err: stderrors.New("plain"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatAndLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	adapter := NewCLIErrorAdapter(false, logger)

	err := RenderError("template failed").WithContext("template", "layout.html").Build()
	assert.Equal(t, "Error: template failed (use -v for details)", adapter.FormatError(err))

	adapter.Log(err)
	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "category=render")
	assert.Contains(t, out, "template=layout.html")

	cfg := ConfigError("no input directory specified").Build()
	assert.Contains(t, adapter.FormatError(cfg), "no input directory specified")
}
