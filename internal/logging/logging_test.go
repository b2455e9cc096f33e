package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagnosticAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String(KeyFile, "/src/Program.cs"),
		slog.Int(KeyLine, 7),
		slog.Int(KeyColumn, 9),
		slog.String(KeyKind, "Method"),
		slog.String(KeySignature, "Helper(int value = 10)"),
	}
}

func TestTextHandler_Diagnostic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTextHandler(&buf, &Options{NoColor: true}))

	logger.LogAttrs(context.Background(), slog.LevelError, "can be removed, as it's not used.", diagnosticAttrs()...)

	assert.Equal(t, "/src/Program.cs(7,9) Method 'Helper(int value = 10)' can be removed, as it's not used.\n", buf.String())
}

func TestTextHandler_PlainRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTextHandler(&buf, &Options{NoColor: true, Level: slog.LevelDebug}))

	logger.Debug("document skipped", slog.String("file", "A.cs"))
	logger.Log(context.Background(), LevelFatal, "workspace failed", slog.String("error", "boom"))
	logger.With(slog.String("project", "App")).WithGroup("load").Info("done", slog.Int("documents", 3))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "DEBUG document skipped file=A.cs", lines[0])
	assert.Equal(t, "FATAL workspace failed error=boom", lines[1])
	assert.Equal(t, "INFO done project=App load.documents=3", lines[2])
}

func TestTextHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	h := NewTextHandler(&buf, nil)
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), LevelFatal))
}

func TestTextHandler_Color(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTextHandler(&buf, &Options{}))
	logger.LogAttrs(context.Background(), slog.LevelError, "can be removed, as it's not used.", diagnosticAttrs()...)
	assert.Contains(t, buf.String(), "\x1b[31m")
}

func TestCollectHandler(t *testing.T) {
	h := NewCollectHandler(slog.LevelInfo)
	logger := slog.New(h)

	logger.Debug("ignored")
	logger.LogAttrs(context.Background(), slog.LevelError, "unused", diagnosticAttrs()...)
	logger.With(slog.String("project", "Lib")).Info("loaded")

	records := h.Records()
	require.Len(t, records, 2)
	assert.True(t, IsDiagnostic(records[0]))
	assert.False(t, IsDiagnostic(records[1]))

	attrs := Attrs(records[0])
	assert.Equal(t, "Method", attrs[KeyKind].String())
	assert.Equal(t, int64(7), attrs[KeyLine].Int64())
	assert.Equal(t, "Lib", Attrs(records[1])["project"].String())
}

func TestFanoutAndOnly(t *testing.T) {
	var text bytes.Buffer
	collect := NewCollectHandler(nil)
	logger := slog.New(Fanout{
		Only(NewTextHandler(&text, &Options{NoColor: true}), func(r slog.Record) bool { return !IsDiagnostic(r) }),
		Only(collect, IsDiagnostic),
	})

	logger.LogAttrs(context.Background(), slog.LevelError, "unused", diagnosticAttrs()...)
	logger.Warn("slow document", slog.String("file", "Big.cs"))

	assert.Equal(t, "WARN slow document file=Big.cs\n", text.String())
	require.Len(t, collect.Records(), 1)
	assert.True(t, IsDiagnostic(collect.Records()[0]))
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "FATAL", LevelName(LevelFatal))
	assert.Equal(t, "ERROR", LevelName(slog.LevelError))
}
