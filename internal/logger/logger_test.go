package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCommonFields(t *testing.T) {
	fields := CommonFields("gemini", "gemini-2.5-flash")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	core, logs := observer.New(zapcore.InfoLevel)
	zap.New(core).Info("test", fields...)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldProvider] != "gemini" {
		t.Fatalf("unexpected provider field: %v", ctx[FieldProvider])
	}
	if ctx[FieldModel] != "gemini-2.5-flash" {
		t.Fatalf("unexpected model field: %v", ctx[FieldModel])
	}
}

func TestCommonFieldsSkipsEmpty(t *testing.T) {
	if fields := CommonFields(" ", ""); len(fields) != 0 {
		t.Fatalf("expected no fields, got %d", len(fields))
	}
}

func TestWithFieldsNilLogger(t *testing.T) {
	l := WithFields(nil, zap.String("k", "v"))
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	l.Info("does not panic")
}

func TestWithCommonFieldsAttaches(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := WithCommonFields(zap.New(core), "ollama", "llama3")
	l.Debug("call")

	ctx := logs.All()[0].ContextMap()
	if ctx[FieldProvider] != "ollama" || ctx[FieldModel] != "llama3" {
		t.Fatalf("unexpected context: %v", ctx)
	}
}

func TestTruncateForLog(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world", 5, "hello..."},
		{"trims", "  hi  ", 10, "hi"},
		{"zero limit", "hello", 0, ""},
		{"runes", "привет мир", 6, "привет..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.in, tt.limit); got != tt.want {
				t.Fatalf("TruncateForLog(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	for _, json := range []bool{false, true} {
		l, err := New(json, true)
		if err != nil {
			t.Fatalf("New(json=%v): %v", json, err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("New(json=%v, debug=true) should enable debug", json)
		}
	}
}
