package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/nerrad567/climate-node/internal/infrastructure/config"
)

// decode parses a single JSON log line.
func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON output %q: %v", buf.String(), err)
	}
	return entry
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "warning", want: slog.LevelWarn},
		{input: "ERROR", want: slog.LevelError},
		{input: "", want: slog.LevelInfo},
		{input: "verbose", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWriterFor(t *testing.T) {
	if writerFor("stdout") != os.Stdout || writerFor("STDOUT") != os.Stdout {
		t.Error("stdout not selected")
	}
	for _, out := range []string{"stderr", "", "file"} {
		if writerFor(out) != os.Stderr {
			t.Errorf("writerFor(%q) is not stderr", out)
		}
	}
}

func TestNewWithWriter_Formats(t *testing.T) {
	tests := []struct {
		format   string
		wantJSON bool
	}{
		{format: "json", wantJSON: true},
		{format: "", wantJSON: true},
		{format: "text", wantJSON: false},
		{format: "TEXT", wantJSON: false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			NewWithWriter(config.LoggingConfig{Format: tt.format}, "1.0.0", &buf).Info("hello")

			isJSON := json.Valid(bytes.TrimSpace(buf.Bytes()))
			if isJSON != tt.wantJSON {
				t.Errorf("JSON output = %v, want %v: %q", isJSON, tt.wantJSON, buf.String())
			}
		})
	}
}

func TestNewWithWriter_DefaultFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, "1.2.3", &buf)
	logger.Info("reading published", "humidity", 55.2)

	entry := decode(t, &buf)
	want := map[string]any{
		"service":  "climatenode",
		"version":  "1.2.3",
		"msg":      "reading published",
		"humidity": 55.2,
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "text"}, "test", &buf)
	logger.Info("dropped")
	logger.Warn("kept")

	output := buf.String()
	if strings.Contains(output, "dropped") {
		t.Error("info entry should be filtered at warn level")
	}
	if !strings.Contains(output, "kept") {
		t.Error("warn entry should be written at warn level")
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(config.LoggingConfig{Format: "json"}, "test", &buf)

	child := parent.Component("supervisor")
	if child == parent {
		t.Fatal("Component() returned the parent")
	}
	child.Info("bus connected")

	if entry := decode(t, &buf); entry["component"] != "supervisor" {
		t.Errorf("component = %v, want supervisor", entry["component"])
	}

	buf.Reset()
	parent.Info("untagged")
	if entry := decode(t, &buf); entry["component"] != nil {
		t.Errorf("parent gained component = %v", entry["component"])
	}
}

func TestDefaultAndDiscard(t *testing.T) {
	if Default("test") == nil {
		t.Fatal("Default(\"test\") = nil")
	}
	if !Default("test").Enabled(context.Background(), slog.LevelInfo) || Default("test").Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Default(\"test\") should log at info level")
	}

	d := Discard()
	d.Error("goes nowhere")
	if d.Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard() reports enabled")
	}
}
