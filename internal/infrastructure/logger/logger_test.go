package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}

func TestNewWithWriter_ProductionUsesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "nfse-client", "info", "production")

	log.Info("hello", "empresa_id", 7)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["app"] != "nfse-client" {
		t.Errorf("expected app attribute, got %v", entry["app"])
	}
	if entry["msg"] != "hello" {
		t.Errorf("expected msg 'hello', got %v", entry["msg"])
	}
}

func TestNewWithWriter_LocalUsesPlainTextWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "nfse-client", "debug", "local")

	log.Debug("checking")

	out := buf.String()
	if !strings.Contains(out, "level=DEBUG") {
		t.Errorf("expected text handler output, got %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("expected no color codes for non-terminal writer, got %q", out)
	}
}

func TestNewWithWriter_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "nfse-client", "warn", "production")

	log.Info("ignored")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
	}
}
