package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ToLevel(in); got != want {
			t.Fatalf("ToLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, closeFn, err := New(Options{Level: "warn", Console: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("hidden")
	log.Warn("shown", zap.Int("pin", 4))
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, `"pin": 4`) {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestNewFileWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sprinkler.log")
	log, closeFn, err := New(Options{Level: "debug", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Named("poller").Debug("refresh ok", zap.Int("pins", 16))
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, data)
	}
	if entry[MessageKey] != "refresh ok" || entry[LevelKey] != "debug" || entry[NameKey] != "poller" {
		t.Fatalf("entry = %#v", entry)
	}
	if entry["pins"] != float64(16) {
		t.Fatalf("pins field = %#v", entry["pins"])
	}
	if _, ok := entry[TimeKey].(string); !ok {
		t.Fatalf("missing %s: %#v", TimeKey, entry)
	}
}
