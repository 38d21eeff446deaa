package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 5)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	line := `{"level":"warn","ts":"2025-06-02T22:00:00Z","logger":"poller","msg":"unknown pins reported","pins":[2,99]}`
	e, ok := Parse(line)
	if !ok {
		t.Fatal("expected JSON entry")
	}
	if e.Level != zapcore.WarnLevel || e.Logger != "poller" || e.Message != "unknown pins reported" {
		t.Fatalf("entry = %#v", e)
	}
	if !e.Time.Equal(time.Date(2025, time.June, 2, 22, 0, 0, 0, time.UTC)) {
		t.Fatalf("time = %v", e.Time)
	}
	if _, ok := e.Fields["pins"]; !ok || len(e.Fields) != 1 {
		t.Fatalf("fields = %#v", e.Fields)
	}

	raw, ok := Parse("panic: something")
	if ok || raw.String() != "panic: something" {
		t.Fatalf("raw = %#v, %v", raw, ok)
	}
}

func TestTailFiltersByLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "sprinkler.log")
	body := strings.Join([]string{
		`{"level":"debug","ts":"2025-06-02T22:00:00Z","msg":"poll"}`,
		`{"level":"error","ts":"2025-06-02T22:00:01Z","msg":"status poll failed","error":"unreachable"}`,
		``,
		`not json`,
	}, "\n")
	if err := os.WriteFile(logPath, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	entries, err := Tail(logPath, 0, zapcore.InfoLevel)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %#v", entries)
	}
	if got := entries[0].String(); !strings.Contains(got, "ERROR status poll failed error=unreachable") {
		t.Fatalf("formatted = %q", got)
	}
	if entries[1].Raw != "not json" {
		t.Fatalf("raw line = %#v", entries[1])
	}
}
