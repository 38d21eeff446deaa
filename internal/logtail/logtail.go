package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/five82/sprinkler/internal/logging"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one decoded JSON log line.
type Entry struct {
	Time    time.Time
	Level   zapcore.Level
	Logger  string
	Message string
	Fields  map[string]any
	// Raw is set for lines that are not JSON entries.
	Raw string
}

// Parse decodes a line written by the logging package's file sink. Lines
// that are not JSON objects come back with only Raw set and ok false.
func Parse(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Entry{Raw: line}, false
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return Entry{Raw: line}, false
	}

	e := Entry{Level: zapcore.InfoLevel}
	if ts, ok := fields[logging.TimeKey].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.Time = parsed
		}
	}
	if lvl, ok := fields[logging.LevelKey].(string); ok {
		if parsed, err := zapcore.ParseLevel(lvl); err == nil {
			e.Level = parsed
		}
	}
	e.Logger, _ = fields[logging.NameKey].(string)
	e.Message, _ = fields[logging.MessageKey].(string)
	for _, key := range []string{logging.TimeKey, logging.LevelKey, logging.NameKey, logging.MessageKey} {
		delete(fields, key)
	}
	if len(fields) > 0 {
		e.Fields = fields
	}
	return e, true
}

// Tail returns the decoded entries among the last maxLines lines of path
// whose level is at least minLevel. Undecodable lines are kept as raw entries.
func Tail(path string, maxLines int, minLevel zapcore.Level) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, ok := Parse(line)
		if ok && e.Level < minLevel {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// String renders the entry as "15:04:05 LEVEL [logger] message k=v ...",
// with fields in key order.
func (e Entry) String() string {
	if e.Raw != "" {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", e.Level.CapitalString())
	if e.Logger != "" {
		fmt.Fprintf(&b, " [%s]", e.Logger)
	}
	b.WriteByte(' ')
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	return b.String()
}

// Levels returns the level names accepted by `sprinkler logs --level`.
func Levels() []string {
	return slices.Clone(levelNames)
}

var levelNames = []string{logging.DebugLevel, logging.InfoLevel, logging.WarnLevel, logging.ErrorLevel}
