package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// Keys written by the console's zap encoder.
const (
	keyTime       = "timestamp"
	keyLevel      = "level"
	keyLogger     = "logger"
	keyMessage    = "msg"
	keyCaller     = "caller"
	keyStacktrace = "stacktrace"
)

// Field is one extra key/value pair of an entry.
type Field struct {
	Key   string
	Value string
}

// Entry is one decoded log line. Lines that are not JSON keep their text in Raw
// and report info level.
type Entry struct {
	Time    time.Time
	Level   zapcore.Level
	Logger  string
	Message string
	Fields  []Field
	Raw     string
}

// Tail returns the entries of the last n lines of the file at path, oldest first.
// A missing file yields no entries.
func Tail(path string, n int) ([]Entry, error) {
	lines, err := readLast(path, n)
	if err != nil || len(lines) == 0 {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, Parse(line))
	}
	return entries, nil
}

// AtLeast keeps the entries at or above floor.
func AtLeast(entries []Entry, floor zapcore.Level) []Entry {
	return slices.DeleteFunc(slices.Clone(entries), func(e Entry) bool {
		return e.Level < floor
	})
}

// Parse decodes one zap JSON line.
func Parse(line string) Entry {
	var raw map[string]any
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Entry{Level: zapcore.InfoLevel, Raw: line}
	}

	e := Entry{Level: zapcore.InfoLevel}
	if s, ok := raw[keyTime].(string); ok {
		e.Time = parseTime(s)
	}
	if s, ok := raw[keyLevel].(string); ok {
		if lvl, err := zapcore.ParseLevel(s); err == nil {
			e.Level = lvl
		}
	}
	e.Logger, _ = raw[keyLogger].(string)
	e.Message, _ = raw[keyMessage].(string)

	for k, v := range raw {
		switch k {
		case keyTime, keyLevel, keyLogger, keyMessage, keyCaller, keyStacktrace:
			continue
		}
		e.Fields = append(e.Fields, Field{Key: k, Value: render(v)})
	}
	slices.SortFunc(e.Fields, func(a, b Field) int { return strings.Compare(a.Key, b.Key) })
	return e
}

func render(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return "null"
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func parseTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05.000Z0700", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// readLast keeps a ring of n lines while scanning, so memory stays bounded by n
// whatever the file size.
func readLast(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, n)
	seen := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring[seen%n] = scanner.Text()
		seen++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	if seen <= n {
		return ring[:seen], nil
	}
	start := seen % n
	return append(ring[start:], ring[:start]...), nil
}
