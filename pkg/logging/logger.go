// Package logging writes one flat JSON object per line:
//
//	{"time":"2026-01-02T15:04:05.1Z","level":"WARN","msg":"delivery failed","component":"replication","peer":"node-b:8080"}
//
// time, level and msg always come first; fields follow in the order they
// were attached, child presets before call-site fields. A repeated key keeps
// its first position and takes the last value.
package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// JSONLogger is the production Logger. Children created by With share the
// writer, its lock and the level.
type JSONLogger struct {
	root   *root
	preset []Field
}

type root struct {
	mu    sync.Mutex
	w     io.Writer
	level atomic.Int32
	now   func() time.Time
}

// NewJSONLogger writes to w, dropping lines below level.
func NewJSONLogger(w io.Writer, level Level) *JSONLogger {
	r := &root{w: w, now: time.Now}
	r.level.Store(int32(level))
	return &JSONLogger{root: r}
}

// Open builds a logger for a configured output: "stdout", "stderr" or a
// file path opened in append mode. The returned closer is a no-op for the
// standard streams.
func Open(output string, level Level) (*JSONLogger, io.Closer, error) {
	switch output {
	case "", "stdout":
		return NewJSONLogger(os.Stdout, level), nopCloser{}, nil
	case "stderr":
		return NewJSONLogger(os.Stderr, level), nopCloser{}, nil
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log output %s: %w", output, err)
	}
	return NewJSONLogger(f, level), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

var reserved = map[string]bool{"time": true, "level": true, "msg": true}

func (l *JSONLogger) write(level Level, msg string, fields []Field) {
	if int32(level) < l.root.level.Load() {
		return
	}

	all := make([]Field, 0, len(l.preset)+len(fields))
	index := make(map[string]int, cap(all))
	for _, f := range append(l.preset[:len(l.preset):len(l.preset)], fields...) {
		if reserved[f.Key] {
			f.Key = "field." + f.Key
		}
		if i, seen := index[f.Key]; seen {
			all[i].Value = f.Value
			continue
		}
		index[f.Key] = len(all)
		all = append(all, f)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"time":`)
	writeValue(&buf, l.root.now().UTC().Format(time.RFC3339Nano))
	buf.WriteString(`,"level":`)
	writeValue(&buf, level.String())
	buf.WriteString(`,"msg":`)
	writeValue(&buf, msg)
	for _, f := range all {
		buf.WriteByte(',')
		writeValue(&buf, f.Key)
		buf.WriteByte(':')
		writeValue(&buf, f.Value)
	}
	buf.WriteString("}\n")

	l.root.mu.Lock()
	defer l.root.mu.Unlock()
	_, _ = l.root.w.Write(buf.Bytes())
}

// writeValue encodes v, substituting a marker string when v cannot be
// encoded so one bad field never loses the line.
func writeValue(buf *bytes.Buffer, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal("!BADVALUE: " + err.Error())
	}
	buf.Write(data)
}

func (l *JSONLogger) Debug(msg string, fields ...Field) { l.write(DebugLevel, msg, fields) }
func (l *JSONLogger) Info(msg string, fields ...Field)  { l.write(InfoLevel, msg, fields) }
func (l *JSONLogger) Warn(msg string, fields ...Field)  { l.write(WarnLevel, msg, fields) }
func (l *JSONLogger) Error(msg string, fields ...Field) { l.write(ErrorLevel, msg, fields) }

// With returns a child logger. The parent is unaffected.
func (l *JSONLogger) With(fields ...Field) Logger {
	preset := make([]Field, 0, len(l.preset)+len(fields))
	preset = append(preset, l.preset...)
	preset = append(preset, fields...)
	return &JSONLogger{root: l.root, preset: preset}
}

// SetLevel is safe to call while other goroutines log; SIGHUP reload uses it.
func (l *JSONLogger) SetLevel(level Level) {
	l.root.level.Store(int32(level))
}

func (l *JSONLogger) GetLevel() Level {
	return Level(l.root.level.Load())
}

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
)

// DefaultLogger returns the process-wide logger. Until SetDefaultLogger is
// called it writes to stdout at the level named by LOG_LEVEL.
func DefaultLogger() Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		level, err := ParseLevel(os.Getenv("LOG_LEVEL"))
		if err != nil {
			level = InfoLevel
		}
		defaultLogger = NewJSONLogger(os.Stdout, level)
	}
	return defaultLogger
}

// SetDefaultLogger replaces the process-wide logger.
func SetDefaultLogger(logger Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}
