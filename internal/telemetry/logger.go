package telemetry

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// JSONLogger appends one JSON object per event. Events below the threshold
// are dropped. A logger with an empty path discards everything.
type JSONLogger struct {
	mu        sync.Mutex
	w         io.WriteCloser
	threshold Level
	sessionID string
}

func NewJSONLogger(path string, threshold Level) (*JSONLogger, error) {
	if path == "" {
		return &JSONLogger{w: nopCloser{Writer: io.Discard}, threshold: threshold}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &JSONLogger{w: f, threshold: threshold}, nil
}

// WithSession stamps every subsequent event with the session id.
func (l *JSONLogger) WithSession(sessionID string) *JSONLogger {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessionID = sessionID
	return l
}

func (l *JSONLogger) Debug(msg string, fields map[string]any) {
	l.log(LevelDebug, msg, fields)
}

func (l *JSONLogger) Info(msg string, fields map[string]any) {
	l.log(LevelInfo, msg, fields)
}

func (l *JSONLogger) Error(msg string, fields map[string]any) {
	l.log(LevelError, msg, fields)
}

func (l *JSONLogger) log(level Level, msg string, fields map[string]any) {
	if l == nil || l.w == nil {
		return
	}
	if level < l.threshold {
		return
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level.String(),
		"msg":   msg,
	}
	if l.sessionID != "" {
		entry["session_id"] = l.sessionID
	}
	for k, v := range fields {
		entry[k] = v
	}
	b, _ := json.Marshal(entry)
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(append(b, '\n'))
}

func (l *JSONLogger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
