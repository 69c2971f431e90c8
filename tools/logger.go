package tools

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"cloud.google.com/go/logging"
)

// Logger is the subset of *logging.Logger the service writes to.
type Logger interface {
	Log(e logging.Entry)
}

// ConsoleLogger writes Cloud Logging entries as JSON lines. It stands in for the Cloud
// Logging client when no GCP project is configured (local runs and tests).
type ConsoleLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleLogger(w io.Writer) *ConsoleLogger {
	return &ConsoleLogger{w: w}
}

func (l *ConsoleLogger) Log(e logging.Entry) {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	line, err := json.Marshal(struct {
		Time     time.Time         `json:"time"`
		Severity string            `json:"severity"`
		Payload  interface{}       `json:"payload"`
		Labels   map[string]string `json:"labels,omitempty"`
	}{ts, e.Severity.String(), e.Payload, e.Labels})
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(append(line, '\n'))
}
