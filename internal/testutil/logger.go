// Package testutil provides helpers shared by the sheetproof tests:
// loggers bound to the running test and generated workbooks.
package testutil

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"testing"
)

// NewTestLogger returns a debug logger that writes to t.Log, so records
// only show up for failing tests or with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// LogRecorder keeps the text of every record written through a logger
// from NewRecordingLogger. It is safe for concurrent use.
type LogRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

// String returns everything logged so far.
func (r *LogRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// NewRecordingLogger returns a debug logger that both writes to t.Log and
// records its output for assertions.
func NewRecordingLogger(t testing.TB) (*slog.Logger, *LogRecorder) {
	t.Helper()
	rec := &LogRecorder{}
	w := io.MultiWriter(testWriter{t}, rec)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})), rec
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}
