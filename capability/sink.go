package capability

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasm-fork/abi"
)

// Sink receives debug output.
type Sink interface {
	Emit(pid abi.PID, text string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(pid abi.PID, text string)

func (f SinkFunc) Emit(pid abi.PID, text string) { f(pid, text) }

// Discard drops all output.
var Discard Sink = SinkFunc(func(abi.PID, string) {})

// FormatLine renders one debug line as "[pid=N] text".
func FormatLine(pid abi.PID, text string) string {
	return fmt.Sprintf("[pid=%d] %s", pid, text)
}

// WriterSink writes one line per emit. Lines from concurrent executions never
// interleave.
type WriterSink struct {
	w  io.Writer
	mu sync.Mutex
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Emit(pid abi.PID, text string) {
	line := FormatLine(pid, text) + "\n"
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.w, line)
}

// LoggerSink logs each emit at a fixed level.
type LoggerSink struct {
	logger *zap.Logger
	level  zapcore.Level
}

func NewLoggerSink(logger *zap.Logger, level zapcore.Level) *LoggerSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerSink{logger: logger, level: level}
}

func (s *LoggerSink) Emit(pid abi.PID, text string) {
	s.logger.Log(s.level, text, zap.Uint32("pid", uint32(pid)))
}

// MultiSink fans out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Emit(pid abi.PID, text string) {
	for _, s := range m {
		s.Emit(pid, text)
	}
}

// Entry is one recorded debug emit.
type Entry struct {
	Text string
	PID  abi.PID
}

func (e Entry) String() string {
	return FormatLine(e.PID, e.Text)
}

// Recorder keeps every emit in memory.
type Recorder struct {
	entries []Entry
	mu      sync.Mutex
}

func (r *Recorder) Emit(pid abi.PID, text string) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{PID: pid, Text: text})
	r.mu.Unlock()
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Lines returns the recorded entries formatted as "[pid=N] text".
func (r *Recorder) Lines() []string {
	entries := r.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return lines
}

// Contains reports whether line was recorded.
func (r *Recorder) Contains(line string) bool {
	for _, l := range r.Lines() {
		if l == line {
			return true
		}
	}
	return false
}

func (r *Recorder) String() string {
	return strings.Join(r.Lines(), "\n")
}
