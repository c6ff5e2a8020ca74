package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ImOrenge/voicemacropro-sub000/internal/domain"
)

// Observer is notified synchronously for every entry that clears the
// minimum level gate.
type Observer interface {
	LogAdded(entry domain.LogEntry)
}

// Sink is the process-wide log aggregator: a bounded in-memory buffer,
// a console mirror, and a best-effort daily file appender. Constructed
// once in bootstrap and passed explicitly to its consumers.
type Sink struct {
	console *zap.Logger
	dir     string
	max     int

	mu        sync.Mutex
	min       domain.LogLevel
	entries   []domain.LogEntry
	observers []Observer

	lines     chan string
	writerEnd chan struct{}
	closeOnce sync.Once

	now func() time.Time
}

// NewSink creates the sink. maxEntries caps the in-memory buffer;
// entries are evicted oldest-first once the cap is exceeded.
func NewSink(dir string, maxEntries int, min domain.LogLevel, console *zap.Logger) *Sink {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if console == nil {
		console = zap.NewNop()
	}

	s := &Sink{
		console:   console,
		dir:       dir,
		max:       maxEntries,
		min:       min,
		lines:     make(chan string, 256),
		writerEnd: make(chan struct{}),
		now:       time.Now,
	}
	go s.writeLoop()
	return s
}

// Log records one entry. Entries below the minimum level are dropped.
// File persistence is asynchronous and best-effort; write failures are
// intentionally swallowed so logging can never fail its caller.
func (s *Sink) Log(level domain.LogLevel, message string, macroID *int) {
	s.mu.Lock()
	if level < s.min {
		s.mu.Unlock()
		return
	}

	entry := domain.LogEntry{
		Level:     level,
		Message:   message,
		Timestamp: s.now(),
		MacroID:   macroID,
	}
	s.entries = append(s.entries, entry)
	if len(s.entries) > s.max {
		s.entries = s.entries[len(s.entries)-s.max:]
	}
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	for _, o := range observers {
		o.LogAdded(entry)
	}

	s.mirror(entry)

	select {
	case s.lines <- formatLine(entry):
	default:
	}
}

func (s *Sink) Debug(message string)   { s.Log(domain.LevelDebug, message, nil) }
func (s *Sink) Info(message string)    { s.Log(domain.LevelInfo, message, nil) }
func (s *Sink) Warning(message string) { s.Log(domain.LevelWarning, message, nil) }
func (s *Sink) Error(message string)   { s.Log(domain.LevelError, message, nil) }

// Errorf logs a formatted error entry.
func (s *Sink) Errorf(format string, args ...any) {
	s.Log(domain.LevelError, fmt.Sprintf(format, args...), nil)
}

// Subscribe registers an observer and returns an unsubscribe func.
func (s *Sink) Subscribe(o Observer) func() {
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, existing := range s.observers {
			if existing == o {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// Entries returns a snapshot of the in-memory buffer, oldest first.
func (s *Sink) Entries() []domain.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LogEntry(nil), s.entries...)
}

// Clear empties the in-memory buffer. The daily file is untouched.
func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// SetMinLevel adjusts the gate for subsequent Log calls.
func (s *Sink) SetMinLevel(min domain.LogLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.min = min
}

// MinLevel reports the current gate.
func (s *Sink) MinLevel() domain.LogLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.min
}

// Export writes the current buffer snapshot to path. Unlike the daily
// appender this is an explicit operation and reports failures.
func (s *Sink) Export(path string) error {
	entries := s.Entries()

	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(formatLine(entry))
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to export logs: %w", err)
	}
	return nil
}

// Close flushes and stops the file writer. Safe to call more than once.
func (s *Sink) Close() {
	s.closeOnce.Do(func() {
		close(s.lines)
	})
	<-s.writerEnd
}

func (s *Sink) mirror(entry domain.LogEntry) {
	fields := make([]zap.Field, 0, 1)
	if entry.MacroID != nil {
		fields = append(fields, zap.Int("macro_id", *entry.MacroID))
	}
	switch entry.Level {
	case domain.LevelDebug:
		s.console.Debug(entry.Message, fields...)
	case domain.LevelInfo:
		s.console.Info(entry.Message, fields...)
	case domain.LevelWarning:
		s.console.Warn(entry.Message, fields...)
	default:
		s.console.Error(entry.Message, fields...)
	}
}

func (s *Sink) writeLoop() {
	defer close(s.writerEnd)

	for line := range s.lines {
		s.appendLine(line)
	}
}

// appendLine writes one line to the date-stamped file. All failures
// are swallowed: persistence is best-effort and a broken disk must not
// recurse back into the sink.
func (s *Sink) appendLine(line string) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return
	}

	path := filepath.Join(s.dir, fmt.Sprintf("voicemacro_%s.log", s.now().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.WriteString(line + "\n")
}

func formatLine(entry domain.LogEntry) string {
	line := fmt.Sprintf("%s [%s] %s",
		entry.Timestamp.Format("2006-01-02 15:04:05.000"),
		entry.Level,
		entry.Message,
	)
	if entry.MacroID != nil {
		line += fmt.Sprintf(" (macro=%d)", *entry.MacroID)
	}
	return line
}
