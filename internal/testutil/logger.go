package testutil

import (
	"maps"
	"sync"
	"time"

	"github.com/gaborage/mcpanel/logger"
)

// LoggedEvent is one message captured by RecordingLogger.
type LoggedEvent struct {
	Level   string
	Fields  map[string]any
	Message string
}

// RecordingLogger implements logger.Logger and keeps every emitted event.
type RecordingLogger struct {
	fields map[string]any
	store  *eventStore
}

type eventStore struct {
	mu     sync.Mutex
	events []LoggedEvent
}

// NewRecordingLogger creates an empty RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{store: &eventStore{}}
}

func (l *RecordingLogger) event(level string) logger.LogEvent {
	fields := make(map[string]any, len(l.fields))
	maps.Copy(fields, l.fields)
	return &recordingEvent{logger: l, level: level, fields: fields}
}

func (l *RecordingLogger) Info() logger.LogEvent  { return l.event("info") }
func (l *RecordingLogger) Error() logger.LogEvent { return l.event("error") }
func (l *RecordingLogger) Debug() logger.LogEvent { return l.event("debug") }
func (l *RecordingLogger) Warn() logger.LogEvent  { return l.event("warn") }
func (l *RecordingLogger) Fatal() logger.LogEvent { return l.event("fatal") }

func (l *RecordingLogger) WithContext(_ any) logger.Logger {
	return l
}

// WithFields returns a child sharing the same event store.
func (l *RecordingLogger) WithFields(fields map[string]any) logger.Logger {
	merged := maps.Clone(l.fields)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return &RecordingLogger{fields: merged, store: l.store}
}

func (l *RecordingLogger) record(e LoggedEvent) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.events = append(l.store.events, e)
}

// Events returns a snapshot of everything logged so far.
func (l *RecordingLogger) Events() []LoggedEvent {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return append([]LoggedEvent(nil), l.store.events...)
}

// EventsByLevel filters Events by level.
func (l *RecordingLogger) EventsByLevel(level string) []LoggedEvent {
	var out []LoggedEvent
	for _, e := range l.Events() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// EventsByMessage filters Events by message.
func (l *RecordingLogger) EventsByMessage(msg string) []LoggedEvent {
	var out []LoggedEvent
	for _, e := range l.Events() {
		if e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}

type recordingEvent struct {
	logger *RecordingLogger
	level  string
	fields map[string]any
}

func (e *recordingEvent) Msg(msg string) {
	e.logger.record(LoggedEvent{Level: e.level, Fields: maps.Clone(e.fields), Message: msg})
}

// Msgf records the format string as the message
func (e *recordingEvent) Msgf(format string, _ ...any) {
	e.Msg(format)
}

func (e *recordingEvent) Err(err error) logger.LogEvent {
	e.fields["error"] = err
	return e
}

func (e *recordingEvent) Str(key, value string) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *recordingEvent) Int(key string, value int) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *recordingEvent) Int64(key string, value int64) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *recordingEvent) Uint64(key string, value uint64) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *recordingEvent) Bool(key string, value bool) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *recordingEvent) Dur(key string, d time.Duration) logger.LogEvent {
	e.fields[key] = d
	return e
}

func (e *recordingEvent) Interface(key string, i any) logger.LogEvent {
	e.fields[key] = i
	return e
}

func (e *recordingEvent) Bytes(key string, val []byte) logger.LogEvent {
	e.fields[key] = val
	return e
}
