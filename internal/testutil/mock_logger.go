// Package testutil holds shared test doubles and molecule fixtures.
package testutil

import (
	"sync"

	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
)

// LogMessage is a single entry captured by MockLogger.
type LogMessage struct {
	Level   string
	Message string
	Fields  []logging.Field
}

// Field returns the value of the named field and whether it was present.
func (m LogMessage) Field(key string) (interface{}, bool) {
	for _, f := range m.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

type logStore struct {
	mu       sync.Mutex
	messages []LogMessage
}

// MockLogger records entries in memory. Loggers derived through With or
// Named write to the same store, with their inherited fields prepended.
type MockLogger struct {
	store  *logStore
	fields []logging.Field
}

func NewMockLogger() *MockLogger {
	return &MockLogger{store: &logStore{}}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(m.fields)+len(fields))
	all = append(all, m.fields...)
	all = append(all, fields...)
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.messages = append(m.store.messages, LogMessage{Level: level, Message: msg, Fields: all})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }

func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	inherited := append(append([]logging.Field{}, m.fields...), fields...)
	return &MockLogger{store: m.store, fields: inherited}
}

func (m *MockLogger) Named(name string) logging.Logger {
	return m.With(logging.String("logger", name))
}

func (m *MockLogger) Sync() error { return nil }

// GetMessages returns a copy of everything logged so far.
func (m *MockLogger) GetMessages() []LogMessage {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	out := make([]LogMessage, len(m.store.messages))
	copy(out, m.store.messages)
	return out
}

func (m *MockLogger) Clear() {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.messages = nil
}

// HasMessage reports whether msg was logged at level.
func (m *MockLogger) HasMessage(level, msg string) bool {
	_, ok := m.Find(level, msg)
	return ok
}

// Find returns the first entry logged at level with message msg.
func (m *MockLogger) Find(level, msg string) (LogMessage, bool) {
	for _, logged := range m.GetMessages() {
		if logged.Level == level && logged.Message == msg {
			return logged, true
		}
	}
	return LogMessage{}, false
}

//Personal.AI order the ending
