// Package logging provides the structured logging contract used across
// MolMatch and its zap-backed implementation. Packages depend on Logger only;
// go.uber.org/zap is imported here and nowhere else.
//
// Start-up order in cmd/*/main.go:
//
//  1. Load configuration.
//  2. Build a Logger with New(cfg.Log) and register it with SetDefault.
//  3. Inject the Logger into every other component.
package logging

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ─────────────────────────────────────────────────────────────────────────────
// Field
// ─────────────────────────────────────────────────────────────────────────────

// Field is a typed key-value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// String constructs a field with a string value.
func String(key, val string) Field { return Field{Key: key, Value: val} }

// Strings constructs a field with a string slice value.
func Strings(key string, val []string) Field { return Field{Key: key, Value: val} }

// Int constructs a field with an int value.
func Int(key string, val int) Field { return Field{Key: key, Value: val} }

// Int64 constructs a field with an int64 value.
func Int64(key string, val int64) Field { return Field{Key: key, Value: val} }

// Float64 constructs a field with a float64 value.
func Float64(key string, val float64) Field { return Field{Key: key, Value: val} }

// Bool constructs a field with a bool value.
func Bool(key string, val bool) Field { return Field{Key: key, Value: val} }

// Duration constructs a field with a time.Duration value. The zap backend
// renders it in its configured duration encoding.
func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val} }

// Any constructs a field with an arbitrary value, encoded by reflection.
func Any(key string, val interface{}) Field { return Field{Key: key, Value: val} }

// Err records err under the key "error". A nil error yields an empty string.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err}
}

// ─────────────────────────────────────────────────────────────────────────────
// Logger
// ─────────────────────────────────────────────────────────────────────────────

// Logger is the structured logging contract. Implementations must be safe for
// concurrent use.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger that adds fields to every entry.
	With(fields ...Field) Logger

	// Named appends name to the logger name, separated by a period.
	Named(name string) Logger

	// Sync flushes buffered entries.
	Sync() error
}

// Level names accepted by Config.Level and SetLevel.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Config carries logger construction parameters, usually the "log" section
// of the application configuration.
type Config struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string `mapstructure:"level" json:"level"`
	// Format is "json" or "console". Empty means json.
	Format string `mapstructure:"format" json:"format"`
	// OutputPaths defaults to stdout.
	OutputPaths []string `mapstructure:"output_paths" json:"output_paths"`
	// ErrorOutputPaths receives zap's own write failures. Defaults to stderr.
	ErrorOutputPaths []string `mapstructure:"error_output_paths" json:"error_output_paths"`
}

// ParseLevel converts a level name. Matching is case-insensitive.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case LevelDebug:
		return zapcore.DebugLevel, nil
	case "", LevelInfo:
		return zapcore.InfoLevel, nil
	case LevelWarn, "warning":
		return zapcore.WarnLevel, nil
	case LevelError:
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("logging: unknown level %q", s)
}

// ─────────────────────────────────────────────────────────────────────────────
// zap implementation
// ─────────────────────────────────────────────────────────────────────────────

type zapLogger struct {
	z     *zap.Logger
	level zap.AtomicLevel
}

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			out = append(out, zap.String(f.Key, v))
		case []string:
			out = append(out, zap.Strings(f.Key, v))
		case int:
			out = append(out, zap.Int(f.Key, v))
		case int64:
			out = append(out, zap.Int64(f.Key, v))
		case float64:
			out = append(out, zap.Float64(f.Key, v))
		case bool:
			out = append(out, zap.Bool(f.Key, v))
		case time.Duration:
			out = append(out, zap.Duration(f.Key, v))
		case error:
			out = append(out, zap.NamedError(f.Key, v))
		case fmt.Stringer:
			out = append(out, zap.Stringer(f.Key, v))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, toZap(fields)...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, toZap(fields)...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, toZap(fields)...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, toZap(fields)...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{z: l.z.With(toZap(fields)...), level: l.level}
}

func (l *zapLogger) Named(name string) Logger {
	return &zapLogger{z: l.z.Named(name), level: l.level}
}

func (l *zapLogger) Sync() error { return l.z.Sync() }

func (l *zapLogger) setLevel(lvl zapcore.Level) { l.level.SetLevel(lvl) }

// New builds a zap-backed Logger from cfg.
func New(cfg Config) (Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if len(cfg.OutputPaths) == 0 {
		cfg.OutputPaths = []string{"stdout"}
	}
	if len(cfg.ErrorOutputPaths) == 0 {
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	console := strings.EqualFold(cfg.Format, "console")
	enc := zap.NewProductionEncoderConfig()
	encoding := "json"
	if console {
		enc = zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoding = "console"
	} else if cfg.Format != "" && !strings.EqualFold(cfg.Format, "json") {
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	atomic := zap.NewAtomicLevelAt(lvl)
	z, err := zap.Config{
		Level:            atomic,
		Development:      console,
		Encoding:         encoding,
		EncoderConfig:    enc,
		OutputPaths:      cfg.OutputPaths,
		ErrorOutputPaths: cfg.ErrorOutputPaths,
	}.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	return &zapLogger{z: z, level: atomic}, nil
}

// NewFromCore wraps an existing core, typically zaptest/observer in tests.
func NewFromCore(core zapcore.Core) Logger {
	return &zapLogger{z: zap.New(core, zap.AddCallerSkip(1)), level: zap.NewAtomicLevelAt(zapcore.DebugLevel)}
}

// SetLevel changes the minimum level of l and every logger derived from it.
// Loggers not built by New are left untouched and an error is returned.
func SetLevel(l Logger, level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	zl, ok := l.(*zapLogger)
	if !ok {
		return fmt.Errorf("logging: %T does not support level changes", l)
	}
	zl.setLevel(lvl)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// No-op logger
// ─────────────────────────────────────────────────────────────────────────────

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field)     {}
func (nopLogger) Info(string, ...Field)      {}
func (nopLogger) Warn(string, ...Field)      {}
func (nopLogger) Error(string, ...Field)     {}
func (n nopLogger) With(...Field) Logger     { return n }
func (n nopLogger) Named(string) Logger      { return n }
func (nopLogger) Sync() error                { return nil }

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

// ─────────────────────────────────────────────────────────────────────────────
// Process default and context propagation
// ─────────────────────────────────────────────────────────────────────────────

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = nopLogger{}
)

// SetDefault replaces the process-wide logger. A nil logger is ignored.
func SetDefault(l Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Default returns the process-wide logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

type ctxKey struct{}

// IntoContext attaches l to ctx.
func IntoContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

type requestIDKey struct{}

// WithRequestID attaches the API request ID to ctx so that work started by
// the request, including queued jobs, can be correlated with it.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// FromContext returns the logger attached to ctx, or Default.
func FromContext(ctx context.Context) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(Logger); ok {
			return l
		}
	}
	return Default()
}

//Personal.AI order the ending
