package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"
	// SceneIDKey is the context key for scene export IDs.
	SceneIDKey contextKey = "scene_id"
)

// Logger wraps slog.Logger with preflight-specific helpers.
type Logger struct {
	*slog.Logger
	file io.Closer
}

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// Format is the output format (json, text).
	Format string
	// Output is the writer for log output (defaults to os.Stderr).
	Output io.Writer
	// AddSource adds source file and line to logs.
	AddSource bool
	// ServiceName is the name of the service for identification.
	ServiceName string
	// FilePath, when set, additionally appends JSON records to this file.
	FilePath string
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Format:      getEnv("LOG_FORMAT", "json"),
		Output:      os.Stderr,
		AddSource:   getEnv("LOG_SOURCE", "false") == "true",
		ServiceName: getEnv("SERVICE_NAME", "preflight"),
		FilePath:    getEnv("LOG_FILE", ""),
	}
}

// New creates a new Logger with the given configuration.
// If the log file cannot be opened the logger falls back to Output only.
func New(cfg Config) *Logger {
	l, err := Open(cfg)
	if err != nil {
		cfg.FilePath = ""
		l, _ = Open(cfg)
		l.Warn("log file disabled", "error", err.Error())
	}
	return l
}

// Open is New but reports a log file that cannot be opened.
func Open(cfg Config) (*Logger, error) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize time format
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	var file *os.File
	if cfg.FilePath != "" {
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		handler = slogmulti.Fanout(handler, slog.NewJSONHandler(f, opts))
	}

	// Add service name as default attribute
	if cfg.ServiceName != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String("service", cfg.ServiceName),
		})
	}

	l := &Logger{Logger: slog.New(handler)}
	if file != nil {
		l.file = file
	}
	return l, nil
}

// NewDefault creates a logger with default configuration.
func NewDefault() *Logger {
	return New(DefaultConfig())
}

// Close releases the log file, if any. Derived loggers share it.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), file: l.file}
}

// WithRequestID returns a new logger with the request ID attached.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.with(slog.String("request_id", requestID))
}

// WithSceneID returns a new logger with the scene export ID attached.
func (l *Logger) WithSceneID(sceneID string) *Logger {
	return l.with(slog.String("scene_id", sceneID))
}

// WithComponent returns a new logger with the component name attached.
func (l *Logger) WithComponent(component string) *Logger {
	return l.with(slog.String("component", component))
}

// WithError returns a new logger with the error attached.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.with(slog.String("error", err.Error()))
}

// WithFields returns a new logger with additional fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	attrs := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}
	return l.with(attrs...)
}

// FromContext extracts logger context values and returns an enriched logger.
func (l *Logger) FromContext(ctx context.Context) *Logger {
	result := l
	if reqID, ok := ctx.Value(RequestIDKey).(string); ok && reqID != "" {
		result = result.WithRequestID(reqID)
	}
	if sceneID, ok := ctx.Value(SceneIDKey).(string); ok && sceneID != "" {
		result = result.WithSceneID(sceneID)
	}
	return result
}

// LogError logs an error with stack trace information.
func (l *Logger) LogError(ctx context.Context, msg string, err error, args ...any) {
	if err == nil {
		return
	}

	// Get caller info
	_, file, line, ok := runtime.Caller(1)
	if ok {
		args = append(args, "source", slog.GroupValue(
			slog.String("file", file),
			slog.Int("line", line),
		))
	}

	args = append(args, "error", err.Error())
	l.FromContext(ctx).Error(msg, args...)
}

// LogFatal logs a fatal error and exits.
func (l *Logger) LogFatal(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.Error(msg, args...)
	_ = l.Close()
	os.Exit(1)
}

// ContextWithRequestID adds a request ID to the context.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// ContextWithSceneID adds a scene export ID to the context.
func ContextWithSceneID(ctx context.Context, sceneID string) context.Context {
	return context.WithValue(ctx, SceneIDKey, sceneID)
}

// parseLevel converts a string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
