package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// Middleware puts logger in every request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// ComponentMiddleware retags the request logger with component.
func ComponentMiddleware(component string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).WithComponent(component)
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger writes the application's named events. Each event
// goes to the logger in ctx when there is one, so request ids follow it.
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

func (sl *StructuredLogger) emit(ctx context.Context, level slog.Level, msg string, fields LogFields) {
	logger := sl.logger
	if l, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		logger = l
	}
	if _, ok := fields[FieldComponent]; !ok {
		fields.WithComponent(logger.component)
	}
	logger.Logger.Log(ctx, level, msg, fields.ToSlice()...)
}

// LogHTTPStart logs the start of an HTTP request
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent"), r.Header.Get("Referer")).
		WithClientIP(clientIP)

	sl.emit(ctx, slog.LevelInfo, "HTTP request started", fields)
}

// LogHTTPEnd logs the completion of an HTTP request. 4xx is a warning,
// 5xx an error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "").
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP)

	sl.emit(ctx, level, "HTTP request completed", fields)
}

// LogTransactionAdded logs a manual ledger entry
func (sl *StructuredLogger) LogTransactionAdded(ctx context.Context, id, amount, category, typ string) {
	fields := NewFields().
		WithTransaction(id, amount, category, typ).
		WithOperation(OpCreate).
		WithComponent(ComponentLedger)

	sl.emit(ctx, slog.LevelInfo, "Transaction added", fields)
}

// LogImportCompleted logs a merged import batch
func (sl *StructuredLogger) LogImportCompleted(ctx context.Context, source string, count int) {
	fields := NewFields().
		WithImport(source, count).
		WithOperation(OpImport).
		WithComponent(ComponentImport)

	sl.emit(ctx, slog.LevelInfo, "Import completed", fields)
}

// LogGoalChanged logs a goal mutation
func (sl *StructuredLogger) LogGoalChanged(ctx context.Context, op, id, name string) {
	fields := NewFields().
		WithGoal(id, name).
		WithOperation(op).
		WithComponent(ComponentGoals)

	sl.emit(ctx, slog.LevelInfo, "Goal changed", fields)
}

// LogError logs a failed operation. fields may be nil.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	sl.emit(ctx, slog.LevelError, msg, fields.WithError(err).WithOperation(operation))
}
