// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RunIDKey is the context key for the batch run ID
	RunIDKey contextKey = "run_id"
	// ParcelIDKey is the context key for the parcel being reconciled
	ParcelIDKey contextKey = "parcel_id"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(env string, w io.Writer) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext returns a logger with context values extracted.
// Supports run_id, parcel_id and request_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if runID, ok := ctx.Value(RunIDKey).(string); ok && runID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("run_id", runID))}
	}

	if parcelID, ok := ctx.Value(ParcelIDKey).(string); ok && parcelID != "" {
		newLogger = newLogger.WithParcel(parcelID)
	}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}

	return newLogger
}

// WithParcel returns a logger with parcel ID
func (l *Logger) WithParcel(parcelID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("parcel_id", parcelID)),
	}
}

// ReconcileOutcome logs the result of reconciling one parcel role
func (l *Logger) ReconcileOutcome(parcelID string, roleID int, outcome string, steps int) {
	l.Info("reconcile_outcome",
		slog.String("parcel_id", parcelID),
		slog.Int("role_id", roleID),
		slog.String("outcome", outcome),
		slog.Int("steps", steps),
	)
}

// ReconcileFlagged logs a parcel role that needs manual review
func (l *Logger) ReconcileFlagged(parcelID string, roleID int, kind string, err error) {
	l.Warn("reconcile_flagged",
		slog.String("parcel_id", parcelID),
		slog.Int("role_id", roleID),
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)
}

// UpstreamError logs a failed call to an external service
func (l *Logger) UpstreamError(service, operation string, status int, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	l.Error("upstream_error",
		slog.String("service", service),
		slog.String("operation", operation),
		slog.Int("status", status),
		slog.String("error", msg),
	)
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
