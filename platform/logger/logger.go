// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// OrganizationIDKey is the context key for the tenant organization ID
	OrganizationIDKey contextKey = "organization_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops everything. Used by tests and the offline CLI.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// WithContext returns a logger with context values extracted.
// Supports request_id and organization_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if orgID, ok := ctx.Value(OrganizationIDKey).(string); ok && orgID != "" {
		newLogger = newLogger.WithOrganization(orgID)
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// WithOrganization returns a logger scoped to one tenant.
func (l *Logger) WithOrganization(orgID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("organization_id", orgID)),
	}
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

// HTTPError logs an HTTP error
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
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

// LeadScored logs a completed qualification.
func (l *Logger) LeadScored(orgID, leadID string, score int, label string, modelVersion int) {
	l.Info("lead_scored",
		slog.String("organization_id", orgID),
		slog.String("lead_id", leadID),
		slog.Int("score", score),
		slog.String("label", label),
		slog.Int("model_version", modelVersion),
	)
}

// TrainingRun logs the outcome of one model training run. Failed runs log at
// error level, expected non-publish outcomes at warn.
func (l *Logger) TrainingRun(orgID, status string, version, examples int, accuracy float64, reason string) {
	attrs := []any{
		slog.String("organization_id", orgID),
		slog.String("status", status),
		slog.Int("model_version", version),
		slog.Int("examples", examples),
		slog.Float64("accuracy", accuracy),
	}
	if reason != "" {
		attrs = append(attrs, slog.String("reason", reason))
	}

	switch status {
	case "published":
		l.Info("training_run", attrs...)
	case "failed":
		l.Error("training_run", attrs...)
	default:
		l.Warn("training_run", attrs...)
	}
}
