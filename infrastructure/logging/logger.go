// Package logging provides structured logging with tenant/actor/trace
// context extraction, wrapping logrus the way the rest of the governance
// core's ambient stack wraps third-party libraries.
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContextKey is the type for logging-related context keys.
type ContextKey string

const (
	// TraceIDKey is the context key for the request/operation trace ID.
	TraceIDKey ContextKey = "trace_id"
	// TenantIDKey is the context key for the ambient tenant ID.
	TenantIDKey ContextKey = "tenant_id"
	// ActorKey is the context key for the ambient actor identifier.
	ActorKey ContextKey = "actor"
	// ActorTypeKey is the context key for the ambient actor type.
	ActorTypeKey ContextKey = "actor_type"
)

// Logger wraps logrus.Logger with a fixed service name and context-aware
// field extraction.
type Logger struct {
	*logrus.Logger
	service string
}

// New creates a new Logger instance for the given service, level, and format.
func New(service, level, format string) *Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	}

	logger.SetOutput(os.Stdout)

	return &Logger{Logger: logger, service: service}
}

// NewFromEnv constructs a logger using LOG_LEVEL and LOG_FORMAT, defaulting
// to "info" and "json" when unset.
func NewFromEnv(service string) *Logger {
	level := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if level == "" {
		level = "info"
	}
	format := strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	if format == "" {
		format = "json"
	}
	return New(service, level, format)
}

// WithContext returns a log entry populated with trace/tenant/actor fields
// pulled from ctx, if present.
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithField("service", l.service)

	if traceID := ctx.Value(TraceIDKey); traceID != nil {
		entry = entry.WithField("trace_id", traceID)
	}
	if tenantID := ctx.Value(TenantIDKey); tenantID != nil {
		entry = entry.WithField("tenant_id", tenantID)
	}
	if actor := ctx.Value(ActorKey); actor != nil {
		entry = entry.WithField("actor", actor)
	}
	if actorType := ctx.Value(ActorTypeKey); actorType != nil {
		entry = entry.WithField("actor_type", actorType)
	}

	return entry
}

// WithFields returns a log entry with the service name plus custom fields.
func (l *Logger) WithFields(fields map[string]any) *logrus.Entry {
	if fields == nil {
		fields = make(map[string]any)
	}
	fields["service"] = l.service
	return l.Logger.WithFields(logrus.Fields(fields))
}

// WithError returns a log entry with the service name plus an error field.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"service": l.service,
		"error":   err.Error(),
	})
}

// NewTraceID generates a random trace ID suitable for WithContext.
func NewTraceID() string {
	return uuid.NewString()
}
