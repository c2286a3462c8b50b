// Package logger provides structured logging for the courses API.
//
// It builds on the standard library log/slog package: Setup configures the
// process-wide logger from configuration, and WithLogger/FromContext carry
// request-scoped loggers (for example one annotated with a trace ID) through
// context.Context into handlers, services and stores.
package logger
