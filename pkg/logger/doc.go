// Package logger builds configured *slog.Logger instances for the engine.
//
// It provides a small factory over log/slog with JSON/text output formats,
// static attributes, and context extractors that inject request-scoped values
// (request ID, acting principal) into every log record.
package logger
