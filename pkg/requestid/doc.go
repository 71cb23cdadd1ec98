// Package requestid correlates log records and audit events belonging to one
// HTTP request.
//
// Middleware reuses a valid client-supplied "X-Request-ID" header or
// generates a UUID, stores it in the request context, and echoes it in the
// response. FromContext reads it back; LoggerExtractor feeds it into the
// engine's slog setup so every log line of a request carries the same ID.
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r.Use(requestid.Middleware)
//
// Invalid or oversized client IDs are silently replaced, never rejected.
package requestid
