package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aidehq/aide/pkg/binder"
	"github.com/aidehq/aide/pkg/logger"
	"github.com/aidehq/aide/pkg/requestid"
)

// ErrorInfo contains classified error information.
type ErrorInfo struct {
	StatusCode int
	Key        string
	Message    string
	Details    map[string][]string
	LogLevel   slog.Level
}

func isClientError(statusCode int) bool {
	return statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError
}

func determineLogLevel(statusCode int) slog.Level {
	if isClientError(statusCode) {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// formatValidationErrors creates a single message from validation errors.
func formatValidationErrors(validationErr ValidationError) string {
	var messages []string
	for field, fieldMessages := range validationErr {
		for _, msg := range fieldMessages {
			messages = append(messages, fmt.Sprintf("%s: %s", field, msg))
		}
	}
	if len(messages) == 0 {
		return "Validation failed"
	}
	return strings.Join(messages, "; ")
}

// classifyError analyzes the error and returns structured error information.
func classifyError(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Key:        "internal_error",
		Message:    "An error occurred processing your request",
	}

	// Request binding failures are the client's fault, not ours.
	switch {
	case errors.Is(err, binder.ErrInvalidJSON), errors.Is(err, binder.ErrMissingContentType):
		info.StatusCode = http.StatusBadRequest
		info.Key = "invalid_request"
		info.Message = "Request body could not be parsed"
	case errors.Is(err, binder.ErrUnsupportedMediaType):
		info.StatusCode = http.StatusUnsupportedMediaType
		info.Key = "unsupported_media_type"
		info.Message = http.StatusText(http.StatusUnsupportedMediaType)
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		info.StatusCode = httpErr.Code
		info.Key = httpErr.Key
		info.Message = http.StatusText(httpErr.Code)
	}

	// Validation errors override HTTP errors when both are present.
	var validationErr ValidationError
	if errors.As(err, &validationErr) {
		info.StatusCode = http.StatusUnprocessableEntity
		info.Key = "validation_error"
		info.Message = formatValidationErrors(validationErr)
		info.Details = validationErr
	}

	info.LogLevel = determineLogLevel(info.StatusCode)
	return info
}

func logError(log *slog.Logger, ctx Context, err error, info ErrorInfo) {
	requestID := requestid.FromContext(ctx.Request().Context())

	log.LogAttrs(ctx.Request().Context(), info.LogLevel, "request error",
		logger.RequestID(requestID),
		logger.Error(err),
		slog.Int("status_code", info.StatusCode),
		slog.String("method", ctx.Request().Method),
		slog.String("path", ctx.Request().URL.Path),
		logger.Component("error_handler"),
	)
}

// NewErrorHandler creates an ErrorHandler that logs the failure and renders
// it as a structured JSON error body.
func NewErrorHandler[C Context](log *slog.Logger) ErrorHandler[C] {
	return func(ctx C, err error) {
		info := classifyError(err)
		logError(log, ctx, err, info)

		response := JSON(JSONResponse{Error: &ErrorDetail{
			Code:    info.Key,
			Message: info.Message,
			Details: info.Details,
		}}, WithJSONStatus(info.StatusCode))

		if renderErr := response.Render(ctx.ResponseWriter(), ctx.Request()); renderErr != nil {
			log.ErrorContext(ctx.Request().Context(), "failed to render error response",
				logger.Error(renderErr),
				logger.Component("error_handler"),
			)
		}
	}
}
