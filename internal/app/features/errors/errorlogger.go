// internal/app/features/errors/errorlogger.go
package errors

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorLogger pairs zap logging with user-facing error pages so handlers
// report failures in one call.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(log *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: log}
}

// ServerError logs err with context and renders a generic failure page. The
// underlying error never reaches the response.
func (e *ErrorLogger) ServerError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	e.log.Error("handler error",
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.Error(err))
	if msg == "" {
		msg = "Something went wrong. Please try again."
	}
	RenderForbidden(w, r, msg, "")
}

// NotFound logs at debug level and renders the not-found page.
func (e *ErrorLogger) NotFound(w http.ResponseWriter, r *http.Request, msg string) {
	e.log.Debug("not found", zap.String("path", r.URL.Path))
	RenderNotFound(w, r, msg)
}
