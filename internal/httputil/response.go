// Package httputil carries the shared HTTP response helpers: the JSON error
// envelope, classified-error logging and the severe-failure alert hookup.
package httputil

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	apperrors "github.com/guardianlk/guardian/internal/errors"
	"github.com/guardianlk/guardian/internal/redact"
)

// ErrorBody is the JSON envelope returned for every failed request.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// SevereNotifier receives classified server-side failures for out-of-band
// alerting. Implementations must never block the caller.
type SevereNotifier interface {
	NotifySevere(ce *apperrors.ClassifiedError, method string)
}

// ErrorWriter turns raised errors into classified JSON responses. It owns the
// logging and alerting side effects so handlers only have to hand over the
// error.
type ErrorWriter struct {
	logger     *slog.Logger
	notifier   SevereNotifier
	production bool
}

// NewErrorWriter creates an ErrorWriter. notifier may be nil when alerting is
// not configured.
func NewErrorWriter(logger *slog.Logger, notifier SevereNotifier, production bool) *ErrorWriter {
	return &ErrorWriter{logger: logger, notifier: notifier, production: production}
}

// Write classifies err, logs it, fires an alert for 5xx responses and writes
// the JSON error envelope.
func (w *ErrorWriter) Write(c *gin.Context, err error) {
	ce := apperrors.Classify(err, requestid.Get(c), c.Request.URL.RequestURI())

	w.log(c.Request.Method, ce)

	if ce.StatusCode >= http.StatusInternalServerError && w.notifier != nil {
		w.notifier.NotifySevere(ce, c.Request.Method)
	}

	c.AbortWithStatusJSON(ce.StatusCode, ErrorBody{
		Code:    ce.StatusCode,
		Message: ce.ClientMessage,
		Data:    ce.Data,
	})
}

// log emits the server-side record of the failure. Severe failures log at
// error level with the internal detail; client failures log at warn level
// with the client-safe message only. The request path is redacted either way.
func (w *ErrorWriter) log(method string, ce *apperrors.ClassifiedError) {
	attrs := []any{
		slog.Int("status", ce.StatusCode),
		slog.String("method", method),
		slog.String("path", redact.Path(ce.RequestPath)),
		slog.String("request_id", ce.RequestID),
	}

	if ce.StatusCode >= http.StatusInternalServerError {
		attrs = append(attrs, slog.String("error", redact.Text(ce.Error())))
		if !w.production {
			attrs = append(attrs, slog.String("stack", string(debug.Stack())))
		}
		w.logger.Error("request failed", attrs...)
		return
	}

	attrs = append(attrs, slog.String("message", ce.ClientMessage))
	w.logger.Warn("request rejected", attrs...)
}
