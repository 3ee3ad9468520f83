package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// badRequestError marks errors caused by the request content.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

// statusFor maps an error to the HTTP status it is reported with.
func statusFor(err error) int {
	var mbErr *http.MaxBytesError
	if errors.As(err, &mbErr) {
		return http.StatusRequestEntityTooLarge
	}

	var brErr *badRequestError
	if errors.As(err, &brErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, span trace.Span, err error) {
	status := statusFor(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(ctx).Error("Analytics request failed",
			zap.String("operation", op),
			zap.Error(err),
		)
		msg = "internal error"
	}
	if status == http.StatusRequestEntityTooLarge {
		msg = "request body too large"
	}
	writeError(w, status, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(msg)
	e.ObjEnd()
	writeJSON(w, status, e.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; a failed write means the client left.
	_, _ = w.Write(body)
}
