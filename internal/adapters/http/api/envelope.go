package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/userstats/internal/adapters/repository"
	"github.com/okian/userstats/internal/adapters/upload"
	"github.com/okian/userstats/internal/domain/record"
)

// envelope is the {"response": {"status", "body"}} wrapper of report endpoints.
type envelope struct {
	Response envelopeResponse `json:"response"`
}

type envelopeResponse struct {
	Status int `json:"status"`
	Body   any `json:"body"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeEnvelope(w http.ResponseWriter, status int, body any) {
	writeJSON(w, status, envelope{Response: envelopeResponse{Status: status, Body: body}})
}

func formatMillis(ms float64) string {
	return strconv.FormatFloat(ms, 'f', 2, 64) + " ms"
}

// writeFailure maps service errors onto status codes and bodies.
func writeFailure(w http.ResponseWriter, err error) {
	var verr *upload.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "invalid_upload", verr)
	case errors.Is(err, upload.ErrNoFile):
		writeError(w, http.StatusBadRequest, "missing_file", upload.ErrNoFile)
	case errors.Is(err, upload.ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
	case errors.Is(err, record.ErrDecode):
		writeEnvelope(w, http.StatusBadRequest, messageBody{Message: err.Error()})
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "timeout", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
