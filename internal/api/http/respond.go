package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-criteria/internal/criteria"
	"github.com/mind-engage/mindengage-criteria/internal/storage"
)

const maxDocumentBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// idParam reads a positive integer URL parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, name)), 10, 64)
	return id, err == nil && id > 0
}

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, criteria.ErrAssignmentNotFound),
		errors.Is(err, criteria.ErrCriterionNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, criteria.ErrMalformedDocument),
		errors.Is(err, storage.ErrBadKey):
		return http.StatusBadRequest
	case errors.Is(err, criteria.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, criteria.ErrBlankDocument),
		errors.Is(err, criteria.ErrInvalidFormat),
		errors.Is(err, criteria.ErrCriteriaNotFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	http.Error(w, msg, status)
}
