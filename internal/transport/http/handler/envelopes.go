package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/onlinestore-api/internal/domain"
	"github.com/onlinestore-api/internal/pkg/validate"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ImageEnvelope wraps the object key of an uploaded product image.
type ImageEnvelope struct {
	Image string `json:"image"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// errorKinds maps domain sentinels onto a status and a fixed client message.
// Order matters: ErrDuplicate also matches ErrValidation.
var errorKinds = []struct {
	kind   error
	status int
	msg    string
}{
	{domain.ErrDuplicate, http.StatusConflict, "already exists"},
	{domain.ErrValidation, http.StatusBadRequest, "validation failed"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrAuthentication, http.StatusUnauthorized, "unauthorized"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrNotFound, http.StatusNotFound, "not found"},
	{domain.ErrMailDelivery, http.StatusBadGateway, "mail delivery failed"},
}

// httpError maps a service error onto a status code. Only domain.Error
// messages reach the client verbatim; anything else gets the fixed message of
// its kind. Unclassified errors are logged and answered with a generic message.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "internal server error"
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			status, msg = k.status, k.msg
			break
		}
	}

	switch status {
	case http.StatusInternalServerError:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	case http.StatusBadGateway:
		slog.Error("upstream failure", "method", r.Method, "path", r.URL.Path, "err", err)
	default:
		var de *domain.Error
		if errors.As(err, &de) {
			msg = de.Message
		}
	}
	writeError(w, status, msg)
}

// decodeValid decodes the JSON body into dst and validates it. It writes the
// error response itself and reports whether the handler should continue.
func decodeValid(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}
