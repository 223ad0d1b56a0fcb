package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/toir/internal/model"
)

// jsonResponse writes a JSON response with the given status code. A nil
// interface writes no body; typed nil pointers encode as null.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// storeError maps a classified error to its status code. Anything
// unclassified is logged and reported as a generic 500.
func storeError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, model.ErrInvalid):
		jsonError(w, http.StatusBadRequest, model.PublicMessage(err, "invalid input"))
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, model.PublicMessage(err, "not found"))
	case errors.Is(err, model.ErrForbidden):
		jsonError(w, http.StatusForbidden, model.PublicMessage(err, "forbidden"))
	case errors.Is(err, model.ErrConflict):
		jsonError(w, http.StatusConflict, model.PublicMessage(err, "conflict"))
	default:
		slog.Error("request failed", "action", action, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the numeric {id} path parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// emptyIfNil keeps list endpoints returning [] instead of null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
