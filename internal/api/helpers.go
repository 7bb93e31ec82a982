// Package api implements the HTTP handlers for the contract API: hybrid
// search, similarity lookup, suggestions, and contract CRUD.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/covenant-forge/covenant/pkg/search"
)

// errorResponse is the JSON body for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON serializes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeSearchError maps the search error taxonomy onto HTTP statuses.
func writeSearchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, search.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, search.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, search.ErrStoreUnavailable):
		// Retryable server-side failure.
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeJSON parses the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseResourcePath splits the URL path after the given API prefix into its
// non-empty segments. For "/api/v1/contracts/{id}/similar" with prefix
// "contracts" it returns ["{id}", "similar"].
func parseResourcePath(url, apiPath string) []string {
	url = strings.TrimPrefix(url, fmt.Sprintf("/api/v1/%s", apiPath))

	var segments []string
	for _, v := range strings.Split(url, "/") {
		if v != "" {
			segments = append(segments, v)
		}
	}
	return segments
}
