package api

import (
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/covenant-forge/covenant/internal/auth"
	"github.com/covenant-forge/covenant/internal/server"
	"github.com/covenant-forge/covenant/pkg/search"
)

// SearchRequest is the body for POST /api/v1/search.
type SearchRequest struct {
	Query   string          `json:"query"`
	Mode    string          `json:"mode,omitempty"`    // keyword | semantic | hybrid (default)
	Filters []search.Filter `json:"filters,omitempty"` // Post-ranking constraints
	Limit   int             `json:"limit,omitempty"`   // Clamped to [1, 100], default 20
}

// Validate checks the request shape. Filter semantics are validated by the
// search core.
func (r SearchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Mode, validation.In("", "keyword", "semantic", "hybrid")),
		validation.Field(&r.Limit, validation.Min(0), validation.Max(10000)),
	)
}

// SearchResponse is the body for a successful search.
type SearchResponse struct {
	Results  []search.Result `json:"results"`
	Total    int             `json:"total"`
	Mode     search.Mode     `json:"mode"`
	Degraded bool            `json:"degraded,omitempty"`
}

// SearchHandler handles hybrid contract search requests.
//
// Endpoint: POST /api/v1/search
func SearchHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		tenantID, ok := auth.GetTenantID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		var req SearchRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		resp, err := srv.Searcher.Search(r.Context(), search.Request{
			TenantID: tenantID,
			Query:    req.Query,
			Mode:     search.Mode(req.Mode),
			Filters:  req.Filters,
			Limit:    req.Limit,
		})
		if err != nil {
			srv.Logger.Error("search failed",
				"tenant_id", tenantID,
				"mode", req.Mode,
				"error", err,
			)
			writeSearchError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SearchResponse{
			Results:  resp.Results,
			Total:    resp.Total,
			Mode:     resp.Mode,
			Degraded: resp.Degraded,
		})
	})
}

// SimilarResponse is the body for a similarity lookup.
type SimilarResponse struct {
	SourceID string          `json:"sourceId"`
	Related  []search.Result `json:"related"`
}

// handleSimilar serves GET /api/v1/contracts/{id}/similar?limit=N.
func handleSimilar(srv *server.Server, w http.ResponseWriter, r *http.Request, tenantID, contractID string) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	related, err := srv.Searcher.FindSimilar(r.Context(), tenantID, contractID, limit)
	if err != nil {
		writeSearchError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SimilarResponse{
		SourceID: contractID,
		Related:  related,
	})
}

// SuggestionsResponse is the body for title autocomplete.
type SuggestionsResponse struct {
	Suggestions []search.Suggestion `json:"suggestions"`
}

// SuggestionsHandler handles typeahead requests against contract titles.
//
// Endpoint: GET /api/v1/suggestions?prefix=...&limit=N
func SuggestionsHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		tenantID, ok := auth.GetTenantID(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}

		suggestions, err := srv.Searcher.Suggest(r.Context(), tenantID, r.URL.Query().Get("prefix"), limit)
		if err != nil {
			writeSearchError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: suggestions})
	})
}
