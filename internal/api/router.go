package api

import (
	"net/http"

	"github.com/covenant-forge/covenant/internal/auth"
	"github.com/covenant-forge/covenant/internal/server"
)

// NewRouter builds the HTTP mux. Every /api/v1 route requires a bearer
// token carrying a tenant claim; /health does not.
func NewRouter(srv *server.Server, jwtSecret string) *http.ServeMux {
	mux := http.NewServeMux()

	authed := func(h http.Handler) http.Handler {
		return auth.Middleware(h, jwtSecret, srv.Logger.Named("auth"))
	}

	mux.Handle("/health", HealthHandler(srv))
	mux.Handle("/api/v1/search", authed(SearchHandler(srv)))
	mux.Handle("/api/v1/suggestions", authed(SuggestionsHandler(srv)))
	mux.Handle("/api/v1/contracts", authed(ContractsHandler(srv)))
	mux.Handle("/api/v1/contracts/", authed(ContractsHandler(srv)))

	return mux
}
