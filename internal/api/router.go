// Package api wires the HTTP handlers of the analyzer into a router.
package api

import (
	"net/http"
	"time"

	"github.com/dvloznov/bank-analyzer/internal/api/handlers"
	"github.com/dvloznov/bank-analyzer/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// NewRouter builds the read-only API.
func NewRouter(homeHandler *handlers.HomeHandler, txHandler *handlers.TransactionsHandler, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/home", homeHandler.GetHome)
		r.Get("/search", txHandler.Search)
		r.Get("/reports/spending", txHandler.SpendingReport)
	})

	return r
}
