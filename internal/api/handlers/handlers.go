package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dvloznov/bank-analyzer/internal/analysis"
	"github.com/dvloznov/bank-analyzer/internal/api/middleware"
	"github.com/dvloznov/bank-analyzer/internal/domain"
	"github.com/dvloznov/bank-analyzer/internal/home"
	"github.com/dvloznov/bank-analyzer/internal/logger"
	"github.com/dvloznov/bank-analyzer/internal/source"
)

// HomeComposer builds the home page document.
// This interface enables mocking of the composer in tests.
type HomeComposer interface {
	Compose(ctx context.Context, date string) (*home.Response, error)
}

// HomeHandler handles the home page endpoint.
type HomeHandler struct {
	composer HomeComposer
}

// NewHomeHandler creates a new home handler.
func NewHomeHandler(composer HomeComposer) *HomeHandler {
	return &HomeHandler{composer: composer}
}

// GetHome handles GET /api/home?date=YYYY-MM-DD
func (h *HomeHandler) GetHome(w http.ResponseWriter, r *http.Request) {
	resp, err := h.composer.Compose(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeDomainError(r.Context(), w, err, "Failed to compose home page")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// TransactionsHandler handles search and report endpoints. Every request
// loads a fresh copy of the transactions.
type TransactionsHandler struct {
	source source.Source
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(src source.Source) *TransactionsHandler {
	return &TransactionsHandler{source: src}
}

// Search handles GET /api/search?q=
func (h *TransactionsHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")

	txs, err := h.source.Load(ctx)
	if err != nil {
		writeDomainError(ctx, w, err, "Failed to load transactions")
		return
	}

	found := analysis.Search(txs, query)
	log := logger.FromContext(ctx)
	log.Info().Str("query", query).Int("found", len(found)).Msg("Search completed")

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":        query,
		"transactions": found,
		"count":        len(found),
	})
}

// SpendingReport handles GET /api/reports/spending?category=&date=
func (h *TransactionsHandler) SpendingReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	date := r.URL.Query().Get("date")

	if category == "" {
		middleware.WriteError(w, http.StatusBadRequest, "category is required")
		return
	}
	if date != "" {
		if _, err := domain.ParseReferenceDate(date); err != nil {
			writeDomainError(ctx, w, err, "")
			return
		}
	}

	txs, err := h.source.Load(ctx)
	if err != nil {
		writeDomainError(ctx, w, err, "Failed to load transactions")
		return
	}

	rows, err := analysis.SpendingByCategory(txs, category, date)
	if err != nil {
		writeDomainError(ctx, w, err, "Failed to build report")
		return
	}

	total := analysis.TotalSpending(rows)
	log := logger.FromContext(ctx)
	log.Info().
		Str("category", category).
		Int("rows", len(rows)).
		Str("total", total.String()).
		Msg("Spending report built")

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"category":     category,
		"transactions": rows,
		"count":        len(rows),
		"total":        total,
	})
}

// writeDomainError maps error kinds to HTTP statuses.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error, message string) {
	log := logger.FromContext(ctx)

	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		middleware.WriteError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
	case errors.Is(err, domain.ErrSourceUnavailable):
		log.Error().Err(err).Msg(message)
		middleware.WriteError(w, http.StatusBadGateway, message)
	default:
		log.Error().Err(err).Msg(message)
		middleware.WriteError(w, http.StatusInternalServerError, message)
	}
}
