// Package api exposes the POS domain over HTTP. Routes, request decoding, and
// response encoding live here; all business rules stay in the domain packages.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/xenking/pos-backend/internal/domain/catalog"
	"github.com/xenking/pos-backend/internal/domain/report"
	"github.com/xenking/pos-backend/internal/domain/transaction"
)

// Handler holds the dependencies behind the HTTP surface.
type Handler struct {
	categories   catalog.CategoryRepository
	items        catalog.ItemRepository
	transactions *transaction.Service
	reports      report.Aggregator
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	categories catalog.CategoryRepository,
	items catalog.ItemRepository,
	transactions *transaction.Service,
	reports report.Aggregator,
) *Handler {
	return &Handler{
		categories:   categories,
		items:        items,
		transactions: transactions,
		reports:      reports,
	}
}

// Register mounts every API route on mux under the /api prefix.
func (h *Handler) Register(mux *http.ServeMux) {
	// Categories.
	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("POST /api/categories", h.createCategory)
	mux.HandleFunc("GET /api/categories/{id}", h.getCategory)
	mux.HandleFunc("PUT /api/categories/{id}", h.updateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", h.deleteCategory)

	// Items.
	mux.HandleFunc("GET /api/items", h.listItems)
	mux.HandleFunc("POST /api/items", h.createItem)
	mux.HandleFunc("GET /api/items/{id}", h.getItem)
	mux.HandleFunc("PUT /api/items/{id}", h.updateItem)
	mux.HandleFunc("DELETE /api/items/{id}", h.deleteItem)
	mux.HandleFunc("GET /api/items/category/{categoryID}", h.listItemsByCategory)

	// Transactions.
	mux.HandleFunc("GET /api/transactions", h.listTransactions)
	mux.HandleFunc("POST /api/transactions", h.createTransaction)
	mux.HandleFunc("GET /api/transactions/open", h.listOpenTransactions)
	mux.HandleFunc("GET /api/transactions/{id}", h.getTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", h.renameTransaction)
	mux.HandleFunc("POST /api/transactions/{id}/items", h.addTransactionItem)
	mux.HandleFunc("PUT /api/transactions/{id}/items/{itemID}", h.updateTransactionItem)
	mux.HandleFunc("DELETE /api/transactions/{id}/items/{itemID}", h.removeTransactionItem)
	mux.HandleFunc("POST /api/transactions/{id}/close", h.closeTransaction)
	mux.HandleFunc("POST /api/transactions/{id}/cancel", h.cancelTransaction)

	// Reports.
	mux.HandleFunc("POST /api/reports/sales", h.salesReport)
	mux.HandleFunc("GET /api/reports/daily", h.dailyReport)
	mux.HandleFunc("GET /api/reports/monthly", h.monthlyReport)
}

// decode reads a JSON request body into dst, reporting a 400 on failure.
// Returns false when the error response has already been written.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
