package api

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-backend/internal/domain/catalog"
)

type createItemRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	CategoryID  string          `json:"category_id"`
	SKU         string          `json:"sku"`
	InStock     *bool           `json:"in_stock"`
}

type updateItemRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  *string          `json:"category_id"`
	SKU         *string          `json:"sku"`
	InStock     *bool            `json:"in_stock"`
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, it := range items {
				encItem(e, it)
			}
		})
	})
}

func (h *Handler) listItemsByCategory(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.ListByCategory(r.Context(), r.PathValue("categoryID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, it := range items {
				encItem(e, it)
			}
		})
	})
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.items.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) { encItem(e, *it) })
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.Price.IsNegative() {
		respondError(w, http.StatusBadRequest, "Price must not be negative")
		return
	}

	// New items default to in stock unless the request says otherwise.
	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}

	now := time.Now().UTC()
	it := &catalog.Item{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		SKU:         req.SKU,
		InStock:     inStock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.items.Create(r.Context(), it); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, func(e *jx.Encoder) { encItem(e, *it) })
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Price != nil && req.Price.IsNegative() {
		respondError(w, http.StatusBadRequest, "Price must not be negative")
		return
	}

	it, err := h.items.Update(r.Context(), r.PathValue("id"), catalog.ItemUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		SKU:         req.SKU,
		InStock:     req.InStock,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) { encItem(e, *it) })
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.items.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
