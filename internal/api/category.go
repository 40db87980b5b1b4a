package api

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/xenking/pos-backend/internal/domain/catalog"
)

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range categories {
				encCategory(e, c)
			}
		})
	})
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) { encCategory(e, *c) })
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}

	now := time.Now().UTC()
	c := &catalog.Category{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.categories.Create(r.Context(), c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, func(e *jx.Encoder) { encCategory(e, *c) })
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req updateCategoryRequest
	if !decode(w, r, &req) {
		return
	}

	c, err := h.categories.Update(r.Context(), r.PathValue("id"), catalog.CategoryUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) { encCategory(e, *c) })
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.categories.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
