package api

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

type createTransactionRequest struct {
	CustomerName string `json:"customer_name"`
}

type renameTransactionRequest struct {
	CustomerName string `json:"customer_name"`
}

type addTransactionItemRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type updateTransactionItemRequest struct {
	Quantity int `json:"quantity"`
}

type closeTransactionRequest struct {
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	list, err := h.transactions.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, t := range list {
				encTransaction(e, t)
			}
		})
	})
}

func (h *Handler) listOpenTransactions(w http.ResponseWriter, r *http.Request) {
	list, err := h.transactions.ListOpen(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, t := range list {
				encTransaction(e, t)
			}
		})
	})
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if !decode(w, r, &req) {
		return
	}

	t, err := h.transactions.Create(r.Context(), req.CustomerName)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, func(e *jx.Encoder) { encTransaction(e, *t) })
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	d, err := h.transactions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) { encDetails(e, *d) })
}

func (h *Handler) renameTransaction(w http.ResponseWriter, r *http.Request) {
	var req renameTransactionRequest
	if !decode(w, r, &req) {
		return
	}

	t, err := h.transactions.Rename(r.Context(), r.PathValue("id"), req.CustomerName)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) { encTransaction(e, *t) })
}

func (h *Handler) addTransactionItem(w http.ResponseWriter, r *http.Request) {
	var req addTransactionItemRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ItemID == "" {
		respondError(w, http.StatusBadRequest, "Item ID is required")
		return
	}

	line, t, err := h.transactions.AddItem(r.Context(), r.PathValue("id"), req.ItemID, req.Quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("line", func(e *jx.Encoder) { encLine(e, *line) })
			e.Field("transaction", func(e *jx.Encoder) { encTransaction(e, *t) })
		})
	})
}

func (h *Handler) updateTransactionItem(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionItemRequest
	if !decode(w, r, &req) {
		return
	}

	line, t, err := h.transactions.UpdateItem(r.Context(), r.PathValue("id"), r.PathValue("itemID"), req.Quantity)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("line", func(e *jx.Encoder) { encLine(e, *line) })
			e.Field("transaction", func(e *jx.Encoder) { encTransaction(e, *t) })
		})
	})
}

func (h *Handler) removeTransactionItem(w http.ResponseWriter, r *http.Request) {
	t, err := h.transactions.RemoveItem(r.Context(), r.PathValue("id"), r.PathValue("itemID"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) { encTransaction(e, *t) })
}

func (h *Handler) closeTransaction(w http.ResponseWriter, r *http.Request) {
	var req closeTransactionRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.transactions.Close(r.Context(), r.PathValue("id"), req.PaidAmount)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("transaction", func(e *jx.Encoder) { encTransaction(e, *res.Transaction) })
			e.Field("change_amount", func(e *jx.Encoder) { encDecimal(e, res.Change) })
		})
	})
}

func (h *Handler) cancelTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := h.transactions.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, func(e *jx.Encoder) { encTransaction(e, *t) })
}
