package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store(r).Snapshot())
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var c cart.Candidate
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		writeError(w, r, http.StatusBadRequest, "missing item id")
		return
	}
	if c.Price.IsNegative() {
		writeError(w, r, http.StatusBadRequest, "price must not be negative")
		return
	}
	if strings.TrimSpace(c.RemoteVariantID) == "" {
		c.RemoteVariantID = h.defaultVariantID
	}

	s := h.store(r)
	s.AddItem(c)
	writeJSON(w, http.StatusOK, s.Snapshot())
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Quantity == nil {
		writeError(w, r, http.StatusBadRequest, "missing quantity")
		return
	}

	s := h.store(r)
	s.UpdateQuantity(chi.URLParam(r, "id"), *req.Quantity)
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s := h.store(r)
	s.RemoveItem(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s := h.store(r)
	s.Clear()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) OpenCart(w http.ResponseWriter, r *http.Request) {
	s := h.store(r)
	s.Open()
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) CloseCart(w http.ResponseWriter, r *http.Request) {
	s := h.store(r)
	s.Close()
	writeJSON(w, http.StatusOK, s.Snapshot())
}
