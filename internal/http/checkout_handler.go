package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/inventory"
)

// GetAvailability answers with one entry per requested variant; unknown
// availability is null.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	var raw []string
	for _, v := range r.URL.Query()["variantId"] {
		raw = append(raw, strings.Split(v, ",")...)
	}
	ids := inventory.NormalizeIDs(raw)
	if len(ids) == 0 {
		writeError(w, r, http.StatusBadRequest, "missing variantId")
		return
	}

	handle := strings.TrimSpace(r.URL.Query().Get("handle"))
	if handle == "" {
		handle = h.productHandle
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.availabilityTimeout)
	defer cancel()

	snap, err := h.availability.Get(ctx, ids, inventory.WithProductHandle(handle))
	if err != nil {
		h.log.WarnContext(r.Context(), "availability lookup failed", "err", err, "variants", len(ids))
		writeError(w, r, http.StatusGatewayTimeout, checkout.NoticeUnreachable)
		return
	}

	out := make(map[string]*inventory.Record, len(ids))
	for _, id := range ids {
		if rec, ok := snap.Lookup(id); ok {
			out[id] = &rec
		} else {
			out[id] = nil
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// Checkout refreshes availability for the cart's variants and hands the cart
// to the builder. A failed refresh leaves availability unknown, which does
// not block.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	s := h.store(r)

	var ids []string
	for _, it := range s.Items() {
		if it.RemoteVariantID != "" {
			ids = append(ids, it.RemoteVariantID)
		}
	}
	if len(ids) > 0 && h.availability != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.availabilityTimeout)
		_, err := h.availability.Get(ctx, ids, inventory.WithProductHandle(h.productHandle))
		cancel()
		if err != nil {
			h.log.WarnContext(r.Context(), "availability refresh before checkout failed", "err", err)
		}
	}

	res, err := h.checkout.Checkout(r.Context(), s)
	if err != nil {
		writeError(w, r, checkoutStatus(err), checkout.Notice(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func checkoutStatus(err error) int {
	var (
		blocked    *checkout.BlockedError
		missing    *checkout.MissingVariantError
		validation *checkout.ValidationError
		cfg        *checkout.ConfigError
		remote     *checkout.RemoteError
	)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.As(err, &blocked):
		return http.StatusConflict
	case errors.As(err, &missing), errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &cfg):
		return http.StatusServiceUnavailable
	case errors.As(err, &remote):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
