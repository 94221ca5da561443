package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/inventory"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
)

const defaultAvailabilityTimeout = 5 * time.Second

type AvailabilityService interface {
	Get(ctx context.Context, variantIDs []string, opts ...inventory.LookupOption) (inventory.Snapshot, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, store *cart.Store) (checkout.Result, error)
}

type Deps struct {
	Logger       *slog.Logger
	Sessions     *cart.Sessions
	Availability AvailabilityService
	Checkout     CheckoutService

	// ProductHandle is the default handle for availability lookups.
	ProductHandle string
	// DefaultVariantID is used for added items that carry no remote variant.
	DefaultVariantID string

	AvailabilityTimeout time.Duration
}

type Handler struct {
	log                 *slog.Logger
	sessions            *cart.Sessions
	availability        AvailabilityService
	checkout            CheckoutService
	productHandle       string
	defaultVariantID    string
	availabilityTimeout time.Duration
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		log:                 d.Logger,
		sessions:            d.Sessions,
		availability:        d.Availability,
		checkout:            d.Checkout,
		productHandle:       strings.TrimSpace(d.ProductHandle),
		defaultVariantID:    strings.TrimSpace(d.DefaultVariantID),
		availabilityTimeout: d.AvailabilityTimeout,
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	if h.availabilityTimeout <= 0 {
		h.availabilityTimeout = defaultAvailabilityTimeout
	}
	return h
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) store(r *http.Request) *cart.Store {
	return h.sessions.Get(middleware.GetSessionID(r.Context()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, middleware.ErrorResponse{
		Error:         msg,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
}
