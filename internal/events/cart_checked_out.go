package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
)

const (
	CartCheckedOutEventName    = "CartCheckedOut"
	CartCheckedOutEventVersion = 1
	cartCheckedOutSchema       = "contracts/events/storefront/CartCheckedOut.v1.enveloped.schema.json"

	analyticsEventVersion = 1
	analyticsSchema       = "contracts/events/storefront/Analytics.v1.enveloped.schema.json"
)

type CartCheckedOutPayload struct {
	SessionID   string               `json:"sessionId"`
	CheckoutURL string               `json:"checkoutUrl"`
	Items       []CartCheckedOutItem `json:"items"`
	Lines       []checkout.Line      `json:"lines"`
	TotalItems  int                  `json:"totalItems"`
	TotalAmount decimal.Decimal      `json:"totalAmount"`
	Currency    string               `json:"currency"`
	Timestamp   time.Time            `json:"timestamp"`
}

type CartCheckedOutItem struct {
	ID        string          `json:"id"`
	VariantID string          `json:"variantId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func newCartCheckedOutPayload(sessionID string, c checkout.CheckedOut, currency string) CartCheckedOutPayload {
	p := CartCheckedOutPayload{
		SessionID:   sessionID,
		CheckoutURL: c.CheckoutURL,
		Lines:       c.Lines,
		TotalItems:  c.TotalItems,
		TotalAmount: c.TotalPrice,
		Currency:    currency,
		Timestamp:   c.OccurredAt,
	}
	for _, it := range c.Items {
		p.Items = append(p.Items, CartCheckedOutItem{
			ID:        it.ID,
			VariantID: it.RemoteVariantID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return p
}
