package cart

import (
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/analytics"
)

// LineItem is one row of the cart. ID is chosen by the caller and usually
// combines the product with the selected size or colour.
type LineItem struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Image           string          `json:"image"`
	Quantity        int             `json:"quantity"`
	Variant         string          `json:"variant,omitempty"`
	Color           string          `json:"color,omitempty"`
	RemoteVariantID string          `json:"remoteVariantId,omitempty"`
}

// Candidate is what callers hand to AddItem.
type Candidate struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Image           string          `json:"image"`
	Variant         string          `json:"variant,omitempty"`
	Color           string          `json:"color,omitempty"`
	RemoteVariantID string          `json:"remoteVariantId,omitempty"`
}

func (c Candidate) lineItem() LineItem {
	return LineItem{
		ID:              c.ID,
		Name:            c.Name,
		Price:           c.Price,
		Image:           c.Image,
		Quantity:        1,
		Variant:         c.Variant,
		Color:           c.Color,
		RemoteVariantID: c.RemoteVariantID,
	}
}

// Subtotal is price times quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func (li LineItem) AnalyticsItem(quantity int) analytics.Item {
	return analytics.Item{
		ID:       li.ID,
		Name:     li.Name,
		Variant:  li.Variant,
		Price:    li.Price,
		Quantity: quantity,
	}
}

type Snapshot struct {
	Items      []LineItem      `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	IsOpen     bool            `json:"isOpen"`
}
