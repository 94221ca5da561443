package cart

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

type storedItem struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Price           json.Number `json:"price"`
	Image           string      `json:"image"`
	Quantity        int         `json:"quantity"`
	Variant         string      `json:"variant,omitempty"`
	Color           string      `json:"color,omitempty"`
	RemoteVariantID string      `json:"remoteVariantId,omitempty"`
}

type loadedItem struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`
	Image            string          `json:"image"`
	Quantity         int             `json:"quantity"`
	Variant          string          `json:"variant"`
	Color            string          `json:"color"`
	RemoteVariantID  string          `json:"remoteVariantId"`
	ShopifyVariantID string          `json:"shopifyVariantId"`
}

// EncodeItems renders items as the JSON array kept in durable storage.
// Prices are written as plain JSON numbers.
func EncodeItems(items []LineItem) ([]byte, error) {
	out := make([]storedItem, 0, len(items))
	for _, it := range items {
		out = append(out, storedItem{
			ID:              it.ID,
			Name:            it.Name,
			Price:           json.Number(it.Price.String()),
			Image:           it.Image,
			Quantity:        it.Quantity,
			Variant:         it.Variant,
			Color:           it.Color,
			RemoteVariantID: it.RemoteVariantID,
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, errors.Wrap(err, "encode cart items")
	}
	return b, nil
}

// DecodeItems parses a stored item list. Entries that cannot be parsed,
// have no id, a quantity below 1 or a negative price are dropped. Repeated
// ids are merged into the first occurrence.
func DecodeItems(data []byte) ([]LineItem, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode cart items")
	}

	items := make([]LineItem, 0, len(raw))
	index := make(map[string]int, len(raw))
	for _, r := range raw {
		var li loadedItem
		if err := json.Unmarshal(r, &li); err != nil {
			continue
		}
		if li.ID == "" || li.Quantity < 1 || li.Price.IsNegative() {
			continue
		}
		if i, ok := index[li.ID]; ok {
			items[i].Quantity += li.Quantity
			continue
		}

		remote := li.RemoteVariantID
		if remote == "" {
			remote = li.ShopifyVariantID
		}
		index[li.ID] = len(items)
		items = append(items, LineItem{
			ID:              li.ID,
			Name:            li.Name,
			Price:           li.Price,
			Image:           li.Image,
			Quantity:        li.Quantity,
			Variant:         li.Variant,
			Color:           li.Color,
			RemoteVariantID: remote,
		})
	}
	return items, nil
}
