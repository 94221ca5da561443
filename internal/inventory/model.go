package inventory

import "context"

// Record is the last known availability of one remote variant.
// QuantityAvailable is nil when the store does not expose stock counts.
type Record struct {
	AvailableForSale  bool `json:"availableForSale"`
	QuantityAvailable *int `json:"quantityAvailable"`
}

// Permits reports whether quantity units may be bought.
func (r Record) Permits(quantity int) bool {
	if !r.AvailableForSale {
		return false
	}
	return r.QuantityAvailable == nil || *r.QuantityAvailable >= quantity
}

// Snapshot maps variant ids to records. Ids with unknown availability are
// absent.
type Snapshot map[string]Record

func (s Snapshot) Lookup(id string) (Record, bool) {
	r, ok := s[id]
	return r, ok
}

// Fetcher reads availability from the remote commerce API.
type Fetcher interface {
	VariantAvailability(ctx context.Context, variantID string) (Record, error)
	ProductVariantAvailability(ctx context.Context, handle string) (map[string]Record, error)
}

func Quantity(n int) *int { return &n }
