package analytics

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
)

const (
	EventAddToCart      = "add_to_cart"
	EventRemoveFromCart = "remove_from_cart"
	EventBeginCheckout  = "begin_checkout"

	DefaultCurrency = "USD"
)

type Item struct {
	ID       string          `json:"itemId"`
	Name     string          `json:"itemName"`
	Variant  string          `json:"itemVariant,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func (i Item) value() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Event struct {
	Name     string          `json:"event"`
	Currency string          `json:"currency"`
	Value    decimal.Decimal `json:"value"`
	Items    []Item          `json:"items"`
}

// Tracker receives commerce events. Implementations must not block callers
// for long and must swallow their own failures.
type Tracker interface {
	Track(ctx context.Context, e Event)
}

func AddToCart(item Item) Event {
	return single(EventAddToCart, item)
}

func RemoveFromCart(item Item) Event {
	return single(EventRemoveFromCart, item)
}

func BeginCheckout(items []Item) Event {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.value())
	}
	cp := make([]Item, len(items))
	copy(cp, items)
	return Event{Name: EventBeginCheckout, Currency: DefaultCurrency, Value: total, Items: cp}
}

func single(name string, item Item) Event {
	return Event{Name: name, Currency: DefaultCurrency, Value: item.value(), Items: []Item{item}}
}

type Nop struct{}

func (Nop) Track(context.Context, Event) {}

type LogTracker struct {
	Log *slog.Logger
}

func (t LogTracker) Track(ctx context.Context, e Event) {
	log := t.Log
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "analytics event",
		"event", e.Name,
		"currency", e.Currency,
		"value", e.Value.StringFixed(2),
		"items", len(e.Items),
	)
}
