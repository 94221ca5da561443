// Package checkout turns a cart into a remote checkout session.
package checkout

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/analytics"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/inventory"
)

// Line is one merchandise line submitted to the store.
type Line struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
}

type AvailabilityReader interface {
	Peek(variantIDs []string) inventory.Snapshot
	Invalidate(variantIDs ...string)
}

// Submitter creates the remote checkout and returns its redirect URL.
type Submitter interface {
	CreateCheckout(ctx context.Context, lines []Line) (string, error)
}

// CheckedOut describes a cart that was handed to the store.
type CheckedOut struct {
	CheckoutURL string
	Lines       []Line
	Items       []cart.LineItem
	TotalItems  int
	TotalPrice  decimal.Decimal
	OccurredAt  time.Time
}

type Notifier interface {
	CartCheckedOut(ctx context.Context, c CheckedOut) error
}

type Result struct {
	CheckoutURL string `json:"checkoutUrl"`
	Notice      string `json:"notice"`
	Lines       []Line `json:"lines"`
}

type Option func(*Builder)

func WithTracker(t analytics.Tracker) Option {
	return func(b *Builder) {
		if t != nil {
			b.tracker = t
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(b *Builder) { b.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

type Builder struct {
	availability AvailabilityReader
	submitter    Submitter
	tracker      analytics.Tracker
	notifier     Notifier
	log          *slog.Logger
	now          func() time.Time
}

func NewBuilder(availability AvailabilityReader, submitter Submitter, opts ...Option) *Builder {
	b := &Builder{
		availability: availability,
		submitter:    submitter,
		tracker:      analytics.Nop{},
		log:          slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Checkout validates the cart against cached availability, submits it and
// removes the submitted items on success. Items added while the submission
// was in flight stay in the cart. On any error the cart is left untouched.
func (b *Builder) Checkout(ctx context.Context, store *cart.Store) (Result, error) {
	snap := store.Snapshot()
	items := snap.Items
	if len(items) == 0 {
		return Result{}, ErrEmptyCart
	}

	if err := b.checkAvailability(items); err != nil {
		return Result{}, err
	}

	lines, err := BuildLines(items)
	if err != nil {
		return Result{}, err
	}

	b.tracker.Track(ctx, beginCheckout(items))

	url, err := b.submitter.CreateCheckout(ctx, lines)
	if err != nil {
		b.log.ErrorContext(ctx, "checkout submission failed", "err", err, "lines", len(lines))
		return Result{}, err
	}

	store.RemoveSubmitted(items)

	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.MerchandiseID)
	}
	if b.availability != nil {
		b.availability.Invalidate(ids...)
	}

	if b.notifier != nil {
		evt := CheckedOut{
			CheckoutURL: url,
			Lines:       lines,
			Items:       snap.Items,
			TotalItems:  snap.TotalItems,
			TotalPrice:  snap.TotalPrice,
			OccurredAt:  b.now().UTC(),
		}
		if err := b.notifier.CartCheckedOut(ctx, evt); err != nil {
			b.log.WarnContext(ctx, "cart checked out notification failed", "err", err)
		}
	}

	return Result{CheckoutURL: url, Notice: NoticeRedirect, Lines: lines}, nil
}

// checkAvailability returns a BlockedError for the first item whose cached
// record refuses its quantity. Items without a record are allowed.
func (b *Builder) checkAvailability(items []cart.LineItem) error {
	if b.availability == nil {
		return nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.RemoteVariantID)
	}
	snap := b.availability.Peek(ids)

	for _, it := range items {
		rec, ok := snap.Lookup(it.RemoteVariantID)
		if !ok || rec.Permits(it.Quantity) {
			continue
		}
		be := &BlockedError{ItemID: it.ID, Name: it.Name, Reason: Oversold, Requested: it.Quantity}
		if !rec.AvailableForSale {
			be.Reason = NotForSale
		}
		if rec.QuantityAvailable != nil {
			be.Available = *rec.QuantityAvailable
		}
		return be
	}
	return nil
}

// BuildLines merges items sharing a remote variant into one line, keeping
// the order in which variants first appear.
func BuildLines(items []cart.LineItem) ([]Line, error) {
	lines := make([]Line, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if it.RemoteVariantID == "" {
			return nil, &MissingVariantError{ItemID: it.ID, Name: it.Name}
		}
		if i, ok := index[it.RemoteVariantID]; ok {
			lines[i].Quantity += it.Quantity
			continue
		}
		index[it.RemoteVariantID] = len(lines)
		lines = append(lines, Line{MerchandiseID: it.RemoteVariantID, Quantity: it.Quantity})
	}
	return lines, nil
}

func beginCheckout(items []cart.LineItem) analytics.Event {
	out := make([]analytics.Item, 0, len(items))
	for _, it := range items {
		out = append(out, it.AnalyticsItem(it.Quantity))
	}
	return analytics.BeginCheckout(out)
}
