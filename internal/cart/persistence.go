package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
)

// StorageKey is the slot name carts are stored under.
const StorageKey = "aspenova_cart"

const defaultSlotTimeout = 3 * time.Second

// SlotKey returns the storage key for a session. An empty session uses the
// bare key.
func SlotKey(sessionID string) string {
	if sessionID == "" {
		return StorageKey
	}
	return StorageKey + ":" + sessionID
}

// SlotPersistence keeps a cart in a single storage slot.
type SlotPersistence struct {
	Slot    storage.Slot
	Key     string
	Timeout time.Duration
}

func NewSlotPersistence(slot storage.Slot, sessionID string) *SlotPersistence {
	return &SlotPersistence{Slot: slot, Key: SlotKey(sessionID), Timeout: defaultSlotTimeout}
}

// Load returns the stored items. A missing slot is an empty cart.
func (p *SlotPersistence) Load() ([]LineItem, error) {
	ctx, cancel := p.context()
	defer cancel()

	data, err := p.Slot.Get(ctx, p.Key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load slot %q", p.Key)
	}
	return DecodeItems(data)
}

func (p *SlotPersistence) Save(items []LineItem) error {
	data, err := EncodeItems(items)
	if err != nil {
		return err
	}

	ctx, cancel := p.context()
	defer cancel()

	if err := p.Slot.Set(ctx, p.Key, data); err != nil {
		return errors.Wrapf(err, "save slot %q", p.Key)
	}
	return nil
}

func (p *SlotPersistence) context() (context.Context, context.CancelFunc) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultSlotTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}
