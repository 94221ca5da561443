// Package storage provides key/value slots for small JSON documents such as
// serialized carts.
package storage

import (
	"context"

	"github.com/go-faster/errors"
)

var ErrNotFound = errors.New("slot not found")

// Slot is a durable string-keyed store. Get returns ErrNotFound for keys
// that were never written.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
