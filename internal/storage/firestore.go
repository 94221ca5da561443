package storage

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-faster/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const FirestoreCollection = "storage_slots"

type firestoreSlot struct {
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// Firestore keeps one document per slot, keyed by the slot key.
type Firestore struct {
	Client *firestore.Client
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{Client: client}
}

func (f *Firestore) col() *firestore.CollectionRef {
	return f.Client.Collection(FirestoreCollection)
}

func (f *Firestore) Get(ctx context.Context, key string) ([]byte, error) {
	if f == nil || f.Client == nil {
		return nil, errors.New("firestore slot: client is nil")
	}

	snap, err := f.col().Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get slot document")
	}

	var doc firestoreSlot
	if err := snap.DataTo(&doc); err != nil {
		return nil, errors.Wrap(err, "decode slot document")
	}
	return []byte(doc.Value), nil
}

func (f *Firestore) Set(ctx context.Context, key string, value []byte) error {
	if f == nil || f.Client == nil {
		return errors.New("firestore slot: client is nil")
	}

	doc := firestoreSlot{Value: string(value), UpdatedAt: time.Now().UTC()}
	if _, err := f.col().Doc(key).Set(ctx, doc); err != nil {
		return errors.Wrap(err, "set slot document")
	}
	return nil
}
