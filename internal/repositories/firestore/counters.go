package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/pearlpos/api/internal/platform/firestore"
)

const countersCollection = "counters"

type counterDocument struct {
	Next int64 `firestore:"next"`
}

// idAllocator hands out monotonically increasing numeric IDs per sequence
// name using a transactional counter document.
type idAllocator struct {
	provider *pfirestore.Provider
	counters *pfirestore.Collection[counterDocument]
}

func newIDAllocator(provider *pfirestore.Provider) *idAllocator {
	return &idAllocator{
		provider: provider,
		counters: pfirestore.NewCollection[counterDocument](provider, countersCollection, nil),
	}
}

func (a *idAllocator) next(ctx context.Context, sequence string) (int, error) {
	if a == nil || a.provider == nil {
		return 0, errors.New("id allocator not initialised")
	}

	var allocated int64
	err := a.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := a.counters.DocumentRef(ctx, sequence)
		if err != nil {
			return err
		}

		doc := counterDocument{Next: 1}
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
		} else if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode counter %s: %w", sequence, err)
		}
		if doc.Next < 1 {
			doc.Next = 1
		}

		allocated = doc.Next
		doc.Next++
		return tx.Set(ref, doc)
	})
	if err != nil {
		return 0, pfirestore.WrapError("counters.next", err)
	}
	return int(allocated), nil
}
