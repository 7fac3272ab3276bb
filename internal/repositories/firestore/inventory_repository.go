package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/pearlpos/api/internal/domain"
	pfirestore "github.com/pearlpos/api/internal/platform/firestore"
)

const (
	inventoryCollection = "inventory"
	inventorySequence   = "inventory"
)

// InventoryRepository manages ingredient stock in Firestore.
type InventoryRepository struct {
	provider *pfirestore.Provider
	items    *pfirestore.Collection[inventoryDocument]
	ids      *idAllocator
}

// NewInventoryRepository constructs a Firestore-backed InventoryRepository.
func NewInventoryRepository(provider *pfirestore.Provider) (*InventoryRepository, error) {
	if provider == nil {
		return nil, errors.New("inventory repository requires firestore provider")
	}
	return &InventoryRepository{
		provider: provider,
		items:    pfirestore.NewCollection[inventoryDocument](provider, inventoryCollection, nil),
		ids:      newIDAllocator(provider),
	}, nil
}

// Insert stores a new ingredient, assigning the next numeric ID.
func (r *InventoryRepository) Insert(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	if r == nil || r.items == nil {
		return domain.InventoryItem{}, errors.New("inventory repository not initialised")
	}

	id, err := r.ids.next(ctx, inventorySequence)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	item.ID = id

	doc := newInventoryDocument(item)
	if _, err := r.items.Create(ctx, strconv.Itoa(id), doc); err != nil {
		return domain.InventoryItem{}, err
	}
	return doc.toDomain(id), nil
}

// Update rewrites an existing ingredient record.
func (r *InventoryRepository) Update(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	if r == nil || r.items == nil {
		return domain.InventoryItem{}, errors.New("inventory repository not initialised")
	}
	if item.ID <= 0 {
		return domain.InventoryItem{}, errors.New("inventory update: item id is required")
	}

	if _, err := r.items.Get(ctx, strconv.Itoa(item.ID)); err != nil {
		return domain.InventoryItem{}, err
	}

	doc := newInventoryDocument(item)
	if _, err := r.items.Set(ctx, strconv.Itoa(item.ID), doc); err != nil {
		return domain.InventoryItem{}, err
	}
	return doc.toDomain(item.ID), nil
}

// Delete removes the ingredient record.
func (r *InventoryRepository) Delete(ctx context.Context, id int) error {
	if r == nil || r.items == nil {
		return errors.New("inventory repository not initialised")
	}
	if id <= 0 {
		return errors.New("inventory delete: item id is required")
	}
	return r.items.Delete(ctx, strconv.Itoa(id))
}

// FindByID fetches one ingredient.
func (r *InventoryRepository) FindByID(ctx context.Context, id int) (domain.InventoryItem, error) {
	if r == nil || r.items == nil {
		return domain.InventoryItem{}, errors.New("inventory repository not initialised")
	}
	doc, err := r.items.Get(ctx, strconv.Itoa(id))
	if err != nil {
		return domain.InventoryItem{}, err
	}
	return doc.Data.toDomain(id), nil
}

// List returns every ingredient ordered by ID.
func (r *InventoryRepository) List(ctx context.Context) ([]domain.InventoryItem, error) {
	if r == nil || r.items == nil {
		return nil, errors.New("inventory repository not initialised")
	}
	docs, err := r.items.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("id", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.InventoryItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.Data.toDomain(doc.Data.ID))
	}
	return items, nil
}

// AdjustQuantities applies the deltas atomically. Quantities clamp at zero
// rather than going negative when stock tracking has drifted from reality.
func (r *InventoryRepository) AdjustQuantities(ctx context.Context, deltas map[int]float64, now time.Time) ([]domain.InventoryItem, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("inventory repository not initialised")
	}
	if len(deltas) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(deltas))
	for id := range deltas {
		if id <= 0 {
			return nil, fmt.Errorf("inventory adjust: invalid item id %d", id)
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	now = now.UTC()
	var updated []domain.InventoryItem
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		updated = updated[:0]
		for _, id := range ids {
			ref, err := r.items.DocumentRef(ctx, strconv.Itoa(id))
			if err != nil {
				return err
			}
			snap, err := tx.Get(ref)
			if err != nil {
				if status.Code(err) == codes.NotFound {
					return pfirestore.WrapError("inventory.adjust", err)
				}
				return err
			}
			var doc inventoryDocument
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("decode inventory item %d: %w", id, err)
			}

			doc.Quantity += deltas[id]
			if doc.Quantity < 0 {
				doc.Quantity = 0
			}
			doc.UpdatedAt = now
			if err := tx.Set(ref, doc); err != nil {
				return err
			}
			updated = append(updated, doc.toDomain(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RecordRestock adds the ordered amount to both the on-hand quantity and the
// running restockOrdered total used by the discards metric.
func (r *InventoryRepository) RecordRestock(ctx context.Context, id int, amount float64, now time.Time) (domain.InventoryItem, error) {
	if r == nil || r.provider == nil {
		return domain.InventoryItem{}, errors.New("inventory repository not initialised")
	}
	if id <= 0 {
		return domain.InventoryItem{}, errors.New("inventory restock: item id is required")
	}
	if amount <= 0 {
		return domain.InventoryItem{}, errors.New("inventory restock: amount must be positive")
	}

	now = now.UTC()
	var updated domain.InventoryItem
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.items.DocumentRef(ctx, strconv.Itoa(id))
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc inventoryDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode inventory item %d: %w", id, err)
		}

		doc.Quantity += amount
		doc.RestockOrdered += amount
		doc.UpdatedAt = now
		if err := tx.Set(ref, doc); err != nil {
			return err
		}
		updated = doc.toDomain(id)
		return nil
	})
	if err != nil {
		return domain.InventoryItem{}, err
	}
	return updated, nil
}

// SumRestockOrdered totals restockOrdered across every item.
func (r *InventoryRepository) SumRestockOrdered(ctx context.Context) (float64, error) {
	items, err := r.List(ctx)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, item := range items {
		total += item.RestockOrdered
	}
	return total, nil
}

type inventoryDocument struct {
	ID             int       `firestore:"id"`
	Name           string    `firestore:"name"`
	Unit           string    `firestore:"unit"`
	Quantity       float64   `firestore:"quantity"`
	RestockMinimum int       `firestore:"restockMinimum"`
	RestockOrdered float64   `firestore:"restockOrdered"`
	UpdatedAt      time.Time `firestore:"updatedAt"`
}

func newInventoryDocument(item domain.InventoryItem) inventoryDocument {
	return inventoryDocument{
		ID:             item.ID,
		Name:           strings.TrimSpace(item.Name),
		Unit:           strings.TrimSpace(item.Unit),
		Quantity:       item.Quantity,
		RestockMinimum: item.RestockMinimum,
		RestockOrdered: item.RestockOrdered,
		UpdatedAt:      item.UpdatedAt.UTC(),
	}
}

func (d inventoryDocument) toDomain(id int) domain.InventoryItem {
	return domain.InventoryItem{
		ID:             id,
		Name:           d.Name,
		Unit:           d.Unit,
		Quantity:       d.Quantity,
		RestockMinimum: d.RestockMinimum,
		RestockOrdered: d.RestockOrdered,
		UpdatedAt:      d.UpdatedAt,
	}
}
