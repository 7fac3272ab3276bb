package firestore

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/pearlpos/api/internal/domain"
	pfirestore "github.com/pearlpos/api/internal/platform/firestore"
)

const (
	menuCollection   = "menuItems"
	menuItemSequence = "menuItems"
)

// MenuRepository persists catalog items in Firestore.
type MenuRepository struct {
	provider *pfirestore.Provider
	items    *pfirestore.Collection[menuItemDocument]
	ids      *idAllocator
}

// NewMenuRepository constructs a Firestore-backed MenuRepository.
func NewMenuRepository(provider *pfirestore.Provider) (*MenuRepository, error) {
	if provider == nil {
		return nil, errors.New("menu repository requires firestore provider")
	}
	return &MenuRepository{
		provider: provider,
		items:    pfirestore.NewCollection[menuItemDocument](provider, menuCollection, nil),
		ids:      newIDAllocator(provider),
	}, nil
}

// Insert stores a new catalog item, assigning the next numeric ID.
func (r *MenuRepository) Insert(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	if r == nil || r.items == nil {
		return domain.MenuItem{}, errors.New("menu repository not initialised")
	}

	id, err := r.ids.next(ctx, menuItemSequence)
	if err != nil {
		return domain.MenuItem{}, err
	}
	item.ID = id

	doc := newMenuItemDocument(item)
	if _, err := r.items.Create(ctx, strconv.Itoa(id), doc); err != nil {
		return domain.MenuItem{}, err
	}
	return doc.toDomain(id), nil
}

// Update rewrites an existing catalog item.
func (r *MenuRepository) Update(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	if r == nil || r.items == nil {
		return domain.MenuItem{}, errors.New("menu repository not initialised")
	}
	if item.ID <= 0 {
		return domain.MenuItem{}, errors.New("menu update: item id is required")
	}

	// Read-before-write keeps the original creation timestamp.
	existing, err := r.items.Get(ctx, strconv.Itoa(item.ID))
	if err != nil {
		return domain.MenuItem{}, err
	}

	doc := newMenuItemDocument(item)
	doc.CreatedAt = existing.Data.CreatedAt
	if _, err := r.items.Set(ctx, strconv.Itoa(item.ID), doc); err != nil {
		return domain.MenuItem{}, err
	}
	return doc.toDomain(item.ID), nil
}

// Delete removes the catalog item.
func (r *MenuRepository) Delete(ctx context.Context, id int) error {
	if r == nil || r.items == nil {
		return errors.New("menu repository not initialised")
	}
	if id <= 0 {
		return errors.New("menu delete: item id is required")
	}
	return r.items.Delete(ctx, strconv.Itoa(id))
}

// FindByID fetches one catalog item.
func (r *MenuRepository) FindByID(ctx context.Context, id int) (domain.MenuItem, error) {
	if r == nil || r.items == nil {
		return domain.MenuItem{}, errors.New("menu repository not initialised")
	}
	doc, err := r.items.Get(ctx, strconv.Itoa(id))
	if err != nil {
		return domain.MenuItem{}, err
	}
	return doc.Data.toDomain(id), nil
}

// List returns the full catalog ordered by item ID.
func (r *MenuRepository) List(ctx context.Context) ([]domain.MenuItem, error) {
	if r == nil || r.items == nil {
		return nil, errors.New("menu repository not initialised")
	}
	docs, err := r.items.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("id", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.MenuItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.Data.toDomain(doc.Data.ID))
	}
	return items, nil
}

type menuItemDocument struct {
	ID             int             `firestore:"id"`
	Name           string          `firestore:"name"`
	Category       string          `firestore:"category"`
	BasePriceCents int64           `firestore:"basePriceCents"`
	Description    string          `firestore:"description,omitempty"`
	ImageID        int             `firestore:"imageId,omitempty"`
	Season         *seasonDocument `firestore:"season,omitempty"`
	CreatedAt      time.Time       `firestore:"createdAt"`
	UpdatedAt      time.Time       `firestore:"updatedAt"`
}

type seasonDocument struct {
	StartMonth int `firestore:"startMonth"`
	StartDay   int `firestore:"startDay"`
	EndMonth   int `firestore:"endMonth"`
	EndDay     int `firestore:"endDay"`
}

func newMenuItemDocument(item domain.MenuItem) menuItemDocument {
	doc := menuItemDocument{
		ID:             item.ID,
		Name:           strings.TrimSpace(item.Name),
		Category:       string(item.Category),
		BasePriceCents: item.BasePrice.Cents(),
		Description:    strings.TrimSpace(item.Description),
		ImageID:        item.ImageID,
		CreatedAt:      item.CreatedAt.UTC(),
		UpdatedAt:      item.UpdatedAt.UTC(),
	}
	if item.Season != nil {
		doc.Season = &seasonDocument{
			StartMonth: item.Season.Start.Month,
			StartDay:   item.Season.Start.Day,
			EndMonth:   item.Season.End.Month,
			EndDay:     item.Season.End.Day,
		}
	}
	return doc
}

func (d menuItemDocument) toDomain(id int) domain.MenuItem {
	item := domain.MenuItem{
		ID:          id,
		Name:        strings.TrimSpace(d.Name),
		Category:    domain.Category(d.Category),
		BasePrice:   domain.Money(d.BasePriceCents),
		Description: strings.TrimSpace(d.Description),
		ImageID:     d.ImageID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Season != nil {
		item.Season = &domain.SeasonWindow{
			Start: domain.MonthDay{Month: d.Season.StartMonth, Day: d.Season.StartDay},
			End:   domain.MonthDay{Month: d.Season.EndMonth, Day: d.Season.EndDay},
		}
	}
	return item
}
