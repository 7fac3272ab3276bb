package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/pearlpos/api/internal/domain"
	pfirestore "github.com/pearlpos/api/internal/platform/firestore"
	"github.com/pearlpos/api/internal/platform/pagination"
	"github.com/pearlpos/api/internal/repositories"
)

const ordersCollection = "orders"

// OrderRepository persists submitted orders in Firestore.
type OrderRepository struct {
	provider *pfirestore.Provider
	orders   *pfirestore.Collection[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed OrderRepository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		provider: provider,
		orders:   pfirestore.NewCollection[orderDocument](provider, ordersCollection, nil),
	}, nil
}

// Insert stores a submitted order. Orders are immutable once written.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.orders == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order insert: order id is required")
	}
	_, err := r.orders.Create(ctx, order.ID, newOrderDocument(order))
	return err
}

// FindByID fetches an order with its lines.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	if r == nil || r.orders == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	doc, err := r.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// List returns order summaries newest first with cursor pagination.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.OrderSummary], error) {
	if r == nil || r.orders == nil {
		return domain.CursorPage[domain.OrderSummary]{}, errors.New("order repository not initialised")
	}

	pageSize := pagination.Clamp(filter.PageSize, 50, 200)

	var cursor *orderPageToken
	if token := strings.TrimSpace(filter.PageToken); token != "" {
		var decoded orderPageToken
		if err := pagination.DecodeToken(token, &decoded); err != nil {
			return domain.CursorPage[domain.OrderSummary]{}, err
		}
		cursor = &decoded
	}

	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.OrderBy("placedAt", firestore.Desc).
			OrderBy(firestore.DocumentID, firestore.Desc).
			Limit(pageSize + 1)
		if cursor != nil {
			q = q.StartAfter(cursor.PlacedAt, cursor.ID)
		}
		return q
	})
	if err != nil {
		return domain.CursorPage[domain.OrderSummary]{}, err
	}

	summaries := make([]domain.OrderSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, domain.OrderSummary{
			ID:       doc.ID,
			PlacedAt: doc.Data.PlacedAt,
			Total:    domain.Money(doc.Data.TotalCents),
		})
	}

	hasMore := len(summaries) > pageSize
	if hasMore {
		summaries = summaries[:pageSize]
	}
	var nextToken string
	if hasMore && len(summaries) > 0 {
		last := summaries[len(summaries)-1]
		encoded, err := pagination.EncodeToken(orderPageToken{ID: last.ID, PlacedAt: last.PlacedAt})
		if err != nil {
			return domain.CursorPage[domain.OrderSummary]{}, err
		}
		nextToken = encoded
	}

	return domain.CursorPage[domain.OrderSummary]{
		Items:         summaries,
		NextPageToken: nextToken,
	}, nil
}

// ListWindow returns full orders placed within [window.Start, window.End).
func (r *OrderRepository) ListWindow(ctx context.Context, window domain.ReportWindow) ([]domain.Order, error) {
	if r == nil || r.orders == nil {
		return nil, errors.New("order repository not initialised")
	}

	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("placedAt", ">=", window.Start.UTC()).
			Where("placedAt", "<", window.End.UTC()).
			OrderBy("placedAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.Data.toDomain(doc.ID))
	}
	return orders, nil
}

// ListSoldLines flattens order lines over the window for item-level reports.
func (r *OrderRepository) ListSoldLines(ctx context.Context, window domain.ReportWindow) ([]domain.SoldLine, error) {
	orders, err := r.ListWindow(ctx, window)
	if err != nil {
		return nil, err
	}

	var lines []domain.SoldLine
	for _, order := range orders {
		for _, line := range order.Lines {
			lines = append(lines, domain.SoldLine{
				MenuItemID:    line.MenuItemID,
				ItemName:      line.ItemName,
				Quantity:      line.Quantity,
				UnitPrice:     line.UnitPrice,
				OrderPlacedAt: order.PlacedAt,
			})
		}
	}
	return lines, nil
}

type orderDocument struct {
	EmployeeID int                 `firestore:"employeeId"`
	Location   string              `firestore:"location"`
	PlacedAt   time.Time           `firestore:"placedAt"`
	TotalCents int64               `firestore:"totalCents"`
	Lines      []orderLineDocument `firestore:"lines"`
}

type orderLineDocument struct {
	MenuItemID     int    `firestore:"menuItemId"`
	ItemName       string `firestore:"itemName"`
	Description    string `firestore:"description"`
	UnitPriceCents int64  `firestore:"unitPriceCents"`
	Quantity       int    `firestore:"qty"`
}

func newOrderDocument(order domain.Order) orderDocument {
	lines := make([]orderLineDocument, len(order.Lines))
	for i, line := range order.Lines {
		lines[i] = orderLineDocument{
			MenuItemID:     line.MenuItemID,
			ItemName:       strings.TrimSpace(line.ItemName),
			Description:    strings.TrimSpace(line.Description),
			UnitPriceCents: line.UnitPrice.Cents(),
			Quantity:       line.Quantity,
		}
	}
	return orderDocument{
		EmployeeID: order.EmployeeID,
		Location:   strings.TrimSpace(order.Location),
		PlacedAt:   order.PlacedAt.UTC(),
		TotalCents: order.Total.Cents(),
		Lines:      lines,
	}
}

func (d orderDocument) toDomain(id string) domain.Order {
	lines := make([]domain.OrderLine, len(d.Lines))
	for i, line := range d.Lines {
		lines[i] = domain.OrderLine{
			MenuItemID:  line.MenuItemID,
			ItemName:    line.ItemName,
			Description: line.Description,
			UnitPrice:   domain.Money(line.UnitPriceCents),
			Quantity:    line.Quantity,
		}
	}
	return domain.Order{
		ID:         id,
		EmployeeID: d.EmployeeID,
		Location:   d.Location,
		PlacedAt:   d.PlacedAt,
		Total:      domain.Money(d.TotalCents),
		Lines:      lines,
	}
}

type orderPageToken struct {
	ID       string
	PlacedAt time.Time
}
