package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/pearlpos/api/internal/domain"
)

func newTestInventoryService(t *testing.T, deps InventoryServiceDeps) InventoryService {
	t.Helper()
	if deps.Inventory == nil {
		deps.Inventory = &stubInventoryRepo{}
	}
	if deps.Recipes == nil {
		deps.Recipes = &stubRecipeRepo{}
	}
	svc, err := NewInventoryService(deps)
	if err != nil {
		t.Fatalf("NewInventoryService: %v", err)
	}
	return svc
}

func TestInventoryListRestockNeeded(t *testing.T) {
	inventory := &stubInventoryRepo{
		listFn: func(context.Context) ([]domain.InventoryItem, error) {
			return []domain.InventoryItem{
				{ID: 1, Name: "Milk", Quantity: 3, RestockMinimum: 5},
				{ID: 2, Name: "Sugar", Quantity: 20, RestockMinimum: 5},
				{ID: 3, Name: "Boba", Quantity: 5, RestockMinimum: 5},
			}, nil
		},
	}
	svc := newTestInventoryService(t, InventoryServiceDeps{Inventory: inventory})

	views, err := svc.ListRestockNeeded(context.Background())
	if err != nil {
		t.Fatalf("ListRestockNeeded: %v", err)
	}
	// Quantity equal to the minimum still needs restock.
	if len(views) != 2 {
		t.Fatalf("expected 2 items, got %d", len(views))
	}
	if views[0].Name != "Milk" || views[1].Name != "Boba" {
		t.Fatalf("unexpected items %q %q", views[0].Name, views[1].Name)
	}
	for _, view := range views {
		if !view.NeedsRestock {
			t.Fatalf("restock flag not set on %q", view.Name)
		}
	}
}

func TestInventoryRequestRestockRecordsAndAlerts(t *testing.T) {
	now := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	inventory := &stubInventoryRepo{
		restockFn: func(_ context.Context, id int, amount float64, at time.Time) (domain.InventoryItem, error) {
			if id != 7 || amount != 10 {
				t.Fatalf("unexpected restock args id=%d amount=%f", id, amount)
			}
			if !at.Equal(now) {
				t.Fatalf("unexpected restock time %v", at)
			}
			return domain.InventoryItem{ID: 7, Name: "Milk", Quantity: 13, RestockMinimum: 5, RestockOrdered: 10}, nil
		},
	}
	alerts := &captureRestockAlerts{}
	svc := newTestInventoryService(t, InventoryServiceDeps{
		Inventory: inventory,
		Alerts:    alerts,
		Clock:     func() time.Time { return now },
	})

	view, err := svc.RequestRestock(context.Background(), 7, 10)
	if err != nil {
		t.Fatalf("RequestRestock: %v", err)
	}
	if view.Quantity != 13 || view.NeedsRestock {
		t.Fatalf("unexpected view %+v", view)
	}
	if len(alerts.messages) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts.messages))
	}
	msg := alerts.messages[0]
	if msg.InventoryID != "7" || msg.Name != "Milk" || msg.OrderedAmount != 10 {
		t.Fatalf("unexpected alert %+v", msg)
	}
}

func TestInventoryRequestRestockSurvivesAlertFailure(t *testing.T) {
	inventory := &stubInventoryRepo{
		restockFn: func(_ context.Context, id int, amount float64, _ time.Time) (domain.InventoryItem, error) {
			return domain.InventoryItem{ID: id, Name: "Milk", Quantity: amount}, nil
		},
	}
	alerts := &captureRestockAlerts{err: errors.New("broker down")}
	svc := newTestInventoryService(t, InventoryServiceDeps{Inventory: inventory, Alerts: alerts})

	if _, err := svc.RequestRestock(context.Background(), 7, 10); err != nil {
		t.Fatalf("alert failure should not fail the restock: %v", err)
	}
}

func TestInventoryRequestRestockValidation(t *testing.T) {
	svc := newTestInventoryService(t, InventoryServiceDeps{})
	ctx := context.Background()

	if _, err := svc.RequestRestock(ctx, 0, 10); !errors.Is(err, ErrInventoryInvalidInput) {
		t.Fatalf("expected invalid input for zero id, got %v", err)
	}
	if _, err := svc.RequestRestock(ctx, 7, 0); !errors.Is(err, ErrInventoryInvalidInput) {
		t.Fatalf("expected invalid input for zero amount, got %v", err)
	}
}

func TestInventoryConsumeForOrderAggregatesAcrossLines(t *testing.T) {
	recipes := &stubRecipeRepo{
		byItemFn: func(_ context.Context, menuItemID int) ([]domain.RecipeLine, error) {
			switch menuItemID {
			case 1:
				return []domain.RecipeLine{
					{MenuItemID: 1, InventoryID: 100, QuantityUsed: 0.25},
					{MenuItemID: 1, InventoryID: 101, QuantityUsed: 1},
				}, nil
			case 2:
				return []domain.RecipeLine{
					{MenuItemID: 2, InventoryID: 100, QuantityUsed: 0.5},
				}, nil
			}
			return nil, nil
		},
	}
	var gotDeltas map[int]float64
	inventory := &stubInventoryRepo{
		adjustFn: func(_ context.Context, deltas map[int]float64, _ time.Time) ([]domain.InventoryItem, error) {
			gotDeltas = deltas
			return nil, nil
		},
	}
	svc := newTestInventoryService(t, InventoryServiceDeps{Inventory: inventory, Recipes: recipes})

	err := svc.ConsumeForOrder(context.Background(), []domain.OrderLine{
		{MenuItemID: 1, Quantity: 2},
		{MenuItemID: 1, Quantity: 1},
		{MenuItemID: 2, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("ConsumeForOrder: %v", err)
	}
	if gotDeltas == nil {
		t.Fatalf("AdjustQuantities not called")
	}
	// Item 1 sold 3 times, item 2 twice.
	if gotDeltas[100] != -(0.25*3 + 0.5*2) {
		t.Fatalf("unexpected milk delta %f", gotDeltas[100])
	}
	if gotDeltas[101] != -3 {
		t.Fatalf("unexpected boba delta %f", gotDeltas[101])
	}
}

func TestInventoryConsumeForOrderNoRecipes(t *testing.T) {
	adjusted := false
	inventory := &stubInventoryRepo{
		adjustFn: func(_ context.Context, deltas map[int]float64, _ time.Time) ([]domain.InventoryItem, error) {
			adjusted = true
			return nil, nil
		},
	}
	svc := newTestInventoryService(t, InventoryServiceDeps{Inventory: inventory})

	if err := svc.ConsumeForOrder(context.Background(), []domain.OrderLine{{MenuItemID: 1, Quantity: 1}}); err != nil {
		t.Fatalf("ConsumeForOrder: %v", err)
	}
	if adjusted {
		t.Fatalf("no deltas expected without recipes")
	}
}

func TestInventoryUpdatePreservesRestockOrdered(t *testing.T) {
	inventory := &stubInventoryRepo{
		findFn: func(_ context.Context, id int) (domain.InventoryItem, error) {
			return domain.InventoryItem{ID: id, Name: "Milk", Quantity: 5, RestockOrdered: 42}, nil
		},
		updateFn: func(_ context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
			return item, nil
		},
	}
	svc := newTestInventoryService(t, InventoryServiceDeps{Inventory: inventory})

	view, err := svc.UpdateItem(context.Background(), 3, InventoryItemCommand{Name: "Whole Milk", Unit: "L", Quantity: 8, RestockMinimum: 5})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if view.RestockOrdered != 42 {
		t.Fatalf("restockOrdered lost on update: %+v", view)
	}
	if view.Name != "Whole Milk" || view.Quantity != 8 {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestInventoryCreateValidation(t *testing.T) {
	svc := newTestInventoryService(t, InventoryServiceDeps{})
	ctx := context.Background()

	if _, err := svc.CreateItem(ctx, InventoryItemCommand{Unit: "L"}); !errors.Is(err, ErrInventoryInvalidInput) {
		t.Fatalf("expected invalid input for blank name, got %v", err)
	}
	if _, err := svc.CreateItem(ctx, InventoryItemCommand{Name: "Milk", Quantity: -1}); !errors.Is(err, ErrInventoryInvalidInput) {
		t.Fatalf("expected invalid input for negative quantity, got %v", err)
	}
}
