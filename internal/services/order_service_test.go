package services

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	domain "github.com/pearlpos/api/internal/domain"
)

func newTestOrderService(t *testing.T, deps OrderServiceDeps) OrderService {
	t.Helper()
	if deps.Menu == nil {
		deps.Menu = &stubMenuRepo{}
	}
	if deps.Orders == nil {
		deps.Orders = &stubOrderRepo{}
	}
	if deps.Employees == nil {
		deps.Employees = &stubEmployeeRepo{}
	}
	if deps.Pricing == nil {
		deps.Pricing = mustPricingEngine()
	}
	if deps.Hours == (BusinessHours{}) {
		deps.Hours = BusinessHours{Opening: 9, Closing: 17}
	}
	if deps.Location == "" {
		deps.Location = "College Station"
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(1))
	}
	svc, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return svc
}

func milkTeaMenu() *stubMenuRepo {
	return &stubMenuRepo{
		findFn: func(_ context.Context, id int) (domain.MenuItem, error) {
			return domain.MenuItem{ID: id, Name: "Classic Milk Tea", BasePrice: domain.Cents(550)}, nil
		},
	}
}

func TestOrderDraftAccumulatesAndTotals(t *testing.T) {
	svc := newTestOrderService(t, OrderServiceDeps{Menu: milkTeaMenu()})
	ctx := context.Background()

	draft, err := svc.AddLine(ctx, 42, OrderLineCommand{MenuItemID: 1, Quantity: 2, Extras: []string{"Pudding"}})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if len(draft.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(draft.Lines))
	}
	// (550 + 50) * 2
	if draft.Total != domain.Cents(1200) {
		t.Fatalf("unexpected total %d", draft.Total)
	}

	draft, err = svc.AddLine(ctx, 42, OrderLineCommand{MenuItemID: 1, Quantity: 1})
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if draft.Total != domain.Cents(1750) {
		t.Fatalf("unexpected total %d", draft.Total)
	}

	draft, err = svc.RemoveLine(ctx, 42, 0)
	if err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}
	if len(draft.Lines) != 1 || draft.Total != domain.Cents(550) {
		t.Fatalf("unexpected draft after remove %+v", draft)
	}

	if _, err := svc.RemoveLine(ctx, 42, 5); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected invalid input for bad index, got %v", err)
	}
}

func TestOrderDraftsIsolatedPerEmployee(t *testing.T) {
	svc := newTestOrderService(t, OrderServiceDeps{Menu: milkTeaMenu()})
	ctx := context.Background()

	if _, err := svc.AddLine(ctx, 1, OrderLineCommand{MenuItemID: 1, Quantity: 1}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	other, err := svc.Draft(ctx, 2)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if len(other.Lines) != 0 {
		t.Fatalf("expected empty draft for other employee, got %d lines", len(other.Lines))
	}
}

func TestOrderAddLineRejectsOutOfSeasonItem(t *testing.T) {
	menu := &stubMenuRepo{
		findFn: func(_ context.Context, id int) (domain.MenuItem, error) {
			return domain.MenuItem{
				ID:        id,
				Name:      "Pumpkin Spice",
				BasePrice: domain.Cents(650),
				Season: &domain.SeasonWindow{
					Start: domain.MonthDay{Month: 9, Day: 1},
					End:   domain.MonthDay{Month: 11, Day: 30},
				},
			}, nil
		},
	}
	clock := func() time.Time { return time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC) }
	svc := newTestOrderService(t, OrderServiceDeps{Menu: menu, Clock: clock})

	if _, err := svc.AddLine(context.Background(), 1, OrderLineCommand{MenuItemID: 5, Quantity: 1}); !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got %v", err)
	}
}

func TestOrderAddLineRejectsUnknownMenuItem(t *testing.T) {
	menu := &stubMenuRepo{
		findFn: func(_ context.Context, id int) (domain.MenuItem, error) {
			return domain.MenuItem{}, notFoundRepoErr{}
		},
	}
	svc := newTestOrderService(t, OrderServiceDeps{Menu: menu})

	if _, err := svc.AddLine(context.Background(), 1, OrderLineCommand{MenuItemID: 99, Quantity: 1}); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
	}
}

func TestOrderSubmitPersistsPublishesAndClears(t *testing.T) {
	now := time.Date(2026, 6, 3, 14, 30, 0, 0, time.UTC)
	var inserted domain.Order
	orders := &stubOrderRepo{
		insertFn: func(_ context.Context, order domain.Order) error {
			inserted = order
			return nil
		},
	}
	events := &captureOrderEvents{}
	var consumed []domain.OrderLine
	svc := newTestOrderService(t, OrderServiceDeps{
		Menu:      milkTeaMenu(),
		Orders:    orders,
		Publisher: events,
		Inventory: inventoryConsumerFunc(func(_ context.Context, lines []domain.OrderLine) error {
			consumed = lines
			return nil
		}),
		Clock: func() time.Time { return now },
		NewID: func(time.Time) string { return "order-1" },
	})
	ctx := context.Background()

	if _, err := svc.AddLine(ctx, 42, OrderLineCommand{MenuItemID: 1, Quantity: 3}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	order, err := svc.Submit(ctx, SubmitCommand{EmployeeID: 42})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if order.ID != "order-1" || order.EmployeeID != 42 || order.Location != "College Station" {
		t.Fatalf("unexpected order %+v", order)
	}
	if !order.PlacedAt.Equal(now) {
		t.Fatalf("unexpected placedAt %v", order.PlacedAt)
	}
	if order.Total != domain.Cents(1650) {
		t.Fatalf("unexpected total %d", order.Total)
	}
	if inserted.ID != "order-1" {
		t.Fatalf("order not persisted")
	}
	if len(consumed) != 1 {
		t.Fatalf("inventory not consumed")
	}
	if len(events.messages) != 1 || events.messages[0].OrderID != "order-1" || events.messages[0].EmployeeID != "42" {
		t.Fatalf("unexpected events %+v", events.messages)
	}

	draft, err := svc.Draft(ctx, 42)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if len(draft.Lines) != 0 {
		t.Fatalf("draft should be cleared after submit")
	}
}

func TestOrderSubmitEmptyDraft(t *testing.T) {
	svc := newTestOrderService(t, OrderServiceDeps{})
	if _, err := svc.Submit(context.Background(), SubmitCommand{EmployeeID: 1}); !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}
}

func TestOrderSubmitKeepsDraftOnInsertFailure(t *testing.T) {
	orders := &stubOrderRepo{
		insertFn: func(context.Context, domain.Order) error { return errors.New("boom") },
	}
	svc := newTestOrderService(t, OrderServiceDeps{Menu: milkTeaMenu(), Orders: orders})
	ctx := context.Background()

	if _, err := svc.AddLine(ctx, 7, OrderLineCommand{MenuItemID: 1, Quantity: 1}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if _, err := svc.Submit(ctx, SubmitCommand{EmployeeID: 7}); err == nil {
		t.Fatalf("expected submit failure")
	}

	draft, err := svc.Draft(ctx, 7)
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if len(draft.Lines) != 1 {
		t.Fatalf("draft should survive a failed submit, got %d lines", len(draft.Lines))
	}
}

func TestOrderSubmitSucceedsWhenConsumptionFails(t *testing.T) {
	svc := newTestOrderService(t, OrderServiceDeps{
		Menu: milkTeaMenu(),
		Inventory: inventoryConsumerFunc(func(context.Context, []domain.OrderLine) error {
			return errors.New("stock offline")
		}),
	})
	ctx := context.Background()

	if _, err := svc.AddLine(ctx, 7, OrderLineCommand{MenuItemID: 1, Quantity: 1}); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	if _, err := svc.Submit(ctx, SubmitCommand{EmployeeID: 7}); err != nil {
		t.Fatalf("submit should not fail on consumption error: %v", err)
	}
}

func TestOrderSubmitBackdatedRotatesCashiersAndRandomizesTime(t *testing.T) {
	cashiers := []domain.Employee{
		{ID: 10, Name: "A", Position: domain.PositionCashier},
		{ID: 11, Name: "B", Position: domain.PositionCashier},
	}
	employees := &stubEmployeeRepo{
		byPositionFn: func(_ context.Context, position string) ([]domain.Employee, error) {
			if position != domain.PositionCashier {
				t.Fatalf("unexpected position %q", position)
			}
			return cashiers, nil
		},
	}
	var placed []domain.Order
	orders := &stubOrderRepo{
		insertFn: func(_ context.Context, order domain.Order) error {
			placed = append(placed, order)
			return nil
		},
	}
	svc := newTestOrderService(t, OrderServiceDeps{
		Menu:      milkTeaMenu(),
		Orders:    orders,
		Employees: employees,
		Hours:     BusinessHours{Opening: 9, Closing: 17},
	})
	ctx := context.Background()
	day := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := svc.AddLine(ctx, 1, OrderLineCommand{MenuItemID: 1, Quantity: 1}); err != nil {
			t.Fatalf("AddLine: %v", err)
		}
		if _, err := svc.Submit(ctx, SubmitCommand{EmployeeID: 1, BackdateDay: &day}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	if len(placed) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(placed))
	}
	if placed[0].EmployeeID != 10 || placed[1].EmployeeID != 11 || placed[2].EmployeeID != 10 {
		t.Fatalf("cashier rotation broken: %d %d %d", placed[0].EmployeeID, placed[1].EmployeeID, placed[2].EmployeeID)
	}
	for _, order := range placed {
		if order.PlacedAt.Year() != 2026 || order.PlacedAt.Month() != time.January || order.PlacedAt.Day() != 12 {
			t.Fatalf("backdated order on wrong day: %v", order.PlacedAt)
		}
		if order.PlacedAt.Hour() < 9 || order.PlacedAt.Hour() >= 17 {
			t.Fatalf("backdated time outside business hours: %v", order.PlacedAt)
		}
	}
}

func TestOrderSubmitConcurrentMintsUniqueIDs(t *testing.T) {
	var mu sync.Mutex
	ids := make(map[string]int)
	orders := &stubOrderRepo{
		insertFn: func(_ context.Context, order domain.Order) error {
			mu.Lock()
			ids[order.ID]++
			mu.Unlock()
			return nil
		},
	}
	svc := newTestOrderService(t, OrderServiceDeps{Menu: milkTeaMenu(), Orders: orders})
	ctx := context.Background()
	day := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	const registers = 8
	for i := 0; i < registers; i++ {
		if _, err := svc.AddLine(ctx, i+1, OrderLineCommand{MenuItemID: 1, Quantity: 1}); err != nil {
			t.Fatalf("AddLine: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < registers; i++ {
		employee := i + 1
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Submit(ctx, SubmitCommand{EmployeeID: employee, BackdateDay: &day}); err != nil {
				t.Errorf("Submit: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(ids) != registers {
		t.Fatalf("expected %d distinct order ids, got %d", registers, len(ids))
	}
}

type inventoryConsumerFunc func(ctx context.Context, lines []domain.OrderLine) error

func (f inventoryConsumerFunc) ConsumeForOrder(ctx context.Context, lines []domain.OrderLine) error {
	return f(ctx, lines)
}
