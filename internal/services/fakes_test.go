package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/repositories"
)

type stubMenuRepo struct {
	insertFn func(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error)
	updateFn func(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error)
	deleteFn func(ctx context.Context, id int) error
	findFn   func(ctx context.Context, id int) (domain.MenuItem, error)
	listFn   func(ctx context.Context) ([]domain.MenuItem, error)
}

func (s *stubMenuRepo) Insert(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	if s.insertFn != nil {
		return s.insertFn(ctx, item)
	}
	item.ID = 1
	return item, nil
}

func (s *stubMenuRepo) Update(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, item)
	}
	return item, nil
}

func (s *stubMenuRepo) Delete(ctx context.Context, id int) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubMenuRepo) FindByID(ctx context.Context, id int) (domain.MenuItem, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return domain.MenuItem{}, errors.New("not implemented")
}

func (s *stubMenuRepo) List(ctx context.Context) ([]domain.MenuItem, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

type stubOrderRepo struct {
	insertFn    func(ctx context.Context, order domain.Order) error
	findFn      func(ctx context.Context, id string) (domain.Order, error)
	listFn      func(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.OrderSummary], error)
	windowFn    func(ctx context.Context, window domain.ReportWindow) ([]domain.Order, error)
	soldLinesFn func(ctx context.Context, window domain.ReportWindow) ([]domain.SoldLine, error)
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, id string) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.OrderSummary], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[domain.OrderSummary]{}, nil
}

func (s *stubOrderRepo) ListWindow(ctx context.Context, window domain.ReportWindow) ([]domain.Order, error) {
	if s.windowFn != nil {
		return s.windowFn(ctx, window)
	}
	return nil, nil
}

func (s *stubOrderRepo) ListSoldLines(ctx context.Context, window domain.ReportWindow) ([]domain.SoldLine, error) {
	if s.soldLinesFn != nil {
		return s.soldLinesFn(ctx, window)
	}
	return nil, nil
}

type stubInventoryRepo struct {
	insertFn  func(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error)
	updateFn  func(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error)
	deleteFn  func(ctx context.Context, id int) error
	findFn    func(ctx context.Context, id int) (domain.InventoryItem, error)
	listFn    func(ctx context.Context) ([]domain.InventoryItem, error)
	adjustFn  func(ctx context.Context, deltas map[int]float64, now time.Time) ([]domain.InventoryItem, error)
	restockFn func(ctx context.Context, id int, amount float64, now time.Time) (domain.InventoryItem, error)
	sumFn     func(ctx context.Context) (float64, error)
}

func (s *stubInventoryRepo) Insert(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	if s.insertFn != nil {
		return s.insertFn(ctx, item)
	}
	item.ID = 1
	return item, nil
}

func (s *stubInventoryRepo) Update(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, item)
	}
	return item, nil
}

func (s *stubInventoryRepo) Delete(ctx context.Context, id int) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubInventoryRepo) FindByID(ctx context.Context, id int) (domain.InventoryItem, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return domain.InventoryItem{}, errors.New("not implemented")
}

func (s *stubInventoryRepo) List(ctx context.Context) ([]domain.InventoryItem, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubInventoryRepo) AdjustQuantities(ctx context.Context, deltas map[int]float64, now time.Time) ([]domain.InventoryItem, error) {
	if s.adjustFn != nil {
		return s.adjustFn(ctx, deltas, now)
	}
	return nil, nil
}

func (s *stubInventoryRepo) RecordRestock(ctx context.Context, id int, amount float64, now time.Time) (domain.InventoryItem, error) {
	if s.restockFn != nil {
		return s.restockFn(ctx, id, amount, now)
	}
	return domain.InventoryItem{}, errors.New("not implemented")
}

func (s *stubInventoryRepo) SumRestockOrdered(ctx context.Context) (float64, error) {
	if s.sumFn != nil {
		return s.sumFn(ctx)
	}
	return 0, nil
}

type stubRecipeRepo struct {
	byItemFn  func(ctx context.Context, menuItemID int) ([]domain.RecipeLine, error)
	listAllFn func(ctx context.Context) ([]domain.RecipeLine, error)
	replaceFn func(ctx context.Context, menuItemID int, lines []domain.RecipeLine) error
	deleteFn  func(ctx context.Context, menuItemID int) error
}

func (s *stubRecipeRepo) ListByMenuItem(ctx context.Context, menuItemID int) ([]domain.RecipeLine, error) {
	if s.byItemFn != nil {
		return s.byItemFn(ctx, menuItemID)
	}
	return nil, nil
}

func (s *stubRecipeRepo) ListAll(ctx context.Context) ([]domain.RecipeLine, error) {
	if s.listAllFn != nil {
		return s.listAllFn(ctx)
	}
	return nil, nil
}

func (s *stubRecipeRepo) ReplaceForMenuItem(ctx context.Context, menuItemID int, lines []domain.RecipeLine) error {
	if s.replaceFn != nil {
		return s.replaceFn(ctx, menuItemID, lines)
	}
	return nil
}

func (s *stubRecipeRepo) DeleteForMenuItem(ctx context.Context, menuItemID int) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, menuItemID)
	}
	return nil
}

type stubEmployeeRepo struct {
	insertFn       func(ctx context.Context, employee domain.Employee, passcodeHash string) (domain.Employee, error)
	updateFn       func(ctx context.Context, employee domain.Employee) (domain.Employee, error)
	updatePassFn   func(ctx context.Context, id int, passcodeHash string) error
	deleteFn       func(ctx context.Context, id int) error
	findFn         func(ctx context.Context, id int) (domain.Employee, error)
	credentialsFn  func(ctx context.Context, id int) (repositories.EmployeeCredentials, error)
	listFn         func(ctx context.Context) ([]domain.Employee, error)
	byPositionFn   func(ctx context.Context, position string) ([]domain.Employee, error)
}

func (s *stubEmployeeRepo) Insert(ctx context.Context, employee domain.Employee, passcodeHash string) (domain.Employee, error) {
	if s.insertFn != nil {
		return s.insertFn(ctx, employee, passcodeHash)
	}
	employee.ID = 1
	return employee, nil
}

func (s *stubEmployeeRepo) Update(ctx context.Context, employee domain.Employee) (domain.Employee, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, employee)
	}
	return employee, nil
}

func (s *stubEmployeeRepo) UpdatePasscode(ctx context.Context, id int, passcodeHash string) error {
	if s.updatePassFn != nil {
		return s.updatePassFn(ctx, id, passcodeHash)
	}
	return nil
}

func (s *stubEmployeeRepo) Delete(ctx context.Context, id int) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubEmployeeRepo) FindByID(ctx context.Context, id int) (domain.Employee, error) {
	if s.findFn != nil {
		return s.findFn(ctx, id)
	}
	return domain.Employee{}, errors.New("not implemented")
}

func (s *stubEmployeeRepo) FindCredentials(ctx context.Context, id int) (repositories.EmployeeCredentials, error) {
	if s.credentialsFn != nil {
		return s.credentialsFn(ctx, id)
	}
	return repositories.EmployeeCredentials{}, errors.New("not implemented")
}

func (s *stubEmployeeRepo) List(ctx context.Context) ([]domain.Employee, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubEmployeeRepo) ListByPosition(ctx context.Context, position string) ([]domain.Employee, error) {
	if s.byPositionFn != nil {
		return s.byPositionFn(ctx, position)
	}
	return nil, nil
}

type notFoundRepoErr struct{}

func (notFoundRepoErr) Error() string       { return "missing" }
func (notFoundRepoErr) IsNotFound() bool    { return true }
func (notFoundRepoErr) IsConflict() bool    { return false }
func (notFoundRepoErr) IsUnavailable() bool { return false }

type captureOrderEvents struct {
	messages []OrderSubmittedMessage
	err      error
}

func (c *captureOrderEvents) PublishOrderSubmitted(_ context.Context, message OrderSubmittedMessage) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.messages = append(c.messages, message)
	return "msg-1", nil
}

type captureRestockAlerts struct {
	messages []RestockAlertMessage
	err      error
}

func (c *captureRestockAlerts) PublishRestockAlert(_ context.Context, message RestockAlertMessage) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.messages = append(c.messages, message)
	return "msg-1", nil
}

func mustPricingEngine() *PricingEngine {
	engine, err := NewPricingEngine(PricingEngineDeps{
		BaseIngredients: []string{"Milk", "Sugar", "Boba", "Ice"},
		Extras: []ExtraOption{
			{Name: "Pudding", Surcharge: domain.Cents(50)},
			{Name: "Aloe", Surcharge: domain.Cents(75)},
		},
	})
	if err != nil {
		panic(err)
	}
	return engine
}
