package handlers

import (
	"context"
	"errors"
	"time"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/repositories"
	"github.com/pearlpos/api/internal/services"
)

type stubCatalogService struct {
	listFn      func(ctx context.Context) ([]services.MenuItemView, error)
	availableFn func(ctx context.Context) ([]services.MenuItemView, error)
	getFn       func(ctx context.Context, id int) (services.MenuItemView, error)
	createFn    func(ctx context.Context, cmd services.MenuItemCommand) (services.MenuItemView, error)
	updateFn    func(ctx context.Context, id int, cmd services.MenuItemCommand) (services.MenuItemView, error)
	deleteFn    func(ctx context.Context, id int) error
	uploadFn    func(ctx context.Context, id int, contentType string) (services.ImageUploadView, error)
}

func (s *stubCatalogService) ListMenu(ctx context.Context) ([]services.MenuItemView, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubCatalogService) ListAvailable(ctx context.Context) ([]services.MenuItemView, error) {
	if s.availableFn != nil {
		return s.availableFn(ctx)
	}
	return nil, nil
}

func (s *stubCatalogService) GetItem(ctx context.Context, id int) (services.MenuItemView, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return services.MenuItemView{}, errors.New("not implemented")
}

func (s *stubCatalogService) CreateItem(ctx context.Context, cmd services.MenuItemCommand) (services.MenuItemView, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.MenuItemView{}, errors.New("not implemented")
}

func (s *stubCatalogService) UpdateItem(ctx context.Context, id int, cmd services.MenuItemCommand) (services.MenuItemView, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, cmd)
	}
	return services.MenuItemView{}, errors.New("not implemented")
}

func (s *stubCatalogService) DeleteItem(ctx context.Context, id int) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubCatalogService) ImageUploadURL(ctx context.Context, id int, contentType string) (services.ImageUploadView, error) {
	if s.uploadFn != nil {
		return s.uploadFn(ctx, id, contentType)
	}
	return services.ImageUploadView{}, errors.New("not implemented")
}

type stubOrderService struct {
	addFn    func(ctx context.Context, employeeID int, cmd services.OrderLineCommand) (services.DraftView, error)
	removeFn func(ctx context.Context, employeeID, index int) (services.DraftView, error)
	clearFn  func(ctx context.Context, employeeID int) error
	draftFn  func(ctx context.Context, employeeID int) (services.DraftView, error)
	submitFn func(ctx context.Context, cmd services.SubmitCommand) (domain.Order, error)
	getFn    func(ctx context.Context, id string) (domain.Order, error)
	listFn   func(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.OrderSummary], error)
}

func (s *stubOrderService) AddLine(ctx context.Context, employeeID int, cmd services.OrderLineCommand) (services.DraftView, error) {
	if s.addFn != nil {
		return s.addFn(ctx, employeeID, cmd)
	}
	return services.DraftView{}, nil
}

func (s *stubOrderService) RemoveLine(ctx context.Context, employeeID, index int) (services.DraftView, error) {
	if s.removeFn != nil {
		return s.removeFn(ctx, employeeID, index)
	}
	return services.DraftView{}, nil
}

func (s *stubOrderService) ClearDraft(ctx context.Context, employeeID int) error {
	if s.clearFn != nil {
		return s.clearFn(ctx, employeeID)
	}
	return nil
}

func (s *stubOrderService) Draft(ctx context.Context, employeeID int) (services.DraftView, error) {
	if s.draftFn != nil {
		return s.draftFn(ctx, employeeID)
	}
	return services.DraftView{}, nil
}

func (s *stubOrderService) Submit(ctx context.Context, cmd services.SubmitCommand) (domain.Order, error) {
	if s.submitFn != nil {
		return s.submitFn(ctx, cmd)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.OrderSummary], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[domain.OrderSummary]{}, nil
}

type stubInventoryService struct {
	listFn    func(ctx context.Context) ([]services.InventoryItemView, error)
	getFn     func(ctx context.Context, id int) (services.InventoryItemView, error)
	createFn  func(ctx context.Context, cmd services.InventoryItemCommand) (services.InventoryItemView, error)
	updateFn  func(ctx context.Context, id int, cmd services.InventoryItemCommand) (services.InventoryItemView, error)
	deleteFn  func(ctx context.Context, id int) error
	restockLn func(ctx context.Context) ([]services.InventoryItemView, error)
	restockFn func(ctx context.Context, id int, amount float64) (services.InventoryItemView, error)
	consumeFn func(ctx context.Context, lines []domain.OrderLine) error
}

func (s *stubInventoryService) ListItems(ctx context.Context) ([]services.InventoryItemView, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubInventoryService) GetItem(ctx context.Context, id int) (services.InventoryItemView, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return services.InventoryItemView{}, errors.New("not implemented")
}

func (s *stubInventoryService) CreateItem(ctx context.Context, cmd services.InventoryItemCommand) (services.InventoryItemView, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.InventoryItemView{}, errors.New("not implemented")
}

func (s *stubInventoryService) UpdateItem(ctx context.Context, id int, cmd services.InventoryItemCommand) (services.InventoryItemView, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, cmd)
	}
	return services.InventoryItemView{}, errors.New("not implemented")
}

func (s *stubInventoryService) DeleteItem(ctx context.Context, id int) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubInventoryService) ListRestockNeeded(ctx context.Context) ([]services.InventoryItemView, error) {
	if s.restockLn != nil {
		return s.restockLn(ctx)
	}
	return nil, nil
}

func (s *stubInventoryService) RequestRestock(ctx context.Context, id int, amount float64) (services.InventoryItemView, error) {
	if s.restockFn != nil {
		return s.restockFn(ctx, id, amount)
	}
	return services.InventoryItemView{}, errors.New("not implemented")
}

func (s *stubInventoryService) ConsumeForOrder(ctx context.Context, lines []domain.OrderLine) error {
	if s.consumeFn != nil {
		return s.consumeFn(ctx, lines)
	}
	return nil
}

type stubReportService struct {
	totalsFn func(ctx context.Context, window domain.ReportWindow) (domain.ReportTotals, error)
	hourlyFn func(ctx context.Context, day time.Time) ([]domain.HourlySales, error)
	topFn    func(ctx context.Context, window domain.ReportWindow, limit int) ([]domain.ItemRevenue, error)
	usageFn  func(ctx context.Context, window domain.ReportWindow) ([]domain.IngredientUsage, error)
	xFn      func(ctx context.Context, day time.Time) (domain.XReport, error)
	zFn      func(ctx context.Context, day time.Time) (domain.ZReport, error)
}

func (s *stubReportService) Totals(ctx context.Context, window domain.ReportWindow) (domain.ReportTotals, error) {
	if s.totalsFn != nil {
		return s.totalsFn(ctx, window)
	}
	return domain.ReportTotals{}, nil
}

func (s *stubReportService) HourlySales(ctx context.Context, day time.Time) ([]domain.HourlySales, error) {
	if s.hourlyFn != nil {
		return s.hourlyFn(ctx, day)
	}
	return nil, nil
}

func (s *stubReportService) TopItems(ctx context.Context, window domain.ReportWindow, limit int) ([]domain.ItemRevenue, error) {
	if s.topFn != nil {
		return s.topFn(ctx, window, limit)
	}
	return nil, nil
}

func (s *stubReportService) IngredientUsage(ctx context.Context, window domain.ReportWindow) ([]domain.IngredientUsage, error) {
	if s.usageFn != nil {
		return s.usageFn(ctx, window)
	}
	return nil, nil
}

func (s *stubReportService) XReport(ctx context.Context, day time.Time) (domain.XReport, error) {
	if s.xFn != nil {
		return s.xFn(ctx, day)
	}
	return domain.XReport{}, nil
}

func (s *stubReportService) ZReport(ctx context.Context, day time.Time) (domain.ZReport, error) {
	if s.zFn != nil {
		return s.zFn(ctx, day)
	}
	return domain.ZReport{}, nil
}

type stubEmployeeService struct {
	listFn   func(ctx context.Context) ([]domain.Employee, error)
	getFn    func(ctx context.Context, id int) (domain.Employee, error)
	createFn func(ctx context.Context, cmd services.EmployeeCommand) (domain.Employee, error)
	updateFn func(ctx context.Context, id int, cmd services.EmployeeCommand) (domain.Employee, error)
	deleteFn func(ctx context.Context, id int) error
	signInFn func(ctx context.Context, id int, passcode string) (services.SignInResult, error)
}

func (s *stubEmployeeService) List(ctx context.Context) ([]domain.Employee, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubEmployeeService) Get(ctx context.Context, id int) (domain.Employee, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return domain.Employee{}, errors.New("not implemented")
}

func (s *stubEmployeeService) Create(ctx context.Context, cmd services.EmployeeCommand) (domain.Employee, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return domain.Employee{}, errors.New("not implemented")
}

func (s *stubEmployeeService) Update(ctx context.Context, id int, cmd services.EmployeeCommand) (domain.Employee, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, cmd)
	}
	return domain.Employee{}, errors.New("not implemented")
}

func (s *stubEmployeeService) Delete(ctx context.Context, id int) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubEmployeeService) SignIn(ctx context.Context, id int, passcode string) (services.SignInResult, error) {
	if s.signInFn != nil {
		return s.signInFn(ctx, id, passcode)
	}
	return services.SignInResult{}, errors.New("not implemented")
}
