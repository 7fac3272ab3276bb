package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/platform/pagination"
	"github.com/pearlpos/api/internal/repositories"
)

var (
	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.New("orders: order not found")
	// ErrOrderInvalidInput signals invalid caller arguments.
	ErrOrderInvalidInput = errors.New("orders: invalid input")
	// ErrEmptyOrder rejects submitting a draft with no lines.
	ErrEmptyOrder = errors.New("orders: draft has no lines")
	// ErrItemUnavailable rejects adding a drink outside its season window.
	ErrItemUnavailable = errors.New("orders: menu item is out of season")
	// ErrOrderUnavailable indicates the backing store is unreachable.
	ErrOrderUnavailable = errors.New("orders: store unavailable")
)

// InventoryConsumer decrements ingredient stock for submitted order lines.
type InventoryConsumer interface {
	ConsumeForOrder(ctx context.Context, lines []domain.OrderLine) error
}

// OrderServiceDeps bundles the collaborators for the order service.
type OrderServiceDeps struct {
	Orders    repositories.OrderRepository
	Menu      repositories.MenuRepository
	Employees repositories.EmployeeRepository
	Pricing   *PricingEngine
	Inventory InventoryConsumer
	Publisher OrderEventPublisher
	Location  string
	Hours     BusinessHours
	Clock     func() time.Time
	// NewID mints order identifiers. Defaults to ULIDs seeded from the clock.
	NewID  func(at time.Time) string
	Rand   *rand.Rand
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders    repositories.OrderRepository
	menu      repositories.MenuRepository
	employees repositories.EmployeeRepository
	pricing   *PricingEngine
	inventory InventoryConsumer
	publisher OrderEventPublisher
	location  string
	hours     BusinessHours
	clock     func() time.Time
	newID     func(time.Time) string
	rnd       *rand.Rand
	logger    func(context.Context, string, map[string]any)

	drafts *draftStore

	// rotationMu guards the backdated-order state: the cashier rotation
	// index and the shared time randomizer.
	rotationMu sync.Mutex
	rotation   int
}

// NewOrderService wires dependencies into an OrderService.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Menu == nil {
		return nil, errors.New("order service: menu repository is required")
	}
	if deps.Employees == nil {
		return nil, errors.New("order service: employee repository is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("order service: pricing engine is required")
	}
	if !deps.Hours.Valid() {
		return nil, errors.New("order service: business hours are invalid")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	utcClock := func() time.Time { return clock().UTC() }

	rnd := deps.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(utcClock().UnixNano()))
	}
	newID := deps.NewID
	if newID == nil {
		// DefaultEntropy is safe under concurrent submits.
		newID = func(at time.Time) string {
			return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:    deps.Orders,
		menu:      deps.Menu,
		employees: deps.Employees,
		pricing:   deps.Pricing,
		inventory: deps.Inventory,
		publisher: deps.Publisher,
		location:  deps.Location,
		hours:     deps.Hours,
		clock:     utcClock,
		newID:     newID,
		rnd:       rnd,
		logger:    logger,
		drafts:    newDraftStore(),
	}, nil
}

func (s *orderService) AddLine(ctx context.Context, employeeID int, cmd OrderLineCommand) (DraftView, error) {
	if employeeID <= 0 {
		return DraftView{}, fmt.Errorf("%w: employee id is required", ErrOrderInvalidInput)
	}
	if cmd.MenuItemID <= 0 {
		return DraftView{}, fmt.Errorf("%w: menu item id is required", ErrOrderInvalidInput)
	}

	item, err := s.menu.FindByID(ctx, cmd.MenuItemID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return DraftView{}, fmt.Errorf("%w: unknown menu item %d", ErrOrderInvalidInput, cmd.MenuItemID)
		}
		return DraftView{}, s.mapError(err)
	}
	if !domain.InSeason(item.Season, domain.MonthDayOf(s.clock())) {
		return DraftView{}, fmt.Errorf("%w: %s", ErrItemUnavailable, item.Name)
	}

	line, err := s.pricing.PriceLine(item, cmd.Quantity, cmd.Removals, cmd.Extras)
	if err != nil {
		return DraftView{}, err
	}

	lines := s.drafts.add(employeeID, line)
	return DraftView{Lines: lines, Total: draftTotal(lines)}, nil
}

func (s *orderService) RemoveLine(ctx context.Context, employeeID int, index int) (DraftView, error) {
	if employeeID <= 0 {
		return DraftView{}, fmt.Errorf("%w: employee id is required", ErrOrderInvalidInput)
	}
	lines, err := s.drafts.remove(employeeID, index)
	if err != nil {
		return DraftView{}, fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
	}
	return DraftView{Lines: lines, Total: draftTotal(lines)}, nil
}

func (s *orderService) ClearDraft(ctx context.Context, employeeID int) error {
	if employeeID <= 0 {
		return fmt.Errorf("%w: employee id is required", ErrOrderInvalidInput)
	}
	s.drafts.clear(employeeID)
	return nil
}

func (s *orderService) Draft(ctx context.Context, employeeID int) (DraftView, error) {
	if employeeID <= 0 {
		return DraftView{}, fmt.Errorf("%w: employee id is required", ErrOrderInvalidInput)
	}
	lines := s.drafts.lines(employeeID)
	return DraftView{Lines: lines, Total: draftTotal(lines)}, nil
}

func (s *orderService) Submit(ctx context.Context, cmd SubmitCommand) (domain.Order, error) {
	if cmd.EmployeeID <= 0 {
		return domain.Order{}, fmt.Errorf("%w: employee id is required", ErrOrderInvalidInput)
	}

	lines := s.drafts.lines(cmd.EmployeeID)
	if len(lines) == 0 {
		return domain.Order{}, ErrEmptyOrder
	}

	placedAt := s.clock()
	employeeID := cmd.EmployeeID
	if cmd.BackdateDay != nil {
		var err error
		s.rotationMu.Lock()
		placedAt, err = s.hours.RandomizedTimeOn(*cmd.BackdateDay, s.rnd)
		s.rotationMu.Unlock()
		if err != nil {
			return domain.Order{}, fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
		}
		// Backdated entries simulate a past shift, so attribution rotates
		// through the cashier roster instead of the signed-in employee.
		employeeID, err = s.nextCashier(ctx, cmd.EmployeeID)
		if err != nil {
			return domain.Order{}, s.mapError(err)
		}
	}

	order := domain.Order{
		ID:         s.newID(placedAt),
		EmployeeID: employeeID,
		Location:   s.location,
		PlacedAt:   placedAt,
		Total:      draftTotal(lines),
		Lines:      lines,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		// Draft stays intact so the register can retry the submit.
		return domain.Order{}, s.mapError(err)
	}
	s.drafts.clear(cmd.EmployeeID)

	if s.inventory != nil {
		if err := s.inventory.ConsumeForOrder(ctx, order.Lines); err != nil {
			// The sale is committed; stock drift is corrected at the next
			// manual count, so consumption failure only logs.
			s.logger(ctx, "orders.consume_failed", map[string]any{"order_id": order.ID, "error": err.Error()})
		}
	}
	if s.publisher != nil {
		_, err := s.publisher.PublishOrderSubmitted(ctx, OrderSubmittedMessage{
			OrderID:    order.ID,
			EmployeeID: strconv.Itoa(order.EmployeeID),
			Location:   order.Location,
			TotalCents: order.Total.Cents(),
			LineCount:  len(order.Lines),
			PlacedAt:   order.PlacedAt,
		})
		if err != nil {
			s.logger(ctx, "orders.publish_failed", map[string]any{"order_id": order.ID, "error": err.Error()})
		}
	}

	s.logger(ctx, "orders.submitted", map[string]any{
		"order_id":    order.ID,
		"employee_id": order.EmployeeID,
		"total_cents": order.Total.Cents(),
		"line_count":  len(order.Lines),
	})
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	if id == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, s.mapError(err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.OrderSummary], error) {
	page, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[domain.OrderSummary]{}, s.mapError(err)
	}
	return page, nil
}

// nextCashier round-robins over the cashier roster, falling back to the
// submitting employee when no cashiers exist.
func (s *orderService) nextCashier(ctx context.Context, fallback int) (int, error) {
	cashiers, err := s.employees.ListByPosition(ctx, domain.PositionCashier)
	if err != nil {
		return 0, err
	}
	if len(cashiers) == 0 {
		return fallback, nil
	}

	s.rotationMu.Lock()
	defer s.rotationMu.Unlock()
	id := cashiers[s.rotation%len(cashiers)].ID
	s.rotation++
	return id, nil
}

func (s *orderService) mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case repositories.IsNotFound(err):
		return ErrOrderNotFound
	case errors.Is(err, pagination.ErrInvalidPageToken):
		return fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
	case repositories.IsUnavailable(err):
		return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
	default:
		return err
	}
}
