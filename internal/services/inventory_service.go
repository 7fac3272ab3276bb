package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/repositories"
)

var (
	// ErrInventoryItemNotFound indicates the stock item does not exist.
	ErrInventoryItemNotFound = errors.New("inventory: item not found")
	// ErrInventoryInvalidInput signals invalid caller arguments.
	ErrInventoryInvalidInput = errors.New("inventory: invalid input")
	// ErrInventoryUnavailable indicates the backing store is unreachable.
	ErrInventoryUnavailable = errors.New("inventory: store unavailable")
)

// InventoryServiceDeps bundles the collaborators for the inventory service.
type InventoryServiceDeps struct {
	Inventory repositories.InventoryRepository
	Recipes   repositories.RecipeRepository
	Alerts    RestockAlertPublisher
	Clock     func() time.Time
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type inventoryService struct {
	inventory repositories.InventoryRepository
	recipes   repositories.RecipeRepository
	alerts    RestockAlertPublisher
	clock     func() time.Time
	logger    func(context.Context, string, map[string]any)
}

// NewInventoryService wires dependencies into an InventoryService.
func NewInventoryService(deps InventoryServiceDeps) (InventoryService, error) {
	if deps.Inventory == nil {
		return nil, errors.New("inventory service: inventory repository is required")
	}
	if deps.Recipes == nil {
		return nil, errors.New("inventory service: recipe repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &inventoryService{
		inventory: deps.Inventory,
		recipes:   deps.Recipes,
		alerts:    deps.Alerts,
		clock:     func() time.Time { return clock().UTC() },
		logger:    logger,
	}, nil
}

func (s *inventoryService) ListItems(ctx context.Context) ([]InventoryItemView, error) {
	items, err := s.inventory.List(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return toInventoryViews(items, false), nil
}

func (s *inventoryService) GetItem(ctx context.Context, id int) (InventoryItemView, error) {
	if id <= 0 {
		return InventoryItemView{}, fmt.Errorf("%w: item id is required", ErrInventoryInvalidInput)
	}
	item, err := s.inventory.FindByID(ctx, id)
	if err != nil {
		return InventoryItemView{}, s.mapError(err)
	}
	return toInventoryView(item), nil
}

func (s *inventoryService) CreateItem(ctx context.Context, cmd InventoryItemCommand) (InventoryItemView, error) {
	item, err := buildInventoryItem(cmd)
	if err != nil {
		return InventoryItemView{}, err
	}
	item.UpdatedAt = s.clock()

	created, err := s.inventory.Insert(ctx, item)
	if err != nil {
		return InventoryItemView{}, s.mapError(err)
	}
	s.logger(ctx, "inventory.item_created", map[string]any{"item_id": created.ID, "name": created.Name})
	return toInventoryView(created), nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, id int, cmd InventoryItemCommand) (InventoryItemView, error) {
	if id <= 0 {
		return InventoryItemView{}, fmt.Errorf("%w: item id is required", ErrInventoryInvalidInput)
	}
	item, err := buildInventoryItem(cmd)
	if err != nil {
		return InventoryItemView{}, err
	}

	existing, err := s.inventory.FindByID(ctx, id)
	if err != nil {
		return InventoryItemView{}, s.mapError(err)
	}
	item.ID = id
	item.RestockOrdered = existing.RestockOrdered
	item.UpdatedAt = s.clock()

	updated, err := s.inventory.Update(ctx, item)
	if err != nil {
		return InventoryItemView{}, s.mapError(err)
	}
	return toInventoryView(updated), nil
}

func (s *inventoryService) DeleteItem(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: item id is required", ErrInventoryInvalidInput)
	}
	if _, err := s.inventory.FindByID(ctx, id); err != nil {
		return s.mapError(err)
	}
	if err := s.inventory.Delete(ctx, id); err != nil {
		return s.mapError(err)
	}
	s.logger(ctx, "inventory.item_deleted", map[string]any{"item_id": id})
	return nil
}

func (s *inventoryService) ListRestockNeeded(ctx context.Context) ([]InventoryItemView, error) {
	items, err := s.inventory.List(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return toInventoryViews(items, true), nil
}

func (s *inventoryService) RequestRestock(ctx context.Context, id int, amount float64) (InventoryItemView, error) {
	if id <= 0 {
		return InventoryItemView{}, fmt.Errorf("%w: item id is required", ErrInventoryInvalidInput)
	}
	if amount <= 0 {
		return InventoryItemView{}, fmt.Errorf("%w: restock amount must be positive", ErrInventoryInvalidInput)
	}

	item, err := s.inventory.RecordRestock(ctx, id, amount, s.clock())
	if err != nil {
		return InventoryItemView{}, s.mapError(err)
	}

	if s.alerts != nil {
		_, err := s.alerts.PublishRestockAlert(ctx, RestockAlertMessage{
			InventoryID:    strconv.Itoa(item.ID),
			Name:           item.Name,
			Quantity:       item.Quantity,
			RestockMinimum: item.RestockMinimum,
			OrderedAmount:  amount,
			RequestedAt:    s.clock(),
		})
		if err != nil {
			// Restock is already recorded, so an alert failure is logged and
			// swallowed rather than surfaced to the register.
			s.logger(ctx, "inventory.restock_alert_failed", map[string]any{"item_id": item.ID, "error": err.Error()})
		}
	}
	return toInventoryView(item), nil
}

func (s *inventoryService) ConsumeForOrder(ctx context.Context, lines []domain.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	// Collapse the lines to per-menu-item quantities before joining through
	// the recipes, so a drink ordered twice reads its recipe once.
	quantities := make(map[int]int)
	for _, line := range lines {
		if line.MenuItemID <= 0 || line.Quantity <= 0 {
			return fmt.Errorf("%w: order line needs a menu item and a positive quantity", ErrInventoryInvalidInput)
		}
		quantities[line.MenuItemID] += line.Quantity
	}

	deltas := make(map[int]float64)
	for menuItemID, qty := range quantities {
		recipe, err := s.recipes.ListByMenuItem(ctx, menuItemID)
		if err != nil {
			return s.mapError(err)
		}
		for _, rl := range recipe {
			deltas[rl.InventoryID] -= rl.QuantityUsed * float64(qty)
		}
	}
	if len(deltas) == 0 {
		return nil
	}

	if _, err := s.inventory.AdjustQuantities(ctx, deltas, s.clock()); err != nil {
		return s.mapError(err)
	}
	return nil
}

func buildInventoryItem(cmd InventoryItemCommand) (domain.InventoryItem, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.InventoryItem{}, fmt.Errorf("%w: name is required", ErrInventoryInvalidInput)
	}
	if cmd.Quantity < 0 {
		return domain.InventoryItem{}, fmt.Errorf("%w: quantity cannot be negative", ErrInventoryInvalidInput)
	}
	if cmd.RestockMinimum < 0 {
		return domain.InventoryItem{}, fmt.Errorf("%w: restock minimum cannot be negative", ErrInventoryInvalidInput)
	}
	return domain.InventoryItem{
		Name:           name,
		Unit:           strings.TrimSpace(cmd.Unit),
		Quantity:       cmd.Quantity,
		RestockMinimum: cmd.RestockMinimum,
	}, nil
}

func toInventoryView(item domain.InventoryItem) InventoryItemView {
	return InventoryItemView{InventoryItem: item, NeedsRestock: item.NeedsRestock()}
}

func toInventoryViews(items []domain.InventoryItem, onlyNeedingRestock bool) []InventoryItemView {
	views := make([]InventoryItemView, 0, len(items))
	for _, item := range items {
		if onlyNeedingRestock && !item.NeedsRestock() {
			continue
		}
		views = append(views, toInventoryView(item))
	}
	return views
}

func (s *inventoryService) mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case repositories.IsNotFound(err):
		return ErrInventoryItemNotFound
	case repositories.IsUnavailable(err):
		return fmt.Errorf("%w: %v", ErrInventoryUnavailable, err)
	default:
		return err
	}
}
