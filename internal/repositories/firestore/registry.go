package firestore

import (
	"context"
	"errors"

	"google.golang.org/api/iterator"

	pfirestore "github.com/pearlpos/api/internal/platform/firestore"
	"github.com/pearlpos/api/internal/repositories"
)

// Registry bundles the Firestore-backed repositories over one shared provider.
type Registry struct {
	provider  *pfirestore.Provider
	menu      *MenuRepository
	orders    *OrderRepository
	inventory *InventoryRepository
	recipes   *RecipeRepository
	employees *EmployeeRepository
}

// NewRegistry builds every repository against the shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	menu, err := NewMenuRepository(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	inventory, err := NewInventoryRepository(provider)
	if err != nil {
		return nil, err
	}
	recipes, err := NewRecipeRepository(provider)
	if err != nil {
		return nil, err
	}
	employees, err := NewEmployeeRepository(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider:  provider,
		menu:      menu,
		orders:    orders,
		inventory: inventory,
		recipes:   recipes,
		employees: employees,
	}, nil
}

func (r *Registry) Menu() repositories.MenuRepository           { return r.menu }
func (r *Registry) Orders() repositories.OrderRepository        { return r.orders }
func (r *Registry) Inventory() repositories.InventoryRepository { return r.inventory }
func (r *Registry) Recipes() repositories.RecipeRepository      { return r.recipes }
func (r *Registry) Employees() repositories.EmployeeRepository  { return r.employees }

// Health returns a readiness probe that issues a cheap Firestore read.
func (r *Registry) Health() repositories.HealthRepository {
	return &healthRepository{provider: r.provider}
}

// Close releases the shared Firestore client.
func (r *Registry) Close() error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close()
}

type healthRepository struct {
	provider *pfirestore.Provider
}

func (h *healthRepository) Ping(ctx context.Context) error {
	if h == nil || h.provider == nil {
		return errors.New("health repository not initialised")
	}
	client, err := h.provider.Client(ctx)
	if err != nil {
		return err
	}

	iter := client.Collection(countersCollection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return pfirestore.WrapError("health.ping", err)
	}
	return nil
}
