package repositories

import (
	"context"
	"errors"
	"time"

	domain "github.com/pearlpos/api/internal/domain"
)

// RepositoryError categorises low-level persistence failures for services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// IsNotFound reports whether err represents a missing record.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// IsConflict reports whether err represents a conflicting write.
func IsConflict(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

// IsUnavailable reports whether err represents a transient backend outage.
func IsUnavailable(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsUnavailable()
}

// Registry exposes typed repository accessors for dependency wiring.
type Registry interface {
	Menu() MenuRepository
	Orders() OrderRepository
	Inventory() InventoryRepository
	Recipes() RecipeRepository
	Employees() EmployeeRepository
	Health() HealthRepository
	Close() error
}

// MenuRepository persists catalog items. Insert assigns the numeric item ID.
type MenuRepository interface {
	Insert(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error)
	Update(ctx context.Context, item domain.MenuItem) (domain.MenuItem, error)
	Delete(ctx context.Context, id int) error
	FindByID(ctx context.Context, id int) (domain.MenuItem, error)
	List(ctx context.Context) ([]domain.MenuItem, error)
}

// OrderListFilter narrows and pages the order history listing.
type OrderListFilter struct {
	PageSize  int
	PageToken string
}

// OrderRepository persists submitted orders and serves report projections.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.OrderSummary], error)
	// ListWindow returns full orders placed within [window.Start, window.End).
	ListWindow(ctx context.Context, window domain.ReportWindow) ([]domain.Order, error)
	// ListSoldLines flattens order lines over the window for item-level reports.
	ListSoldLines(ctx context.Context, window domain.ReportWindow) ([]domain.SoldLine, error)
}

// InventoryRepository manages ingredient stock. Insert assigns the numeric ID.
type InventoryRepository interface {
	Insert(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error)
	Update(ctx context.Context, item domain.InventoryItem) (domain.InventoryItem, error)
	Delete(ctx context.Context, id int) error
	FindByID(ctx context.Context, id int) (domain.InventoryItem, error)
	List(ctx context.Context) ([]domain.InventoryItem, error)
	// AdjustQuantities applies the deltas atomically and returns updated items.
	// A delta that would drive a quantity negative clamps at zero.
	AdjustQuantities(ctx context.Context, deltas map[int]float64, now time.Time) ([]domain.InventoryItem, error)
	// RecordRestock adds the ordered amount to both the on-hand quantity and
	// the running restockOrdered total.
	RecordRestock(ctx context.Context, id int, amount float64, now time.Time) (domain.InventoryItem, error)
	// SumRestockOrdered totals the restockOrdered column across all items.
	SumRestockOrdered(ctx context.Context) (float64, error)
}

// RecipeRepository relates menu items to the ingredients they consume.
type RecipeRepository interface {
	ListByMenuItem(ctx context.Context, menuItemID int) ([]domain.RecipeLine, error)
	ListAll(ctx context.Context) ([]domain.RecipeLine, error)
	ReplaceForMenuItem(ctx context.Context, menuItemID int, lines []domain.RecipeLine) error
	DeleteForMenuItem(ctx context.Context, menuItemID int) error
}

// EmployeeCredentials pairs an employee with the stored passcode hash.
type EmployeeCredentials struct {
	Employee     domain.Employee
	PasscodeHash string
}

// EmployeeRepository persists staff records. Insert assigns the numeric ID.
type EmployeeRepository interface {
	Insert(ctx context.Context, employee domain.Employee, passcodeHash string) (domain.Employee, error)
	Update(ctx context.Context, employee domain.Employee) (domain.Employee, error)
	UpdatePasscode(ctx context.Context, id int, passcodeHash string) error
	Delete(ctx context.Context, id int) error
	FindByID(ctx context.Context, id int) (domain.Employee, error)
	FindCredentials(ctx context.Context, id int) (EmployeeCredentials, error)
	List(ctx context.Context) ([]domain.Employee, error)
	ListByPosition(ctx context.Context, position string) ([]domain.Employee, error)
}

// HealthRepository verifies backing-store connectivity for readiness probes.
type HealthRepository interface {
	Ping(ctx context.Context) error
}
