package domain

import (
	"time"
)

// Category enumerates the fixed set of menu categories shown on the cashier screen.
type Category string

const (
	// CategoryIceBlended groups blended ice drinks.
	CategoryIceBlended Category = "Ice-Blended"
	// CategoryFruity groups fruit-based beverages.
	CategoryFruity Category = "Fruity Beverage"
	// CategoryFreshBrew groups brewed teas.
	CategoryFreshBrew Category = "Fresh Brew"
	// CategoryMilky groups milk teas.
	CategoryMilky Category = "Milky Series"
	// CategoryMatcha groups the matcha line.
	CategoryMatcha Category = "New Matcha Series"
	// CategoryNonCaffeinated groups caffeine-free drinks.
	CategoryNonCaffeinated Category = "Non-Caffeinated"
)

// Categories lists every recognised menu category in display order.
func Categories() []Category {
	return []Category{
		CategoryIceBlended,
		CategoryFruity,
		CategoryFreshBrew,
		CategoryMilky,
		CategoryMatcha,
		CategoryNonCaffeinated,
	}
}

// ValidCategory reports whether the value is one of the recognised categories.
func ValidCategory(c Category) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// MenuItem is a sellable drink on the catalog. Season is nil when the item is
// available year round.
type MenuItem struct {
	ID          int
	Name        string
	Category    Category
	BasePrice   Money
	Description string
	ImageID     int
	Season      *SeasonWindow
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InventoryItem tracks a stocked ingredient. Quantity is a real number because
// partial units (e.g. kilograms of tapioca) are allowed.
type InventoryItem struct {
	ID             int
	Name           string
	Unit           string
	Quantity       float64
	RestockMinimum int
	RestockOrdered float64
	UpdatedAt      time.Time
}

// NeedsRestock reports whether the item is at or below its restock threshold.
func (i InventoryItem) NeedsRestock() bool {
	return i.Quantity <= float64(i.RestockMinimum)
}

// RecipeLine relates a menu item to one ingredient it consumes per unit sold.
type RecipeLine struct {
	MenuItemID   int
	InventoryID  int
	QuantityUsed float64
}

// Employee is a staff member who can sign in at the register.
type Employee struct {
	ID       int
	Name     string
	Position string
}

const (
	// PositionCashier marks register staff.
	PositionCashier = "Cashier"
	// PositionManager marks staff with access to the manager dashboard.
	PositionManager = "Manager"
)

// OrderLine is an immutable priced line inside an order. The description
// carries the rendered customization (e.g. "Milk Tea [-Ice +Pudding]").
type OrderLine struct {
	MenuItemID  int
	ItemName    string
	Description string
	UnitPrice   Money
	Quantity    int
}

// Order is a persisted transaction.
type Order struct {
	ID         string
	EmployeeID int
	Location   string
	PlacedAt   time.Time
	Total      Money
	Lines      []OrderLine
}

// OrderSummary is the (timestamp, total) projection used by report queries.
type OrderSummary struct {
	ID       string
	PlacedAt time.Time
	Total    Money
}

// SoldLine is the order-line projection used by item-level report queries.
type SoldLine struct {
	MenuItemID    int
	ItemName      string
	Quantity      int
	UnitPrice     Money
	OrderPlacedAt time.Time
}

// ReportWindow is a closed-open timestamp interval [Start, End).
type ReportWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls inside the window.
func (w ReportWindow) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End)
}

// DayWindow builds the [midnight, next midnight) window for a calendar day.
func DayWindow(day time.Time) ReportWindow {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return ReportWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// ReportTotals aggregates revenue and order count over a window.
type ReportTotals struct {
	Revenue    Money
	OrderCount int
}

// HourlySales is revenue attributed to one hour of the business day. Hours
// with no orders are omitted from report output, not zero-filled.
type HourlySales struct {
	Hour    int
	Revenue Money
}

// ItemRevenue ranks a menu item by gross revenue over a window.
type ItemRevenue struct {
	ItemName string
	Revenue  Money
}

// IngredientUsage totals ingredient consumption over a window.
type IngredientUsage struct {
	IngredientName string
	Unit           string
	QuantityUsed   float64
}

// XReport is the mid-shift snapshot: day sales plus returns/voids/discards.
type XReport struct {
	Day        time.Time
	Hourly     []HourlySales
	TotalSales Money
	Returns    Money
	Voids      int
	Discards   float64
}

// ZReport is the end-of-day close-out summary.
type ZReport struct {
	Day        time.Time
	TotalSales Money
	OrderCount int
	FirstOrder *time.Time
	LastOrder  *time.Time
}

// CursorPage wraps a page of results together with the continuation token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}
