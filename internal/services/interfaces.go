package services

import (
	"context"
	"time"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/repositories"
)

// CatalogService manages the drink menu and its seasonal availability.
type CatalogService interface {
	ListMenu(ctx context.Context) ([]MenuItemView, error)
	// ListAvailable returns only items whose season window covers today.
	ListAvailable(ctx context.Context) ([]MenuItemView, error)
	GetItem(ctx context.Context, id int) (MenuItemView, error)
	CreateItem(ctx context.Context, cmd MenuItemCommand) (MenuItemView, error)
	UpdateItem(ctx context.Context, id int, cmd MenuItemCommand) (MenuItemView, error)
	DeleteItem(ctx context.Context, id int) error
	ImageUploadURL(ctx context.Context, id int, contentType string) (ImageUploadView, error)
}

// MenuItemCommand carries catalog create/update input.
type MenuItemCommand struct {
	Name        string
	Category    domain.Category
	BasePrice   domain.Money
	Description string
	Season      *domain.SeasonWindow
	Recipe      []RecipeLineInput
}

// RecipeLineInput is one ingredient requirement supplied with a menu item.
type RecipeLineInput struct {
	InventoryID  int
	QuantityUsed float64
}

// MenuItemView is the catalog item as served to clients.
type MenuItemView struct {
	domain.MenuItem
	Available bool
	ImageURL  string
}

// ImageUploadView carries a signed upload URL for a menu item image.
type ImageUploadView struct {
	URL       string
	Method    string
	ExpiresAt time.Time
	Headers   map[string]string
}

// OrderService accumulates draft orders per register and submits them.
type OrderService interface {
	AddLine(ctx context.Context, employeeID int, cmd OrderLineCommand) (DraftView, error)
	RemoveLine(ctx context.Context, employeeID int, index int) (DraftView, error)
	ClearDraft(ctx context.Context, employeeID int) error
	Draft(ctx context.Context, employeeID int) (DraftView, error)
	Submit(ctx context.Context, cmd SubmitCommand) (domain.Order, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListOrders(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.OrderSummary], error)
}

// OrderLineCommand requests pricing and accumulation of one drink.
type OrderLineCommand struct {
	MenuItemID int
	Quantity   int
	Removals   []string
	Extras     []string
}

// SubmitCommand finalises the draft for an employee.
type SubmitCommand struct {
	EmployeeID int
	// BackdateDay, when set, stamps the order with a randomised time of day
	// within business hours on that calendar day instead of the current time.
	BackdateDay *time.Time
}

// DraftView is the in-progress order shown at the register.
type DraftView struct {
	Lines []domain.OrderLine
	Total domain.Money
}

// InventoryService manages ingredient stock and the restock flow.
type InventoryService interface {
	ListItems(ctx context.Context) ([]InventoryItemView, error)
	GetItem(ctx context.Context, id int) (InventoryItemView, error)
	CreateItem(ctx context.Context, cmd InventoryItemCommand) (InventoryItemView, error)
	UpdateItem(ctx context.Context, id int, cmd InventoryItemCommand) (InventoryItemView, error)
	DeleteItem(ctx context.Context, id int) error
	// ListRestockNeeded returns items at or below their restock threshold.
	ListRestockNeeded(ctx context.Context) ([]InventoryItemView, error)
	// RequestRestock records a restock order and publishes an alert.
	RequestRestock(ctx context.Context, id int, amount float64) (InventoryItemView, error)
	// ConsumeForOrder decrements ingredient stock for the submitted lines.
	ConsumeForOrder(ctx context.Context, lines []domain.OrderLine) error
}

// InventoryItemCommand carries inventory create/update input.
type InventoryItemCommand struct {
	Name           string
	Unit           string
	Quantity       float64
	RestockMinimum int
}

// InventoryItemView augments the item with its restock flag.
type InventoryItemView struct {
	domain.InventoryItem
	NeedsRestock bool
}

// ReportService computes sales aggregates for the manager dashboard.
type ReportService interface {
	Totals(ctx context.Context, window domain.ReportWindow) (domain.ReportTotals, error)
	HourlySales(ctx context.Context, day time.Time) ([]domain.HourlySales, error)
	TopItems(ctx context.Context, window domain.ReportWindow, limit int) ([]domain.ItemRevenue, error)
	IngredientUsage(ctx context.Context, window domain.ReportWindow) ([]domain.IngredientUsage, error)
	XReport(ctx context.Context, day time.Time) (domain.XReport, error)
	ZReport(ctx context.Context, day time.Time) (domain.ZReport, error)
}

// EmployeeService manages staff records and register sign-in.
type EmployeeService interface {
	List(ctx context.Context) ([]domain.Employee, error)
	Get(ctx context.Context, id int) (domain.Employee, error)
	Create(ctx context.Context, cmd EmployeeCommand) (domain.Employee, error)
	Update(ctx context.Context, id int, cmd EmployeeCommand) (domain.Employee, error)
	Delete(ctx context.Context, id int) error
	SignIn(ctx context.Context, id int, passcode string) (SignInResult, error)
}

// EmployeeCommand carries employee create/update input. Passcode is optional
// on update.
type EmployeeCommand struct {
	Name     string
	Position string
	Passcode string
}

// SignInResult is the issued session for an authenticated employee.
type SignInResult struct {
	Employee  domain.Employee
	Token     string
	ExpiresAt time.Time
}

// SystemService reports process health for probes.
type SystemService interface {
	Ready(ctx context.Context) error
}

// OrderSubmittedMessage is the event payload published after an order commits.
type OrderSubmittedMessage struct {
	OrderID    string    `json:"orderId"`
	EmployeeID string    `json:"employeeId"`
	Location   string    `json:"location"`
	TotalCents int64     `json:"totalCents"`
	LineCount  int       `json:"lineCount"`
	PlacedAt   time.Time `json:"placedAt"`
}

// RestockAlertMessage is the event payload published on a restock request.
type RestockAlertMessage struct {
	InventoryID    string    `json:"inventoryId"`
	Name           string    `json:"name"`
	Quantity       float64   `json:"quantity"`
	RestockMinimum int       `json:"restockMinimum"`
	OrderedAmount  float64   `json:"orderedAmount"`
	RequestedAt    time.Time `json:"requestedAt"`
}

// OrderEventPublisher emits order-submitted events.
type OrderEventPublisher interface {
	PublishOrderSubmitted(ctx context.Context, message OrderSubmittedMessage) (string, error)
}

// RestockAlertPublisher emits low-stock restock alerts.
type RestockAlertPublisher interface {
	PublishRestockAlert(ctx context.Context, message RestockAlertMessage) (string, error)
}

// MenuImageStore issues signed URLs for menu item images.
type MenuImageStore interface {
	DownloadURL(ctx context.Context, imageID string) (SignedImageURL, error)
	UploadURL(ctx context.Context, imageID, contentType string) (SignedImageURL, error)
}

// SignedImageURL is the storage-layer signed URL result.
type SignedImageURL struct {
	URL       string
	Method    string
	ExpiresAt time.Time
	Headers   map[string]string
}

// SessionIssuer signs employee session tokens.
type SessionIssuer interface {
	IssueSession(employeeID int, name, role string) (token string, expiresAt time.Time, err error)
}
