package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/platform/config"
	"github.com/pearlpos/api/internal/repositories"
	"github.com/pearlpos/api/internal/services"
)

// Repositories lists the storage contracts the container wires services
// against. The Firestore registry satisfies it in production; tests can
// supply in-memory fakes.
type Repositories interface {
	Menu() repositories.MenuRepository
	Orders() repositories.OrderRepository
	Inventory() repositories.InventoryRepository
	Recipes() repositories.RecipeRepository
	Employees() repositories.EmployeeRepository
	Health() repositories.HealthRepository
}

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Catalog   services.CatalogService
	Orders    services.OrderService
	Inventory services.InventoryService
	Reports   services.ReportService
	Employees services.EmployeeService
	System    services.SystemService
}

// External carries the side-effecting collaborators assembled outside the
// container: signed URL storage, event publishers, and the session token
// issuer. Any of the publishers and the image store may be nil, in which
// case the owning service degrades gracefully.
type External struct {
	Images        services.MenuImageStore
	OrderEvents   services.OrderEventPublisher
	RestockAlerts services.RestockAlertPublisher
	Sessions      services.SessionIssuer
	Clock         func() time.Time
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config   config.Config
	Pricing  *services.PricingEngine
	Services Services
}

// NewContainer constructs the service graph from the configured business
// rules and the supplied repositories.
func NewContainer(cfg config.Config, reg Repositories, ext External) (*Container, error) {
	if reg == nil {
		return nil, errors.New("di: repositories registry is required")
	}
	if ext.Clock == nil {
		ext.Clock = time.Now
	}

	pricing, err := services.NewPricingEngine(services.PricingEngineDeps{
		BaseIngredients: cfg.Business.BaseIngredients,
		Extras:          extraOptions(cfg.Business.Extras),
	})
	if err != nil {
		return nil, fmt.Errorf("di: build pricing engine: %w", err)
	}

	svc, err := buildServices(cfg, reg, ext, pricing)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:   cfg,
		Pricing:  pricing,
		Services: svc,
	}, nil
}

func buildServices(cfg config.Config, reg Repositories, ext External, pricing *services.PricingEngine) (Services, error) {
	var svc Services

	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{
		Menu:    reg.Menu(),
		Recipes: reg.Recipes(),
		Images:  ext.Images,
		Clock:   ext.Clock,
		Logger:  ext.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build catalog service: %w", err)
	}
	svc.Catalog = catalog

	inventory, err := services.NewInventoryService(services.InventoryServiceDeps{
		Inventory: reg.Inventory(),
		Recipes:   reg.Recipes(),
		Alerts:    ext.RestockAlerts,
		Clock:     ext.Clock,
		Logger:    ext.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build inventory service: %w", err)
	}
	svc.Inventory = inventory

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:    reg.Orders(),
		Menu:      reg.Menu(),
		Employees: reg.Employees(),
		Pricing:   pricing,
		Inventory: inventory,
		Publisher: ext.OrderEvents,
		Location:  cfg.Business.Location,
		Hours: services.BusinessHours{
			Opening: cfg.Business.OpeningHour,
			Closing: cfg.Business.ClosingHour,
		},
		Clock:  ext.Clock,
		Logger: ext.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build order service: %w", err)
	}
	svc.Orders = orders

	reports, err := services.NewReportService(services.ReportServiceDeps{
		Orders:    reg.Orders(),
		Inventory: reg.Inventory(),
		Recipes:   reg.Recipes(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build report service: %w", err)
	}
	svc.Reports = reports

	employees, err := services.NewEmployeeService(services.EmployeeServiceDeps{
		Employees: reg.Employees(),
		Sessions:  ext.Sessions,
		Logger:    ext.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build employee service: %w", err)
	}
	svc.Employees = employees

	system, err := services.NewSystemService(services.SystemServiceDeps{
		Health: reg.Health(),
	})
	if err != nil {
		return Services{}, fmt.Errorf("di: build system service: %w", err)
	}
	svc.System = system

	return svc, nil
}

func extraOptions(extras []config.ExtraConfig) []services.ExtraOption {
	out := make([]services.ExtraOption, 0, len(extras))
	for _, extra := range extras {
		out = append(out, services.ExtraOption{
			Name:      extra.Name,
			Surcharge: domain.Cents(extra.Surcharge),
		})
	}
	return out
}
