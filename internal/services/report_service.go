package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/repositories"
)

var (
	// ErrReportInvalidInput signals invalid caller arguments.
	ErrReportInvalidInput = errors.New("reports: invalid input")
	// ErrReportUnavailable indicates the backing store is unreachable.
	ErrReportUnavailable = errors.New("reports: store unavailable")
)

// defaultTopItemLimit matches the dashboard's five-row top-sellers widget.
const defaultTopItemLimit = 5

// ReportServiceDeps bundles the collaborators for the report service.
type ReportServiceDeps struct {
	Orders    repositories.OrderRepository
	Inventory repositories.InventoryRepository
	Recipes   repositories.RecipeRepository
}

type reportService struct {
	orders    repositories.OrderRepository
	inventory repositories.InventoryRepository
	recipes   repositories.RecipeRepository
}

// NewReportService wires dependencies into a ReportService.
func NewReportService(deps ReportServiceDeps) (ReportService, error) {
	if deps.Orders == nil {
		return nil, errors.New("report service: order repository is required")
	}
	if deps.Inventory == nil {
		return nil, errors.New("report service: inventory repository is required")
	}
	if deps.Recipes == nil {
		return nil, errors.New("report service: recipe repository is required")
	}

	return &reportService{
		orders:    deps.Orders,
		inventory: deps.Inventory,
		recipes:   deps.Recipes,
	}, nil
}

func (s *reportService) Totals(ctx context.Context, window domain.ReportWindow) (domain.ReportTotals, error) {
	if err := validateWindow(window); err != nil {
		return domain.ReportTotals{}, err
	}
	orders, err := s.orders.ListWindow(ctx, window)
	if err != nil {
		return domain.ReportTotals{}, s.mapError(err)
	}

	revenue, count := foldOrders(orders, nil)
	return domain.ReportTotals{Revenue: revenue, OrderCount: count}, nil
}

func (s *reportService) HourlySales(ctx context.Context, day time.Time) ([]domain.HourlySales, error) {
	orders, err := s.orders.ListWindow(ctx, domain.DayWindow(day.UTC()))
	if err != nil {
		return nil, s.mapError(err)
	}
	return hourlyBuckets(orders), nil
}

func (s *reportService) TopItems(ctx context.Context, window domain.ReportWindow, limit int) ([]domain.ItemRevenue, error) {
	if err := validateWindow(window); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopItemLimit
	}

	lines, err := s.orders.ListSoldLines(ctx, window)
	if err != nil {
		return nil, s.mapError(err)
	}

	revenue := make(map[string]domain.Money)
	for _, line := range lines {
		revenue[line.ItemName] = revenue[line.ItemName].Add(line.UnitPrice.MulInt(line.Quantity))
	}

	ranked := make([]domain.ItemRevenue, 0, len(revenue))
	for name, total := range revenue {
		ranked = append(ranked, domain.ItemRevenue{ItemName: name, Revenue: total})
	}
	// Revenue descending, ties broken by name so the ordering is stable.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].ItemName < ranked[j].ItemName
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (s *reportService) IngredientUsage(ctx context.Context, window domain.ReportWindow) ([]domain.IngredientUsage, error) {
	if err := validateWindow(window); err != nil {
		return nil, err
	}

	lines, err := s.orders.ListSoldLines(ctx, window)
	if err != nil {
		return nil, s.mapError(err)
	}
	recipes, err := s.recipes.ListAll(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	items, err := s.inventory.List(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}

	recipesByItem := make(map[int][]domain.RecipeLine)
	for _, rl := range recipes {
		recipesByItem[rl.MenuItemID] = append(recipesByItem[rl.MenuItemID], rl)
	}

	consumed := make(map[int]float64)
	for _, line := range lines {
		for _, rl := range recipesByItem[line.MenuItemID] {
			consumed[rl.InventoryID] += rl.QuantityUsed * float64(line.Quantity)
		}
	}

	usage := make([]domain.IngredientUsage, 0, len(consumed))
	for _, item := range items {
		qty, ok := consumed[item.ID]
		if !ok {
			continue
		}
		usage = append(usage, domain.IngredientUsage{
			IngredientName: item.Name,
			Unit:           item.Unit,
			QuantityUsed:   qty,
		})
	}
	// Heaviest consumption first, ties broken by name so the ordering is
	// stable.
	sort.Slice(usage, func(i, j int) bool {
		if usage[i].QuantityUsed != usage[j].QuantityUsed {
			return usage[i].QuantityUsed > usage[j].QuantityUsed
		}
		return usage[i].IngredientName < usage[j].IngredientName
	})
	return usage, nil
}

func (s *reportService) XReport(ctx context.Context, day time.Time) (domain.XReport, error) {
	window := domain.DayWindow(day.UTC())
	orders, err := s.orders.ListWindow(ctx, window)
	if err != nil {
		return domain.XReport{}, s.mapError(err)
	}
	discards, err := s.inventory.SumRestockOrdered(ctx)
	if err != nil {
		return domain.XReport{}, s.mapError(err)
	}

	totalSales, _ := foldOrders(orders, nil)
	refunded, _ := foldOrders(orders, func(o domain.Order) bool { return o.Total.IsNegative() })
	_, voids := foldOrders(orders, func(o domain.Order) bool { return o.Total.IsZero() })

	return domain.XReport{
		Day:        window.Start,
		Hourly:     hourlyBuckets(orders),
		Discards:   discards,
		TotalSales: totalSales,
		Returns:    refunded.Abs(),
		Voids:      voids,
	}, nil
}

func (s *reportService) ZReport(ctx context.Context, day time.Time) (domain.ZReport, error) {
	window := domain.DayWindow(day.UTC())
	orders, err := s.orders.ListWindow(ctx, window)
	if err != nil {
		return domain.ZReport{}, s.mapError(err)
	}

	report := domain.ZReport{Day: window.Start, OrderCount: len(orders)}
	for _, order := range orders {
		report.TotalSales = report.TotalSales.Add(order.Total)
		placed := order.PlacedAt
		if report.FirstOrder == nil || placed.Before(*report.FirstOrder) {
			first := placed
			report.FirstOrder = &first
		}
		if report.LastOrder == nil || placed.After(*report.LastOrder) {
			last := placed
			report.LastOrder = &last
		}
	}
	return report, nil
}

// foldOrders sums totals and counts orders matching the predicate; a nil
// predicate matches every order. Totals and the X-Report figures all run
// through this one fold.
func foldOrders(orders []domain.Order, match func(domain.Order) bool) (domain.Money, int) {
	var sum domain.Money
	count := 0
	for _, order := range orders {
		if match != nil && !match(order) {
			continue
		}
		sum = sum.Add(order.Total)
		count++
	}
	return sum, count
}

// hourlyBuckets groups order totals by hour of day, omitting empty hours.
func hourlyBuckets(orders []domain.Order) []domain.HourlySales {
	byHour := make(map[int]domain.Money)
	for _, order := range orders {
		hour := order.PlacedAt.Hour()
		byHour[hour] = byHour[hour].Add(order.Total)
	}

	hours := make([]int, 0, len(byHour))
	for hour := range byHour {
		hours = append(hours, hour)
	}
	sort.Ints(hours)

	sales := make([]domain.HourlySales, len(hours))
	for i, hour := range hours {
		sales[i] = domain.HourlySales{Hour: hour, Revenue: byHour[hour]}
	}
	return sales
}

func validateWindow(window domain.ReportWindow) error {
	if !window.End.After(window.Start) {
		return fmt.Errorf("%w: window end must follow start", ErrReportInvalidInput)
	}
	return nil
}

func (s *reportService) mapError(err error) error {
	if repositories.IsUnavailable(err) {
		return fmt.Errorf("%w: %v", ErrReportUnavailable, err)
	}
	return err
}
