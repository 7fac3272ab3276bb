package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/platform/httpx"
	"github.com/pearlpos/api/internal/services"
)

// ReportHandlers exposes the manager dashboard report endpoints.
type ReportHandlers struct {
	reports services.ReportService
	clock   func() time.Time
}

// NewReportHandlers constructs a new ReportHandlers instance. The clock
// defaults the day parameter on the X and Z reports.
func NewReportHandlers(reports services.ReportService, clock func() time.Time) *ReportHandlers {
	if clock == nil {
		clock = time.Now
	}
	return &ReportHandlers{reports: reports, clock: clock}
}

// Routes registers the /reports endpoints.
func (h *ReportHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/totals", h.totals)
	r.Get("/hourly", h.hourly)
	r.Get("/top-items", h.topItems)
	r.Get("/ingredient-usage", h.ingredientUsage)
	r.Get("/x", h.xReport)
	r.Get("/z", h.zReport)
}

func (h *ReportHandlers) totals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reports == nil {
		httpx.WriteError(ctx, w, httpx.NewError("report_service_unavailable", "report service unavailable", http.StatusServiceUnavailable))
		return
	}
	window, err := parseWindowParams(r.URL.Query())
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	totals, err := h.reports.Totals(ctx, window)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"revenue_cents": totals.Revenue.Cents(),
		"order_count":   totals.OrderCount,
		"start":         window.Start.Format(time.RFC3339),
		"end":           window.End.Format(time.RFC3339),
	})
}

func (h *ReportHandlers) hourly(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	day, err := h.dayParam(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	hourly, err := h.reports.HourlySales(ctx, day)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"day":   day.Format("2006-01-02"),
		"hours": toHourlyPayload(hourly),
	})
}

func (h *ReportHandlers) topItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	window, err := parseWindowParams(r.URL.Query())
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a non-negative integer", http.StatusBadRequest))
			return
		}
	}

	top, err := h.reports.TopItems(ctx, window, limit)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	items := make([]map[string]any, len(top))
	for i, item := range top {
		items[i] = map[string]any{
			"item_name":     item.ItemName,
			"revenue_cents": item.Revenue.Cents(),
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *ReportHandlers) ingredientUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	window, err := parseWindowParams(r.URL.Query())
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	usage, err := h.reports.IngredientUsage(ctx, window)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	rows := make([]map[string]any, len(usage))
	for i, row := range usage {
		rows[i] = map[string]any{
			"ingredient":    row.IngredientName,
			"unit":          row.Unit,
			"quantity_used": row.QuantityUsed,
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"usage": rows})
}

func (h *ReportHandlers) xReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	day, err := h.dayParam(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	report, err := h.reports.XReport(ctx, day)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"day":               report.Day.Format("2006-01-02"),
		"hours":             toHourlyPayload(report.Hourly),
		"total_sales_cents": report.TotalSales.Cents(),
		"returns_cents":     report.Returns.Cents(),
		"voids":             report.Voids,
		"discards":          report.Discards,
	})
}

func (h *ReportHandlers) zReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	day, err := h.dayParam(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	report, err := h.reports.ZReport(ctx, day)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	payload := map[string]any{
		"day":               report.Day.Format("2006-01-02"),
		"total_sales_cents": report.TotalSales.Cents(),
		"order_count":       report.OrderCount,
	}
	if report.FirstOrder != nil {
		payload["first_order_at"] = report.FirstOrder.Format(time.RFC3339)
	}
	if report.LastOrder != nil {
		payload["last_order_at"] = report.LastOrder.Format(time.RFC3339)
	}
	httpx.WriteJSON(w, http.StatusOK, payload)
}

// dayParam reads ?day=YYYY-MM-DD, defaulting to today.
func (h *ReportHandlers) dayParam(r *http.Request) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("day"))
	if raw == "" {
		return h.clock().UTC(), nil
	}
	day, err := parseDayParam(raw)
	if err != nil {
		return time.Time{}, err
	}
	return day, nil
}

func toHourlyPayload(hourly []domain.HourlySales) []map[string]any {
	rows := make([]map[string]any, len(hourly))
	for i, bucket := range hourly {
		rows[i] = map[string]any{
			"hour":          bucket.Hour,
			"revenue_cents": bucket.Revenue.Cents(),
		}
	}
	return rows
}
