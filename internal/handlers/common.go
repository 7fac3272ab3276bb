package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/platform/httpx"
	"github.com/pearlpos/api/internal/services"
)

const maxRequestBodySize = 64 * 1024

type errorMapping struct {
	target error
	code   string
	status int
}

// serviceErrorMappings translates service sentinel errors into the wire
// envelope. First match wins.
var serviceErrorMappings = []errorMapping{
	{services.ErrMenuItemNotFound, "menu_item_not_found", http.StatusNotFound},
	{services.ErrCatalogInvalidInput, "invalid_request", http.StatusBadRequest},
	{services.ErrCatalogUnavailable, "store_unavailable", http.StatusServiceUnavailable},
	{services.ErrOrderNotFound, "order_not_found", http.StatusNotFound},
	{services.ErrEmptyOrder, "empty_order", http.StatusConflict},
	{services.ErrItemUnavailable, "item_out_of_season", http.StatusConflict},
	{services.ErrOrderInvalidInput, "invalid_request", http.StatusBadRequest},
	{services.ErrOrderUnavailable, "store_unavailable", http.StatusServiceUnavailable},
	{services.ErrPricingInvalidInput, "invalid_request", http.StatusBadRequest},
	{services.ErrUnknownIngredient, "unknown_ingredient", http.StatusBadRequest},
	{services.ErrUnknownExtra, "unknown_extra", http.StatusBadRequest},
	{services.ErrInventoryItemNotFound, "inventory_item_not_found", http.StatusNotFound},
	{services.ErrInventoryInvalidInput, "invalid_request", http.StatusBadRequest},
	{services.ErrInventoryUnavailable, "store_unavailable", http.StatusServiceUnavailable},
	{services.ErrReportInvalidInput, "invalid_request", http.StatusBadRequest},
	{services.ErrReportUnavailable, "store_unavailable", http.StatusServiceUnavailable},
	{services.ErrEmployeeNotFound, "employee_not_found", http.StatusNotFound},
	{services.ErrEmployeeInvalidInput, "invalid_request", http.StatusBadRequest},
	{services.ErrInvalidPasscode, "invalid_credentials", http.StatusUnauthorized},
	{services.ErrEmployeeUnavailable, "store_unavailable", http.StatusServiceUnavailable},
}

func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	for _, mapping := range serviceErrorMappings {
		if errors.Is(err, mapping.target) {
			httpx.WriteError(ctx, w, httpx.NewError(mapping.code, err.Error(), mapping.status))
			return
		}
	}
	httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal error", http.StatusInternalServerError))
}

func intURLParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return value, nil
}

// parseDayParam accepts a calendar day as YYYY-MM-DD.
func parseDayParam(raw string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, errors.New("expected a YYYY-MM-DD date")
	}
	return day.UTC(), nil
}

// parseWindowParams reads start/end query params into a closed-open window.
// Bare dates widen to midnight boundaries; RFC3339 timestamps pass through.
func parseWindowParams(query map[string][]string) (domain.ReportWindow, error) {
	get := func(name string) string {
		values := query[name]
		if len(values) == 0 {
			return ""
		}
		return strings.TrimSpace(values[0])
	}

	parse := func(raw string, dayEnd bool) (time.Time, error) {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts.UTC(), nil
		}
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, errors.New("expected YYYY-MM-DD or RFC3339")
		}
		if dayEnd {
			day = day.AddDate(0, 0, 1)
		}
		return day.UTC(), nil
	}

	startRaw, endRaw := get("start"), get("end")
	if startRaw == "" || endRaw == "" {
		return domain.ReportWindow{}, errors.New("start and end are required")
	}
	start, err := parse(startRaw, false)
	if err != nil {
		return domain.ReportWindow{}, errors.New("start: " + err.Error())
	}
	end, err := parse(endRaw, true)
	if err != nil {
		return domain.ReportWindow{}, errors.New("end: " + err.Error())
	}
	return domain.ReportWindow{Start: start, End: end}, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
