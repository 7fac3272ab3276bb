package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/services"
)

func newReportRouter(reports services.ReportService, clock func() time.Time) chi.Router {
	r := chi.NewRouter()
	NewReportHandlers(reports, clock).Routes(r)
	return r
}

func TestReportTotalsParsesDateWindow(t *testing.T) {
	var gotWindow domain.ReportWindow
	reports := &stubReportService{
		totalsFn: func(_ context.Context, window domain.ReportWindow) (domain.ReportTotals, error) {
			gotWindow = window
			return domain.ReportTotals{Revenue: domain.Cents(12345), OrderCount: 17}, nil
		},
	}
	router := newReportRouter(reports, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/totals?start=2026-04-01&end=2026-04-07", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	wantStart := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	// End date widens to the following midnight to keep the window closed-open.
	wantEnd := time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC)
	if !gotWindow.Start.Equal(wantStart) || !gotWindow.End.Equal(wantEnd) {
		t.Fatalf("unexpected window %v", gotWindow)
	}

	var payload struct {
		RevenueCents int64 `json:"revenue_cents"`
		OrderCount   int   `json:"order_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.RevenueCents != 12345 || payload.OrderCount != 17 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestReportTotalsRequiresWindow(t *testing.T) {
	router := newReportRouter(&stubReportService{}, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/totals", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestReportXDefaultsToToday(t *testing.T) {
	now := time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)
	var gotDay time.Time
	reports := &stubReportService{
		xFn: func(_ context.Context, day time.Time) (domain.XReport, error) {
			gotDay = day
			return domain.XReport{Day: domain.DayWindow(day).Start, Voids: 1, Discards: 3.5}, nil
		},
	}
	router := newReportRouter(reports, func() time.Time { return now })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !gotDay.Equal(now) {
		t.Fatalf("day not defaulted to clock: %v", gotDay)
	}

	var payload struct {
		Day      string  `json:"day"`
		Voids    int     `json:"voids"`
		Discards float64 `json:"discards"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Day != "2026-04-02" || payload.Voids != 1 || payload.Discards != 3.5 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestReportZOmitsOrderTimesWhenEmpty(t *testing.T) {
	reports := &stubReportService{
		zFn: func(_ context.Context, day time.Time) (domain.ZReport, error) {
			return domain.ZReport{Day: domain.DayWindow(day).Start}, nil
		},
	}
	router := newReportRouter(reports, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/z?day=2026-04-02", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := payload["first_order_at"]; ok {
		t.Fatalf("first_order_at should be omitted for an empty day")
	}
}

func TestReportTopItemsLimit(t *testing.T) {
	var gotLimit int
	reports := &stubReportService{
		topFn: func(_ context.Context, _ domain.ReportWindow, limit int) ([]domain.ItemRevenue, error) {
			gotLimit = limit
			return []domain.ItemRevenue{{ItemName: "Milk Tea", Revenue: domain.Cents(1000)}}, nil
		},
	}
	router := newReportRouter(reports, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/top-items?start=2026-04-01&end=2026-04-07&limit=3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if gotLimit != 3 {
		t.Fatalf("limit not passed: %d", gotLimit)
	}
}
