package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/platform/auth"
	"github.com/pearlpos/api/internal/repositories"
	"github.com/pearlpos/api/internal/services"
)

func newOrderRouter(orders services.OrderService) chi.Router {
	r := chi.NewRouter()
	NewOrderHandlers(orders).Routes(r)
	return r
}

func asCashier(req *http.Request) *http.Request {
	identity := &auth.Identity{EmployeeID: "42", Name: "Casey", Role: auth.RoleCashier}
	return req.WithContext(auth.WithIdentity(req.Context(), identity))
}

func TestOrdersAddLine(t *testing.T) {
	var gotEmployee int
	var gotCmd services.OrderLineCommand
	orders := &stubOrderService{
		addFn: func(_ context.Context, employeeID int, cmd services.OrderLineCommand) (services.DraftView, error) {
			gotEmployee = employeeID
			gotCmd = cmd
			return services.DraftView{
				Lines: []domain.OrderLine{{MenuItemID: 1, ItemName: "Milk Tea", Description: "Milk Tea [+Pudding]", UnitPrice: domain.Cents(600), Quantity: 2}},
				Total: domain.Cents(1200),
			}, nil
		},
	}
	router := newOrderRouter(orders)

	body := `{"menu_item_id": 1, "quantity": 2, "removals": ["Ice"], "extras": ["Pudding"]}`
	req := asCashier(httptest.NewRequest(http.MethodPost, "/draft/lines", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if gotEmployee != 42 {
		t.Fatalf("employee not taken from session: %d", gotEmployee)
	}
	if gotCmd.MenuItemID != 1 || gotCmd.Quantity != 2 || len(gotCmd.Removals) != 1 || len(gotCmd.Extras) != 1 {
		t.Fatalf("unexpected command %+v", gotCmd)
	}

	var payload struct {
		TotalCents int64 `json:"total_cents"`
		Lines      []struct {
			Description string `json:"description"`
		} `json:"lines"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.TotalCents != 1200 || len(payload.Lines) != 1 || payload.Lines[0].Description != "Milk Tea [+Pudding]" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestOrdersAddLineRequiresSession(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/draft/lines", strings.NewReader(`{"menu_item_id":1}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestOrdersSubmitWithBackdate(t *testing.T) {
	var gotCmd services.SubmitCommand
	orders := &stubOrderService{
		submitFn: func(_ context.Context, cmd services.SubmitCommand) (domain.Order, error) {
			gotCmd = cmd
			return domain.Order{ID: "ord-1", EmployeeID: 10, Total: domain.Cents(550), PlacedAt: time.Date(2026, 1, 12, 11, 3, 0, 0, time.UTC)}, nil
		},
	}
	router := newOrderRouter(orders)

	req := asCashier(httptest.NewRequest(http.MethodPost, "/draft:submit", strings.NewReader(`{"backdate_day": "2026-01-12"}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if gotCmd.EmployeeID != 42 {
		t.Fatalf("unexpected employee %d", gotCmd.EmployeeID)
	}
	if gotCmd.BackdateDay == nil || gotCmd.BackdateDay.Day() != 12 {
		t.Fatalf("backdate day not parsed: %v", gotCmd.BackdateDay)
	}
}

func TestOrdersSubmitEmptyDraftConflict(t *testing.T) {
	orders := &stubOrderService{
		submitFn: func(context.Context, services.SubmitCommand) (domain.Order, error) {
			return domain.Order{}, services.ErrEmptyOrder
		},
	}
	router := newOrderRouter(orders)

	req := asCashier(httptest.NewRequest(http.MethodPost, "/draft:submit", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestOrdersRemoveLineBadIndex(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})
	req := asCashier(httptest.NewRequest(http.MethodDelete, "/draft/lines/abc", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestOrdersListPageSizeClamped(t *testing.T) {
	var gotSize int
	orders := &stubOrderService{
		listFn: func(_ context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.OrderSummary], error) {
			gotSize = filter.PageSize
			return domain.CursorPage[domain.OrderSummary]{NextPageToken: "next"}, nil
		},
	}
	router := newOrderRouter(orders)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?page_size=500", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if gotSize != maxOrderPageSize {
		t.Fatalf("page size not clamped: %d", gotSize)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["next_page_token"] != "next" {
		t.Fatalf("missing next_page_token: %v", payload)
	}
}

func TestOrdersGetOrderNotFound(t *testing.T) {
	orders := &stubOrderService{
		getFn: func(context.Context, string) (domain.Order, error) {
			return domain.Order{}, services.ErrOrderNotFound
		},
	}
	router := newOrderRouter(orders)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/01J0000000000000000000000", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
}
