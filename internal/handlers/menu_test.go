package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/services"
)

func newMenuRouter(catalog services.CatalogService) chi.Router {
	r := chi.NewRouter()
	NewMenuHandlers(catalog).Routes(r)
	return r
}

func TestMenuListAvailableFlag(t *testing.T) {
	availableCalled := false
	catalog := &stubCatalogService{
		availableFn: func(context.Context) ([]services.MenuItemView, error) {
			availableCalled = true
			return []services.MenuItemView{{
				MenuItem:  domain.MenuItem{ID: 1, Name: "Classic Milk Tea", Category: domain.CategoryMilky, BasePrice: domain.Cents(550)},
				Available: true,
			}}, nil
		},
	}
	router := newMenuRouter(catalog)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?available=true", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !availableCalled {
		t.Fatalf("ListAvailable not routed")
	}

	var payload struct {
		Items []struct {
			ID        int    `json:"id"`
			Name      string `json:"name"`
			BasePrice int64  `json:"base_price_cents"`
			Available bool   `json:"available"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Items) != 1 || payload.Items[0].Name != "Classic Milk Tea" || payload.Items[0].BasePrice != 550 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestMenuCreateItem(t *testing.T) {
	var got services.MenuItemCommand
	catalog := &stubCatalogService{
		createFn: func(_ context.Context, cmd services.MenuItemCommand) (services.MenuItemView, error) {
			got = cmd
			return services.MenuItemView{
				MenuItem: domain.MenuItem{ID: 5, Name: cmd.Name, Category: cmd.Category, BasePrice: cmd.BasePrice, Season: cmd.Season},
			}, nil
		},
	}
	router := newMenuRouter(catalog)

	body := `{
		"name": "Pumpkin Spice",
		"category": "Fresh Brew",
		"base_price_cents": 650,
		"season": {"start_month": 9, "start_day": 1, "end_month": 11, "end_day": 30},
		"recipe": [{"inventory_id": 3, "quantity_used": 0.5}]
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if got.Name != "Pumpkin Spice" || got.Category != domain.CategoryFreshBrew || got.BasePrice != domain.Cents(650) {
		t.Fatalf("unexpected command %+v", got)
	}
	if got.Season == nil || got.Season.Start.Month != 9 || got.Season.End.Day != 30 {
		t.Fatalf("season not parsed: %+v", got.Season)
	}
	if len(got.Recipe) != 1 || got.Recipe[0].InventoryID != 3 {
		t.Fatalf("recipe not parsed: %+v", got.Recipe)
	}
}

func TestMenuCreateItemRejectsBadBody(t *testing.T) {
	router := newMenuRouter(&stubCatalogService{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestMenuGetItemNotFound(t *testing.T) {
	catalog := &stubCatalogService{
		getFn: func(context.Context, int) (services.MenuItemView, error) {
			return services.MenuItemView{}, services.ErrMenuItemNotFound
		},
	}
	router := newMenuRouter(catalog)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/42", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestMenuGetItemBadID(t *testing.T) {
	router := newMenuRouter(&stubCatalogService{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/zero", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestMenuDeleteItem(t *testing.T) {
	deleted := 0
	catalog := &stubCatalogService{
		deleteFn: func(_ context.Context, id int) error {
			deleted = id
			return nil
		},
	}
	router := newMenuRouter(catalog)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/9", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d", rec.Code)
	}
	if deleted != 9 {
		t.Fatalf("wrong id deleted: %d", deleted)
	}
}

func TestMenuImageUploadDefaultsContentType(t *testing.T) {
	var gotContentType string
	catalog := &stubCatalogService{
		uploadFn: func(_ context.Context, id int, contentType string) (services.ImageUploadView, error) {
			gotContentType = contentType
			return services.ImageUploadView{URL: "https://signed", Method: http.MethodPut}, nil
		},
	}
	router := newMenuRouter(catalog)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/9/image-upload", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if gotContentType != "image/png" {
		t.Fatalf("unexpected content type %q", gotContentType)
	}
}
