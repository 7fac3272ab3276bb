package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/platform/httpx"
	"github.com/pearlpos/api/internal/services"
)

// MenuHandlers exposes the drink catalog endpoints.
type MenuHandlers struct {
	catalog services.CatalogService
}

// NewMenuHandlers constructs a new MenuHandlers instance.
func NewMenuHandlers(catalog services.CatalogService) *MenuHandlers {
	return &MenuHandlers{catalog: catalog}
}

// Routes registers the /menu endpoints.
func (h *MenuHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listMenu)
	r.Get("/{itemID}", h.getItem)
	r.Post("/", h.createItem)
	r.Put("/{itemID}", h.updateItem)
	r.Delete("/{itemID}", h.deleteItem)
	r.Post("/{itemID}/image-upload", h.imageUploadURL)
}

type seasonPayload struct {
	StartMonth int `json:"start_month"`
	StartDay   int `json:"start_day"`
	EndMonth   int `json:"end_month"`
	EndDay     int `json:"end_day"`
}

type recipeLinePayload struct {
	InventoryID  int     `json:"inventory_id"`
	QuantityUsed float64 `json:"quantity_used"`
}

type menuItemRequest struct {
	Name        string              `json:"name"`
	Category    string              `json:"category"`
	BasePrice   int64               `json:"base_price_cents"`
	Description string              `json:"description"`
	Season      *seasonPayload      `json:"season"`
	Recipe      []recipeLinePayload `json:"recipe"`
}

type menuItemResponse struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	BasePrice   int64          `json:"base_price_cents"`
	Description string         `json:"description,omitempty"`
	Season      *seasonPayload `json:"season,omitempty"`
	Available   bool           `json:"available"`
	ImageURL    string         `json:"image_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func toMenuItemResponse(view services.MenuItemView) menuItemResponse {
	resp := menuItemResponse{
		ID:          view.ID,
		Name:        view.Name,
		Category:    string(view.Category),
		BasePrice:   view.BasePrice.Cents(),
		Description: view.Description,
		Available:   view.Available,
		ImageURL:    view.ImageURL,
		CreatedAt:   view.CreatedAt,
		UpdatedAt:   view.UpdatedAt,
	}
	if view.Season != nil {
		resp.Season = &seasonPayload{
			StartMonth: view.Season.Start.Month,
			StartDay:   view.Season.Start.Day,
			EndMonth:   view.Season.End.Month,
			EndDay:     view.Season.End.Day,
		}
	}
	return resp
}

func (req menuItemRequest) toCommand() services.MenuItemCommand {
	cmd := services.MenuItemCommand{
		Name:        req.Name,
		Category:    domain.Category(strings.TrimSpace(req.Category)),
		BasePrice:   domain.Cents(req.BasePrice),
		Description: req.Description,
	}
	if req.Season != nil {
		cmd.Season = &domain.SeasonWindow{
			Start: domain.MonthDay{Month: req.Season.StartMonth, Day: req.Season.StartDay},
			End:   domain.MonthDay{Month: req.Season.EndMonth, Day: req.Season.EndDay},
		}
	}
	for _, line := range req.Recipe {
		cmd.Recipe = append(cmd.Recipe, services.RecipeLineInput{
			InventoryID:  line.InventoryID,
			QuantityUsed: line.QuantityUsed,
		})
	}
	return cmd
}

func (h *MenuHandlers) listMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	var (
		views []services.MenuItemView
		err   error
	)
	if strings.EqualFold(r.URL.Query().Get("available"), "true") {
		views, err = h.catalog.ListAvailable(ctx)
	} else {
		views, err = h.catalog.ListMenu(ctx)
	}
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]menuItemResponse, len(views))
	for i, view := range views {
		items[i] = toMenuItemResponse(view)
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *MenuHandlers) getItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := intURLParam(r, "itemID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	view, err := h.catalog.GetItem(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMenuItemResponse(view))
}

func (h *MenuHandlers) createItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req menuItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}
	view, err := h.catalog.CreateItem(ctx, req.toCommand())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toMenuItemResponse(view))
}

func (h *MenuHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := intURLParam(r, "itemID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	var req menuItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}
	view, err := h.catalog.UpdateItem(ctx, id, req.toCommand())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMenuItemResponse(view))
}

func (h *MenuHandlers) deleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := intURLParam(r, "itemID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if err := h.catalog.DeleteItem(ctx, id); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type imageUploadRequest struct {
	ContentType string `json:"content_type"`
}

func (h *MenuHandlers) imageUploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := intURLParam(r, "itemID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	var req imageUploadRequest
	// An absent body defaults the content type.
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/png"
	}

	upload, err := h.catalog.ImageUploadURL(ctx, id, req.ContentType)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"url":        upload.URL,
		"method":     upload.Method,
		"expires_at": upload.ExpiresAt.Format(time.RFC3339),
		"headers":    upload.Headers,
	})
}
