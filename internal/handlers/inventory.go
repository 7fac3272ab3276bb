package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pearlpos/api/internal/platform/auth"
	"github.com/pearlpos/api/internal/platform/httpx"
	"github.com/pearlpos/api/internal/services"
)

// InventoryHandlers exposes the ingredient stock endpoints. Reads are open to
// register staff; mutations require the manager role.
type InventoryHandlers struct {
	inventory services.InventoryService
	sessions  auth.Verifier
}

// NewInventoryHandlers constructs a new InventoryHandlers instance.
func NewInventoryHandlers(inventory services.InventoryService, sessions auth.Verifier) *InventoryHandlers {
	return &InventoryHandlers{inventory: inventory, sessions: sessions}
}

// Routes registers the /inventory endpoints.
func (h *InventoryHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listItems)
	r.Get("/restock-needed", h.listRestockNeeded)
	r.Get("/{itemID}", h.getItem)

	r.Group(func(managed chi.Router) {
		if h.sessions != nil {
			managed.Use(auth.RequireSession(h.sessions, auth.RoleManager))
		}
		managed.Post("/", h.createItem)
		managed.Put("/{itemID}", h.updateItem)
		managed.Delete("/{itemID}", h.deleteItem)
		managed.Post("/{itemID}:restock", h.requestRestock)
	})
}

type inventoryItemRequest struct {
	Name           string  `json:"name"`
	Unit           string  `json:"unit"`
	Quantity       float64 `json:"quantity"`
	RestockMinimum int     `json:"restock_minimum"`
}

type inventoryItemResponse struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Unit           string    `json:"unit,omitempty"`
	Quantity       float64   `json:"quantity"`
	RestockMinimum int       `json:"restock_minimum"`
	RestockOrdered float64   `json:"restock_ordered"`
	NeedsRestock   bool      `json:"needs_restock"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toInventoryItemResponse(view services.InventoryItemView) inventoryItemResponse {
	return inventoryItemResponse{
		ID:             view.ID,
		Name:           view.Name,
		Unit:           view.Unit,
		Quantity:       view.Quantity,
		RestockMinimum: view.RestockMinimum,
		RestockOrdered: view.RestockOrdered,
		NeedsRestock:   view.NeedsRestock,
		UpdatedAt:      view.UpdatedAt,
	}
}

func (h *InventoryHandlers) listItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.inventory == nil {
		httpx.WriteError(ctx, w, httpx.NewError("inventory_unavailable", "inventory service unavailable", http.StatusServiceUnavailable))
		return
	}
	views, err := h.inventory.ListItems(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": toInventoryItemResponses(views)})
}

func (h *InventoryHandlers) listRestockNeeded(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views, err := h.inventory.ListRestockNeeded(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": toInventoryItemResponses(views)})
}

func (h *InventoryHandlers) getItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := intURLParam(r, "itemID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	view, err := h.inventory.GetItem(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toInventoryItemResponse(view))
}

func (h *InventoryHandlers) createItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req inventoryItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}
	view, err := h.inventory.CreateItem(ctx, services.InventoryItemCommand(req))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toInventoryItemResponse(view))
}

func (h *InventoryHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := intURLParam(r, "itemID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	var req inventoryItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}
	view, err := h.inventory.UpdateItem(ctx, id, services.InventoryItemCommand(req))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toInventoryItemResponse(view))
}

func (h *InventoryHandlers) deleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := intURLParam(r, "itemID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if err := h.inventory.DeleteItem(ctx, id); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type restockRequest struct {
	Amount float64 `json:"amount"`
}

func (h *InventoryHandlers) requestRestock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := intURLParam(r, "itemID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	var req restockRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}
	view, err := h.inventory.RequestRestock(ctx, id, req.Amount)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toInventoryItemResponse(view))
}

func toInventoryItemResponses(views []services.InventoryItemView) []inventoryItemResponse {
	items := make([]inventoryItemResponse, len(views))
	for i, view := range views {
		items[i] = toInventoryItemResponse(view)
	}
	return items
}
