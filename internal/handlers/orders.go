package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/platform/auth"
	"github.com/pearlpos/api/internal/platform/httpx"
	"github.com/pearlpos/api/internal/platform/pagination"
	"github.com/pearlpos/api/internal/repositories"
	"github.com/pearlpos/api/internal/services"
)

const (
	defaultOrderPageSize = 20
	maxOrderPageSize     = 100
)

// OrderHandlers exposes the register order endpoints. The signed-in employee
// identifies the draft being worked on.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Get("/draft", h.getDraft)
	r.Post("/draft/lines", h.addLine)
	r.Delete("/draft/lines/{index}", h.removeLine)
	r.Delete("/draft", h.clearDraft)
	r.Post("/draft:submit", h.submitDraft)
}

type orderLinePayload struct {
	MenuItemID     int    `json:"menu_item_id"`
	ItemName       string `json:"item_name"`
	Description    string `json:"description"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
}

type draftResponse struct {
	Lines      []orderLinePayload `json:"lines"`
	TotalCents int64              `json:"total_cents"`
}

type orderResponse struct {
	ID         string             `json:"id"`
	EmployeeID int                `json:"employee_id"`
	Location   string             `json:"location"`
	PlacedAt   time.Time          `json:"placed_at"`
	TotalCents int64              `json:"total_cents"`
	Lines      []orderLinePayload `json:"lines"`
}

func toOrderLinePayloads(lines []domain.OrderLine) []orderLinePayload {
	out := make([]orderLinePayload, len(lines))
	for i, line := range lines {
		out[i] = orderLinePayload{
			MenuItemID:     line.MenuItemID,
			ItemName:       line.ItemName,
			Description:    line.Description,
			UnitPriceCents: line.UnitPrice.Cents(),
			Quantity:       line.Quantity,
		}
	}
	return out
}

func toDraftResponse(draft services.DraftView) draftResponse {
	return draftResponse{
		Lines:      toOrderLinePayloads(draft.Lines),
		TotalCents: draft.Total.Cents(),
	}
}

func toOrderResponse(order domain.Order) orderResponse {
	return orderResponse{
		ID:         order.ID,
		EmployeeID: order.EmployeeID,
		Location:   order.Location,
		PlacedAt:   order.PlacedAt,
		TotalCents: order.Total.Cents(),
		Lines:      toOrderLinePayloads(order.Lines),
	}
}

func registerEmployeeID(r *http.Request) (int, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity == nil {
		return 0, false
	}
	id, err := strconv.Atoi(identity.EmployeeID)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	pageSize := defaultOrderPageSize
	if sizeRaw := strings.TrimSpace(query.Get("page_size")); sizeRaw != "" {
		size, err := strconv.Atoi(sizeRaw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "page_size must be an integer", http.StatusBadRequest))
			return
		}
		pageSize = pagination.Clamp(size, defaultOrderPageSize, maxOrderPageSize)
	}

	page, err := h.orders.ListOrders(ctx, repositories.OrderListFilter{
		PageSize:  pageSize,
		PageToken: strings.TrimSpace(query.Get("page_token")),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	summaries := make([]map[string]any, len(page.Items))
	for i, summary := range page.Items {
		summaries[i] = map[string]any{
			"id":          summary.ID,
			"placed_at":   summary.PlacedAt,
			"total_cents": summary.Total.Cents(),
		}
	}
	payload := map[string]any{"orders": summaries}
	if page.NextPageToken != "" {
		payload["next_page_token"] = page.NextPageToken
	}
	httpx.WriteJSON(w, http.StatusOK, payload)
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := strings.TrimSpace(chi.URLParam(r, "orderID"))
	order, err := h.orders.GetOrder(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandlers) getDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, ok := registerEmployeeID(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	draft, err := h.orders.Draft(ctx, employeeID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDraftResponse(draft))
}

type addLineRequest struct {
	MenuItemID int      `json:"menu_item_id"`
	Quantity   int      `json:"quantity"`
	Removals   []string `json:"removals"`
	Extras     []string `json:"extras"`
}

func (h *OrderHandlers) addLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, ok := registerEmployeeID(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	var req addLineRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	draft, err := h.orders.AddLine(ctx, employeeID, services.OrderLineCommand{
		MenuItemID: req.MenuItemID,
		Quantity:   req.Quantity,
		Removals:   req.Removals,
		Extras:     req.Extras,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDraftResponse(draft))
}

func (h *OrderHandlers) removeLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, ok := registerEmployeeID(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	index, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "index")))
	if err != nil || index < 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "index must be a non-negative integer", http.StatusBadRequest))
		return
	}
	draft, err := h.orders.RemoveLine(ctx, employeeID, index)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toDraftResponse(draft))
}

func (h *OrderHandlers) clearDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, ok := registerEmployeeID(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if err := h.orders.ClearDraft(ctx, employeeID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type submitRequest struct {
	BackdateDay string `json:"backdate_day"`
}

func (h *OrderHandlers) submitDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	employeeID, ok := registerEmployeeID(r)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	cmd := services.SubmitCommand{EmployeeID: employeeID}
	if r.ContentLength > 0 {
		var req submitRequest
		if err := decodeBody(w, r, &req); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
			return
		}
		if req.BackdateDay != "" {
			day, err := parseDayParam(req.BackdateDay)
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "backdate_day: "+err.Error(), http.StatusBadRequest))
				return
			}
			cmd.BackdateDay = &day
		}
	}

	order, err := h.orders.Submit(ctx, cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toOrderResponse(order))
}
