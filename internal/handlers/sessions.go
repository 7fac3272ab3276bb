package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pearlpos/api/internal/platform/httpx"
	"github.com/pearlpos/api/internal/services"
)

// SessionHandlers exposes register sign-in.
type SessionHandlers struct {
	employees services.EmployeeService
}

// NewSessionHandlers constructs a new SessionHandlers instance.
func NewSessionHandlers(employees services.EmployeeService) *SessionHandlers {
	return &SessionHandlers{employees: employees}
}

// Routes registers the /sessions endpoints.
func (h *SessionHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.signIn)
}

type signInRequest struct {
	EmployeeID int    `json:"employee_id"`
	Passcode   string `json:"passcode"`
}

func (h *SessionHandlers) signIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.employees == nil {
		httpx.WriteError(ctx, w, httpx.NewError("employee_service_unavailable", "employee service unavailable", http.StatusServiceUnavailable))
		return
	}
	var req signInRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}

	result, err := h.employees.SignIn(ctx, req.EmployeeID, req.Passcode)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"token":      result.Token,
		"expires_at": result.ExpiresAt.Format(time.RFC3339),
		"employee":   toEmployeeResponse(result.Employee),
	})
}
