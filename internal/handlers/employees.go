package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/pearlpos/api/internal/domain"
	"github.com/pearlpos/api/internal/platform/httpx"
	"github.com/pearlpos/api/internal/services"
)

// EmployeeHandlers exposes the staff management endpoints.
type EmployeeHandlers struct {
	employees services.EmployeeService
}

// NewEmployeeHandlers constructs a new EmployeeHandlers instance.
func NewEmployeeHandlers(employees services.EmployeeService) *EmployeeHandlers {
	return &EmployeeHandlers{employees: employees}
}

// Routes registers the /employees endpoints.
func (h *EmployeeHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.list)
	r.Get("/{employeeID}", h.get)
	r.Post("/", h.create)
	r.Put("/{employeeID}", h.update)
	r.Delete("/{employeeID}", h.delete)
}

type employeeRequest struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Passcode string `json:"passcode,omitempty"`
}

type employeeResponse struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

func toEmployeeResponse(employee domain.Employee) employeeResponse {
	return employeeResponse{ID: employee.ID, Name: employee.Name, Position: employee.Position}
}

func (h *EmployeeHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.employees == nil {
		httpx.WriteError(ctx, w, httpx.NewError("employee_service_unavailable", "employee service unavailable", http.StatusServiceUnavailable))
		return
	}
	employees, err := h.employees.List(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	rows := make([]employeeResponse, len(employees))
	for i, employee := range employees {
		rows[i] = toEmployeeResponse(employee)
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"employees": rows})
}

func (h *EmployeeHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := intURLParam(r, "employeeID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	employee, err := h.employees.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toEmployeeResponse(employee))
}

func (h *EmployeeHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req employeeRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}
	employee, err := h.employees.Create(ctx, services.EmployeeCommand(req))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toEmployeeResponse(employee))
}

func (h *EmployeeHandlers) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := intURLParam(r, "employeeID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	var req employeeRequest
	if err := decodeBody(w, r, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON body", http.StatusBadRequest))
		return
	}
	employee, err := h.employees.Update(ctx, id, services.EmployeeCommand(req))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toEmployeeResponse(employee))
}

func (h *EmployeeHandlers) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := intURLParam(r, "employeeID")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if err := h.employees.Delete(ctx, id); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
