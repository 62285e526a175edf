package hr

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kgomo-bms/kgomo-bms/internal/shared"
	"github.com/kgomo-bms/kgomo-bms/internal/view"
)

// Handler serves the employee register pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListRequest{Limit: 200}
	if q := r.URL.Query().Get("q"); q != "" {
		req.Search = &q
	}
	if v := r.URL.Query().Get("active"); v != "" {
		active := v == "1"
		req.IsActive = &active
	}
	employees, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list employees", slog.Any("error", err))
		http.Error(w, "Failed to load employees", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/employees_list.html", "Employees", map[string]any{
		"Employees": employees,
		"Total":     total,
		"Search":    r.URL.Query().Get("q"),
	}, http.StatusOK)
}

func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/employee_form.html", "New employee", map[string]any{
		"Employee": nil,
		"Errors":   map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input := CreateInput{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Role:      r.PostFormValue("role"),
		Email:     optional(r.PostFormValue("email")),
		Phone:     optional(r.PostFormValue("phone")),
	}
	if d := r.PostFormValue("date_joined"); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			input.DateJoined = t
		}
	}
	employee, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.render(w, r, "pages/employee_form.html", "New employee", map[string]any{
			"Employee": nil,
			"Errors":   map[string]string{"general": err.Error()},
		}, http.StatusBadRequest)
		return
	}
	shared.RedirectWithFlash(w, r, "/hr/employees", "success", employee.FullName()+" added to the register")
}

func (h *Handler) ShowEditForm(w http.ResponseWriter, r *http.Request) {
	employee, ok := h.fetch(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/employee_form.html", "Edit employee", map[string]any{
		"Employee": employee,
		"Errors":   map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	employee, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	firstName := r.PostFormValue("first_name")
	lastName := r.PostFormValue("last_name")
	role := r.PostFormValue("role")
	active := r.PostFormValue("is_active") == "on"
	input := UpdateInput{
		FirstName: &firstName,
		LastName:  &lastName,
		Role:      &role,
		Email:     optional(r.PostFormValue("email")),
		Phone:     optional(r.PostFormValue("phone")),
		IsActive:  &active,
	}
	if _, err := h.service.Update(r.Context(), employee.ID, input); err != nil {
		h.render(w, r, "pages/employee_form.html", "Edit employee", map[string]any{
			"Employee": employee,
			"Errors":   map[string]string{"general": err.Error()},
		}, http.StatusBadRequest)
		return
	}
	shared.RedirectWithFlash(w, r, "/hr/employees", "success", "Employee updated")
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid employee ID", http.StatusBadRequest)
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Employee not found", http.StatusNotFound)
			return
		}
		shared.RedirectWithFlash(w, r, "/hr/employees", "error", "Employee could not be deactivated")
		return
	}
	shared.RedirectWithFlash(w, r, "/hr/employees", "success", "Employee deactivated")
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) (*Employee, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid employee ID", http.StatusBadRequest)
		return nil, false
	}
	employee, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Employee not found", http.StatusNotFound)
		return nil, false
	}
	return employee, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data map[string]any, status int) {
	if err := h.templates.Page(w, r, h.csrf, tmpl, title, data, status); err != nil {
		h.logger.Error("render hr", slog.String("template", tmpl), slog.Any("error", err))
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
