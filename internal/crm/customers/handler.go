package customers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kgomo-bms/kgomo-bms/internal/shared"
	"github.com/kgomo-bms/kgomo-bms/internal/view"
)

// Handler serves the customer pages.
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
	var search *string
	if q := r.URL.Query().Get("q"); q != "" {
		search = &q
	}
	list, total, err := h.service.List(r.Context(), ListRequest{Search: search, Limit: 100})
	if err != nil {
		h.logger.Error("list customers", slog.Any("error", err))
		http.Error(w, "Failed to load customers", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/customers_list.html", "Customers", map[string]any{
		"Customers": list,
		"Total":     total,
		"Search":    r.URL.Query().Get("q"),
	}, http.StatusOK)
}

func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/customer_form.html", "New customer", map[string]any{
		"Customer": nil,
		"Errors":   map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input := CreateInput{
		Name:    r.PostFormValue("name"),
		Phone:   optional(r.PostFormValue("phone")),
		Email:   optional(r.PostFormValue("email")),
		Address: optional(r.PostFormValue("address")),
	}
	customer, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.render(w, r, "pages/customer_form.html", "New customer", map[string]any{
			"Customer": nil,
			"Errors":   map[string]string{"general": err.Error()},
		}, http.StatusBadRequest)
		return
	}
	shared.RedirectWithFlash(w, r, "/customers", "success", "Customer "+customer.Name+" created")
}

func (h *Handler) ShowEditForm(w http.ResponseWriter, r *http.Request) {
	customer, ok := h.fetch(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/customer_form.html", "Edit customer", map[string]any{
		"Customer": customer,
		"Errors":   map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	customer, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	name := r.PostFormValue("name")
	input := UpdateInput{
		Name:    &name,
		Phone:   optional(r.PostFormValue("phone")),
		Email:   optional(r.PostFormValue("email")),
		Address: optional(r.PostFormValue("address")),
	}
	if _, err := h.service.Update(r.Context(), customer.ID, input); err != nil {
		h.render(w, r, "pages/customer_form.html", "Edit customer", map[string]any{
			"Customer": customer,
			"Errors":   map[string]string{"general": err.Error()},
		}, http.StatusBadRequest)
		return
	}
	shared.RedirectWithFlash(w, r, "/customers", "success", "Customer updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Customer not found", http.StatusNotFound)
			return
		}
		shared.RedirectWithFlash(w, r, "/customers", "error", "Customer could not be deleted")
		return
	}
	shared.RedirectWithFlash(w, r, "/customers", "success", "Customer deleted")
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) (*Customer, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return nil, false
	}
	customer, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Customer not found", http.StatusNotFound)
		return nil, false
	}
	return customer, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data map[string]any, status int) {
	if err := h.templates.Page(w, r, h.csrf, tmpl, title, data, status); err != nil {
		h.logger.Error("render customers", slog.String("template", tmpl), slog.Any("error", err))
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
