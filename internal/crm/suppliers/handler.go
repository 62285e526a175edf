package suppliers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kgomo-bms/kgomo-bms/internal/shared"
	"github.com/kgomo-bms/kgomo-bms/internal/view"
)

// Handler serves the supplier pages.
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
		h.logger.Error("list suppliers", slog.Any("error", err))
		http.Error(w, "Failed to load suppliers", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/suppliers_list.html", "Suppliers", map[string]any{
		"Suppliers": list,
		"Total":     total,
		"Search":    r.URL.Query().Get("q"),
	}, http.StatusOK)
}

func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/supplier_form.html", "New supplier", map[string]any{
		"Supplier": nil,
		"Errors":   map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input := CreateInput{
		Name:          r.PostFormValue("name"),
		ContactPerson: optional(r.PostFormValue("contact_person")),
		Phone:         optional(r.PostFormValue("phone")),
		Email:         optional(r.PostFormValue("email")),
		Address:       optional(r.PostFormValue("address")),
	}
	supplier, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.render(w, r, "pages/supplier_form.html", "New supplier", map[string]any{
			"Supplier": nil,
			"Errors":   map[string]string{"general": err.Error()},
		}, http.StatusBadRequest)
		return
	}
	shared.RedirectWithFlash(w, r, "/suppliers", "success", "Supplier "+supplier.Name+" created")
}

func (h *Handler) ShowEditForm(w http.ResponseWriter, r *http.Request) {
	supplier, ok := h.fetch(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/supplier_form.html", "Edit supplier", map[string]any{
		"Supplier": supplier,
		"Errors":   map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	supplier, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	name := r.PostFormValue("name")
	input := UpdateInput{
		Name:          &name,
		ContactPerson: optional(r.PostFormValue("contact_person")),
		Phone:         optional(r.PostFormValue("phone")),
		Email:         optional(r.PostFormValue("email")),
		Address:       optional(r.PostFormValue("address")),
	}
	if _, err := h.service.Update(r.Context(), supplier.ID, input); err != nil {
		h.render(w, r, "pages/supplier_form.html", "Edit supplier", map[string]any{
			"Supplier": supplier,
			"Errors":   map[string]string{"general": err.Error()},
		}, http.StatusBadRequest)
		return
	}
	shared.RedirectWithFlash(w, r, "/suppliers", "success", "Supplier updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid supplier ID", http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Supplier not found", http.StatusNotFound)
			return
		}
		shared.RedirectWithFlash(w, r, "/suppliers", "error", "Supplier could not be deleted")
		return
	}
	shared.RedirectWithFlash(w, r, "/suppliers", "success", "Supplier deleted")
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) (*Supplier, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid supplier ID", http.StatusBadRequest)
		return nil, false
	}
	supplier, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Supplier not found", http.StatusNotFound)
		return nil, false
	}
	return supplier, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data map[string]any, status int) {
	if err := h.templates.Page(w, r, h.csrf, tmpl, title, data, status); err != nil {
		h.logger.Error("render suppliers", slog.String("template", tmpl), slog.Any("error", err))
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
