package hr

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches employee routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/employees", h.List)
	r.Get("/employees/new", h.ShowForm)
	r.Post("/employees", h.Create)
	r.Get("/employees/{id}/edit", h.ShowEditForm)
	r.Post("/employees/{id}/edit", h.Update)
	r.Post("/employees/{id}/deactivate", h.Deactivate)
}
