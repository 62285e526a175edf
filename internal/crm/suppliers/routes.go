package suppliers

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches supplier routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/suppliers", h.List)
	r.Get("/suppliers/new", h.ShowForm)
	r.Post("/suppliers", h.Create)
	r.Get("/suppliers/{id}/edit", h.ShowEditForm)
	r.Post("/suppliers/{id}/edit", h.Update)
	r.Post("/suppliers/{id}/delete", h.Delete)
}
