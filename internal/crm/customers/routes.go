package customers

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches customer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/customers", h.List)
	r.Get("/customers/new", h.ShowForm)
	r.Post("/customers", h.Create)
	r.Get("/customers/{id}/edit", h.ShowEditForm)
	r.Post("/customers/{id}/edit", h.Update)
	r.Post("/customers/{id}/delete", h.Delete)
}
