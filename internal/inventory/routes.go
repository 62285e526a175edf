package inventory

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Get("/products/new", h.ShowForm)
	r.Post("/products", h.Create)
	r.Get("/products/{id}/edit", h.ShowEditForm)
	r.Post("/products/{id}/edit", h.Update)
	r.Post("/products/{id}/delete", h.Delete)
	r.Get("/products/{id}/label.pdf", h.DownloadLabel)
}
