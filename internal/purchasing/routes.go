package purchasing

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches purchase order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Get("/orders/new", h.ShowForm)
	r.Post("/orders", h.Create)
	r.Get("/orders/{id}", h.Show)
	r.Post("/orders/{id}/items", h.AddItem)
	r.Post("/orders/{id}/items/{itemID}/delete", h.RemoveItem)
	r.Post("/orders/{id}/receive", h.Receive)
	r.Post("/orders/{id}/delete", h.Delete)
	r.Get("/orders/{id}/pdf", h.DownloadPDF)
}
