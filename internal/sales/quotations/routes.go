package quotations

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches quotation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/quotations", h.List)
	r.Get("/quotations/new", h.ShowForm)
	r.Post("/quotations", h.Create)
	r.Get("/quotations/{id}", h.Show)
	r.Post("/quotations/{id}/items", h.AddItem)
	r.Post("/quotations/{id}/items/{itemID}/delete", h.RemoveItem)
	r.Post("/quotations/{id}/status", h.SetStatus)
	r.Post("/quotations/{id}/delete", h.Delete)
	r.Get("/quotations/{id}/pdf", h.DownloadPDF)
}
