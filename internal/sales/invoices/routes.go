package invoices

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches invoice and receipt routes. The convert route
// hangs off the quotation URL but is handled here, since conversion
// creates an invoice.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.List)
	r.Get("/invoices/new", h.ShowForm)
	r.Post("/invoices", h.Create)
	r.Get("/invoices/{id}", h.Show)
	r.Post("/invoices/{id}/items", h.AddItem)
	r.Post("/invoices/{id}/items/{itemID}/delete", h.RemoveItem)
	r.Post("/invoices/{id}/receipts", h.AddReceipt)
	r.Post("/invoices/{id}/receipts/{receiptID}/delete", h.DeleteReceipt)
	r.Get("/invoices/{id}/receipts/{receiptID}/pdf", h.DownloadReceiptPDF)
	r.Post("/invoices/{id}/cancel", h.Cancel)
	r.Post("/invoices/{id}/delete", h.Delete)
	r.Get("/invoices/{id}/pdf", h.DownloadPDF)

	r.Post("/quotations/{id}/convert", h.ConvertQuotation)
}
