package invoices

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kgomo-bms/kgomo-bms/internal/crm/customers"
	"github.com/kgomo-bms/kgomo-bms/internal/inventory"
	"github.com/kgomo-bms/kgomo-bms/internal/shared"
	"github.com/kgomo-bms/kgomo-bms/internal/view"
	"github.com/kgomo-bms/kgomo-bms/report"
)

// Handler serves the invoice and receipt pages.
type Handler struct {
	logger          *slog.Logger
	service         *Service
	customerService *customers.Service
	productService  *inventory.Service
	templates       *view.Engine
	csrf            *shared.CSRFManager
	pdf             *report.Client
}

// NewHandler constructs a Handler.
func NewHandler(
	logger *slog.Logger,
	service *Service,
	customerService *customers.Service,
	productService *inventory.Service,
	templates *view.Engine,
	csrf *shared.CSRFManager,
	pdf *report.Client,
) *Handler {
	return &Handler{
		logger:          logger,
		service:         service,
		customerService: customerService,
		productService:  productService,
		templates:       templates,
		csrf:            csrf,
		pdf:             pdf,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListRequest{Limit: 100}
	if s := r.URL.Query().Get("status"); s != "" {
		status := InvoiceStatus(s)
		req.Status = &status
	}
	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		http.Error(w, "Failed to load invoices", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/invoices_list.html", "Invoices", map[string]any{
		"Invoices": list,
		"Total":    total,
		"Statuses": []InvoiceStatus{StatusUnpaid, StatusPartiallyPaid, StatusPaid, StatusCancelled},
		"Status":   r.URL.Query().Get("status"),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	invoice, ok := h.fetch(w, r)
	if !ok {
		return
	}
	products, _, _ := h.productService.List(r.Context(), inventory.ListRequest{Limit: 500})
	h.render(w, r, "pages/invoice_detail.html", invoice.Number, map[string]any{
		"Invoice":        invoice,
		"Products":       products,
		"PaymentMethods": PaymentMethods,
	}, http.StatusOK)
}

func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	customerList, _, _ := h.customerService.List(r.Context(), customers.ListRequest{Limit: 500})
	products, _, _ := h.productService.List(r.Context(), inventory.ListRequest{Limit: 500})
	h.render(w, r, "pages/invoice_form.html", "New invoice", map[string]any{
		"Customers": customerList,
		"Products":  products,
		"Errors":    map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	customerID, _ := strconv.ParseInt(r.PostFormValue("customer_id"), 10, 64)
	input := CreateInput{CustomerID: customerID, Items: h.parseItems(r)}
	if d := r.PostFormValue("invoice_date"); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			input.InvoiceDate = t
		}
	}
	if d := r.PostFormValue("due_date"); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			input.DueDate = &t
		}
	}
	if notes := r.PostFormValue("notes"); notes != "" {
		input.Notes = &notes
	}

	invoice, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create invoice", slog.Any("error", err))
		customerList, _, _ := h.customerService.List(r.Context(), customers.ListRequest{Limit: 500})
		products, _, _ := h.productService.List(r.Context(), inventory.ListRequest{Limit: 500})
		h.render(w, r, "pages/invoice_form.html", "New invoice", map[string]any{
			"Customers": customerList,
			"Products":  products,
			"Errors":    map[string]string{"general": err.Error()},
		}, http.StatusBadRequest)
		return
	}
	shared.RedirectWithFlash(w, r, "/sales/invoices/"+strconv.FormatInt(invoice.ID, 10), "success", "Invoice "+invoice.Number+" created")
}

// ConvertQuotation creates an invoice carrying the quotation's lines.
func (h *Handler) ConvertQuotation(w http.ResponseWriter, r *http.Request) {
	quotationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid quotation ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	var dueDate *time.Time
	if d := r.PostFormValue("due_date"); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			dueDate = &t
		}
	}

	quotationURL := "/sales/quotations/" + strconv.FormatInt(quotationID, 10)
	invoice, err := h.service.CreateFromQuotation(r.Context(), quotationID, dueDate)
	if err != nil {
		shared.RedirectWithFlash(w, r, quotationURL, "error", err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, "/sales/invoices/"+strconv.FormatInt(invoice.ID, 10), "success", "Invoice "+invoice.Number+" created from quotation")
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	invoice, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	productID, _ := strconv.ParseInt(r.PostFormValue("product_id"), 10, 64)
	quantity, _ := strconv.Atoi(r.PostFormValue("quantity"))
	unitPrice, _ := strconv.ParseFloat(r.PostFormValue("unit_price"), 64)

	detailURL := "/sales/invoices/" + strconv.FormatInt(invoice.ID, 10)
	if _, err := h.service.AddItem(r.Context(), invoice.ID, ItemInput{ProductID: productID, Quantity: quantity, UnitPrice: unitPrice}); err != nil {
		shared.RedirectWithFlash(w, r, detailURL, "error", err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, detailURL, "success", "Item added")
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	invoice, ok := h.fetch(w, r)
	if !ok {
		return
	}
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}
	detailURL := "/sales/invoices/" + strconv.FormatInt(invoice.ID, 10)
	if _, err := h.service.RemoveItem(r.Context(), invoice.ID, itemID); err != nil {
		shared.RedirectWithFlash(w, r, detailURL, "error", err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, detailURL, "success", "Item removed")
}

func (h *Handler) AddReceipt(w http.ResponseWriter, r *http.Request) {
	invoice, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	amount, _ := strconv.ParseFloat(r.PostFormValue("amount"), 64)
	input := ReceiptInput{Amount: amount, Method: PaymentMethod(r.PostFormValue("payment_method"))}
	if d := r.PostFormValue("received_at"); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			input.ReceivedAt = t
		}
	}
	if notes := r.PostFormValue("notes"); notes != "" {
		input.Notes = &notes
	}

	detailURL := "/sales/invoices/" + strconv.FormatInt(invoice.ID, 10)
	updated, err := h.service.AddReceipt(r.Context(), invoice.ID, input)
	if err != nil {
		shared.RedirectWithFlash(w, r, detailURL, "error", err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, detailURL, "success", "Payment recorded, invoice is now "+string(updated.Status))
}

func (h *Handler) DeleteReceipt(w http.ResponseWriter, r *http.Request) {
	invoice, ok := h.fetch(w, r)
	if !ok {
		return
	}
	receiptID, err := strconv.ParseInt(chi.URLParam(r, "receiptID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid receipt ID", http.StatusBadRequest)
		return
	}
	detailURL := "/sales/invoices/" + strconv.FormatInt(invoice.ID, 10)
	if _, err := h.service.DeleteReceipt(r.Context(), invoice.ID, receiptID); err != nil {
		shared.RedirectWithFlash(w, r, detailURL, "error", err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, detailURL, "success", "Receipt removed")
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	invoice, ok := h.fetch(w, r)
	if !ok {
		return
	}
	detailURL := "/sales/invoices/" + strconv.FormatInt(invoice.ID, 10)
	if _, err := h.service.Cancel(r.Context(), invoice.ID); err != nil {
		shared.RedirectWithFlash(w, r, detailURL, "error", err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, detailURL, "success", "Invoice "+invoice.Number+" cancelled")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	invoice, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), invoice.ID); err != nil {
		shared.RedirectWithFlash(w, r, "/sales/invoices/"+strconv.FormatInt(invoice.ID, 10), "error", err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, "/sales/invoices", "success", "Invoice "+invoice.Number+" deleted")
}

// DownloadPDF renders the invoice as a PDF document.
func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	invoice, ok := h.fetch(w, r)
	if !ok {
		return
	}
	h.servePDF(w, r, "pages/pdf_invoice.html", invoice.Number, invoice)
}

// DownloadReceiptPDF renders a single receipt as a PDF document.
func (h *Handler) DownloadReceiptPDF(w http.ResponseWriter, r *http.Request) {
	invoice, ok := h.fetch(w, r)
	if !ok {
		return
	}
	receiptID, err := strconv.ParseInt(chi.URLParam(r, "receiptID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid receipt ID", http.StatusBadRequest)
		return
	}
	var receipt *Receipt
	for i := range invoice.Receipts {
		if invoice.Receipts[i].ID == receiptID {
			receipt = &invoice.Receipts[i]
			break
		}
	}
	if receipt == nil {
		http.Error(w, "Receipt not found", http.StatusNotFound)
		return
	}
	h.servePDF(w, r, "pages/pdf_receipt.html", receipt.Number, map[string]any{
		"Invoice": invoice,
		"Receipt": receipt,
	})
}

func (h *Handler) servePDF(w http.ResponseWriter, r *http.Request, tmpl, name string, data any) {
	html, err := h.templates.RenderToString(tmpl, view.TemplateData{Title: name, Data: data})
	if err != nil {
		h.logger.Error("render document html", slog.String("template", tmpl), slog.Any("error", err))
		http.Error(w, "Failed to render document", http.StatusInternalServerError)
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render document pdf", slog.String("template", tmpl), slog.Any("error", err))
		http.Error(w, "PDF service unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.pdf"`)
	_, _ = w.Write(pdf)
}

func (h *Handler) parseItems(r *http.Request) []ItemInput {
	productIDs := r.PostForm["product_id"]
	quantities := r.PostForm["quantity"]
	unitPrices := r.PostForm["unit_price"]

	items := make([]ItemInput, 0, len(productIDs))
	for i := range productIDs {
		if productIDs[i] == "" {
			continue
		}
		pid, _ := strconv.ParseInt(productIDs[i], 10, 64)
		qty := 0
		if i < len(quantities) {
			qty, _ = strconv.Atoi(quantities[i])
		}
		price := 0.0
		if i < len(unitPrices) {
			price, _ = strconv.ParseFloat(unitPrices[i], 64)
		}
		items = append(items, ItemInput{ProductID: pid, Quantity: qty, UnitPrice: price})
	}
	return items
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) (*Invoice, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return nil, false
	}
	invoice, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Invoice not found", http.StatusNotFound)
		return nil, false
	}
	return invoice, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data map[string]any, status int) {
	if err := h.templates.Page(w, r, h.csrf, tmpl, title, data, status); err != nil {
		h.logger.Error("render invoices", slog.String("template", tmpl), slog.Any("error", err))
	}
}
