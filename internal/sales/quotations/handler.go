package quotations

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

// Handler serves the quotation pages.
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
		status := QuotationStatus(s)
		req.Status = &status
	}
	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list quotations", slog.Any("error", err))
		http.Error(w, "Failed to load quotations", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/quotations_list.html", "Quotations", map[string]any{
		"Quotations": list,
		"Total":      total,
		"Statuses":   Statuses,
		"Status":     r.URL.Query().Get("status"),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	quotation, ok := h.fetch(w, r)
	if !ok {
		return
	}
	products, _, _ := h.productService.List(r.Context(), inventory.ListRequest{Limit: 500})
	h.render(w, r, "pages/quotation_detail.html", quotation.Number, map[string]any{
		"Quotation": quotation,
		"Products":  products,
	}, http.StatusOK)
}

func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	customerList, _, _ := h.customerService.List(r.Context(), customers.ListRequest{Limit: 500})
	products, _, _ := h.productService.List(r.Context(), inventory.ListRequest{Limit: 500})
	h.render(w, r, "pages/quotation_form.html", "New quotation", map[string]any{
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
	if d := r.PostFormValue("quote_date"); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			input.QuoteDate = t
		}
	}
	if notes := r.PostFormValue("notes"); notes != "" {
		input.Notes = &notes
	}

	quotation, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create quotation", slog.Any("error", err))
		customerList, _, _ := h.customerService.List(r.Context(), customers.ListRequest{Limit: 500})
		products, _, _ := h.productService.List(r.Context(), inventory.ListRequest{Limit: 500})
		h.render(w, r, "pages/quotation_form.html", "New quotation", map[string]any{
			"Customers": customerList,
			"Products":  products,
			"Errors":    map[string]string{"general": err.Error()},
		}, http.StatusBadRequest)
		return
	}
	shared.RedirectWithFlash(w, r, "/sales/quotations/"+strconv.FormatInt(quotation.ID, 10), "success", "Quotation "+quotation.Number+" created")
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	quotation, ok := h.fetch(w, r)
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

	detailURL := "/sales/quotations/" + strconv.FormatInt(quotation.ID, 10)
	if _, err := h.service.AddItem(r.Context(), quotation.ID, ItemInput{ProductID: productID, Quantity: quantity, UnitPrice: unitPrice}); err != nil {
		shared.RedirectWithFlash(w, r, detailURL, "error", err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, detailURL, "success", "Item added")
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	quotation, ok := h.fetch(w, r)
	if !ok {
		return
	}
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}
	detailURL := "/sales/quotations/" + strconv.FormatInt(quotation.ID, 10)
	if _, err := h.service.RemoveItem(r.Context(), quotation.ID, itemID); err != nil {
		shared.RedirectWithFlash(w, r, detailURL, "error", err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, detailURL, "success", "Item removed")
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	quotation, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	status := QuotationStatus(r.PostFormValue("status"))
	detailURL := "/sales/quotations/" + strconv.FormatInt(quotation.ID, 10)
	if _, err := h.service.SetStatus(r.Context(), quotation.ID, status); err != nil {
		shared.RedirectWithFlash(w, r, detailURL, "error", err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, detailURL, "success", "Quotation marked "+string(status))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	quotation, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), quotation.ID); err != nil {
		shared.RedirectWithFlash(w, r, "/sales/quotations/"+strconv.FormatInt(quotation.ID, 10), "error", err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, "/sales/quotations", "success", "Quotation "+quotation.Number+" deleted")
}

// DownloadPDF renders the quotation as a PDF document.
func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	quotation, ok := h.fetch(w, r)
	if !ok {
		return
	}
	html, err := h.templates.RenderToString("pages/pdf_quotation.html", view.TemplateData{
		Title: quotation.Number,
		Data:  quotation,
	})
	if err != nil {
		h.logger.Error("render quotation html", slog.Any("error", err))
		http.Error(w, "Failed to render document", http.StatusInternalServerError)
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render quotation pdf", slog.Any("error", err))
		http.Error(w, "PDF service unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+quotation.Number+`.pdf"`)
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

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) (*Quotation, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid quotation ID", http.StatusBadRequest)
		return nil, false
	}
	quotation, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Quotation not found", http.StatusNotFound)
		return nil, false
	}
	return quotation, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data map[string]any, status int) {
	if err := h.templates.Page(w, r, h.csrf, tmpl, title, data, status); err != nil {
		h.logger.Error("render quotations", slog.String("template", tmpl), slog.Any("error", err))
	}
}
