package purchasing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kgomo-bms/kgomo-bms/internal/crm/suppliers"
	"github.com/kgomo-bms/kgomo-bms/internal/inventory"
	"github.com/kgomo-bms/kgomo-bms/internal/shared"
	"github.com/kgomo-bms/kgomo-bms/internal/view"
	"github.com/kgomo-bms/kgomo-bms/report"
)

// Handler serves the purchase order pages.
type Handler struct {
	logger          *slog.Logger
	service         *Service
	supplierService *suppliers.Service
	productService  *inventory.Service
	templates       *view.Engine
	csrf            *shared.CSRFManager
	pdf             *report.Client
}

// NewHandler constructs a Handler.
func NewHandler(
	logger *slog.Logger,
	service *Service,
	supplierService *suppliers.Service,
	productService *inventory.Service,
	templates *view.Engine,
	csrf *shared.CSRFManager,
	pdf *report.Client,
) *Handler {
	return &Handler{
		logger:          logger,
		service:         service,
		supplierService: supplierService,
		productService:  productService,
		templates:       templates,
		csrf:            csrf,
		pdf:             pdf,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListRequest{Limit: 100}
	if s := r.URL.Query().Get("status"); s != "" {
		status := POStatus(s)
		req.Status = &status
	}
	orders, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list purchase orders", slog.Any("error", err))
		http.Error(w, "Failed to load purchase orders", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/purchase_orders_list.html", "Purchase orders", map[string]any{
		"Orders": orders,
		"Total":  total,
		"Status": r.URL.Query().Get("status"),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	order, ok := h.fetch(w, r)
	if !ok {
		return
	}
	products, _, _ := h.productService.List(r.Context(), inventory.ListRequest{Limit: 500})
	h.render(w, r, "pages/purchase_order_detail.html", "Purchase order", map[string]any{
		"Order":    order,
		"Products": products,
	}, http.StatusOK)
}

func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	supplierList, _, _ := h.supplierService.List(r.Context(), suppliers.ListRequest{Limit: 500})
	products, _, _ := h.productService.List(r.Context(), inventory.ListRequest{Limit: 500})
	h.render(w, r, "pages/purchase_order_form.html", "New purchase order", map[string]any{
		"Suppliers": supplierList,
		"Products":  products,
		"Errors":    map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	supplierID, _ := strconv.ParseInt(r.PostFormValue("supplier_id"), 10, 64)
	input := CreateInput{SupplierID: supplierID, Items: h.parseItems(r)}
	if d := r.PostFormValue("order_date"); d != "" {
		if t, err := time.Parse("2006-01-02", d); err == nil {
			input.OrderDate = t
		}
	}

	order, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create purchase order", slog.Any("error", err))
		supplierList, _, _ := h.supplierService.List(r.Context(), suppliers.ListRequest{Limit: 500})
		products, _, _ := h.productService.List(r.Context(), inventory.ListRequest{Limit: 500})
		h.render(w, r, "pages/purchase_order_form.html", "New purchase order", map[string]any{
			"Suppliers": supplierList,
			"Products":  products,
			"Errors":    map[string]string{"general": err.Error()},
		}, http.StatusBadRequest)
		return
	}
	shared.RedirectWithFlash(w, r, "/purchasing/orders/"+strconv.FormatInt(order.ID, 10), "success", "Purchase order created")
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	order, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	productID, _ := strconv.ParseInt(r.PostFormValue("product_id"), 10, 64)
	quantity, _ := strconv.Atoi(r.PostFormValue("quantity"))
	unitCost, _ := strconv.ParseFloat(r.PostFormValue("unit_cost"), 64)

	detailURL := "/purchasing/orders/" + strconv.FormatInt(order.ID, 10)
	if _, err := h.service.AddItem(r.Context(), order.ID, ItemInput{ProductID: productID, Quantity: quantity, UnitCost: unitCost}); err != nil {
		shared.RedirectWithFlash(w, r, detailURL, "error", err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, detailURL, "success", "Item added")
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	order, ok := h.fetch(w, r)
	if !ok {
		return
	}
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}
	detailURL := "/purchasing/orders/" + strconv.FormatInt(order.ID, 10)
	if _, err := h.service.RemoveItem(r.Context(), order.ID, itemID); err != nil {
		shared.RedirectWithFlash(w, r, detailURL, "error", err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, detailURL, "success", "Item removed")
}

// Receive marks the order received. Repeating the action is reported
// as information rather than an error.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}
	detailURL := "/purchasing/orders/" + strconv.FormatInt(id, 10)
	if _, err := h.service.Receive(r.Context(), id); err != nil {
		if errors.Is(err, ErrAlreadyReceived) {
			shared.RedirectWithFlash(w, r, detailURL, "info", "This order was already received; stock was not changed again")
			return
		}
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Purchase order not found", http.StatusNotFound)
			return
		}
		h.logger.Error("receive purchase order", slog.Int64("order_id", id), slog.Any("error", err))
		shared.RedirectWithFlash(w, r, detailURL, "error", "Order could not be received")
		return
	}
	shared.RedirectWithFlash(w, r, detailURL, "success", "Order received and stock updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Purchase order not found", http.StatusNotFound)
			return
		}
		shared.RedirectWithFlash(w, r, "/purchasing/orders/"+strconv.FormatInt(id, 10), "error", err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, "/purchasing/orders", "success", "Purchase order deleted")
}

// DownloadPDF renders the order as a PDF document.
func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	order, ok := h.fetch(w, r)
	if !ok {
		return
	}
	html, err := h.templates.RenderToString("pages/pdf_purchase_order.html", view.TemplateData{
		Title: "Purchase Order",
		Data:  order,
	})
	if err != nil {
		h.logger.Error("render order html", slog.Any("error", err))
		http.Error(w, "Failed to render document", http.StatusInternalServerError)
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render order pdf", slog.Any("error", err))
		http.Error(w, "PDF service unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="purchase-order-`+strconv.FormatInt(order.ID, 10)+`.pdf"`)
	_, _ = w.Write(pdf)
}

func (h *Handler) parseItems(r *http.Request) []ItemInput {
	productIDs := r.PostForm["product_id"]
	quantities := r.PostForm["quantity"]
	unitCosts := r.PostForm["unit_cost"]

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
		cost := 0.0
		if i < len(unitCosts) {
			cost, _ = strconv.ParseFloat(unitCosts[i], 64)
		}
		items = append(items, ItemInput{ProductID: pid, Quantity: qty, UnitCost: cost})
	}
	return items
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) (*PurchaseOrder, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order ID", http.StatusBadRequest)
		return nil, false
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Purchase order not found", http.StatusNotFound)
		return nil, false
	}
	return order, true
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data map[string]any, status int) {
	if err := h.templates.Page(w, r, h.csrf, tmpl, title, data, status); err != nil {
		h.logger.Error("render purchasing", slog.String("template", tmpl), slog.Any("error", err))
	}
}
