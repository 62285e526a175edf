package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kgomo-bms/kgomo-bms/internal/shared"
	"github.com/kgomo-bms/kgomo-bms/internal/view"
	"github.com/kgomo-bms/kgomo-bms/report"
)

// Handler serves the product pages and label downloads.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	pdf       *report.Client
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, pdf *report.Client) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, pdf: pdf}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListRequest{Limit: 200}
	if q := r.URL.Query().Get("q"); q != "" {
		req.Search = &q
	}
	if a := r.URL.Query().Get("animal"); a != "" {
		animal := AnimalType(a)
		req.Animal = &animal
	}
	products, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/products_list.html", "Products", map[string]any{
		"Products": products,
		"Total":    total,
		"Animals":  AnimalTypes,
		"Search":   r.URL.Query().Get("q"),
		"Animal":   r.URL.Query().Get("animal"),
	}, http.StatusOK)
}

func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/product_form.html", "New product", map[string]any{
		"Product": nil,
		"Animals": AnimalTypes,
		"Cuts":    MeatCuts,
		"Errors":  map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input, err := h.parseProductForm(r)
	if err != nil {
		h.renderFormError(w, r, nil, err.Error())
		return
	}
	product, err := h.service.Create(r.Context(), CreateInput{
		Animal:       input.animal,
		Cut:          input.cut,
		WeightKG:     input.weight,
		CostPrice:    input.cost,
		SellingPrice: input.selling,
		Stock:        input.stock,
	})
	if err != nil {
		h.renderFormError(w, r, nil, err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, "/inventory/products", "success", product.DisplayName()+" added to stock")
}

func (h *Handler) ShowEditForm(w http.ResponseWriter, r *http.Request) {
	product, ok := h.fetch(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/product_form.html", "Edit product", map[string]any{
		"Product": product,
		"Animals": AnimalTypes,
		"Cuts":    MeatCuts,
		"Errors":  map[string]string{},
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	product, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	input, err := h.parseProductForm(r)
	if err != nil {
		h.renderFormError(w, r, product, err.Error())
		return
	}
	_, err = h.service.Update(r.Context(), product.ID, UpdateInput{
		Animal:       &input.animal,
		Cut:          &input.cut,
		WeightKG:     &input.weight,
		CostPrice:    &input.cost,
		SellingPrice: &input.selling,
		Stock:        input.stock,
	})
	if err != nil {
		h.renderFormError(w, r, product, err.Error())
		return
	}
	shared.RedirectWithFlash(w, r, "/inventory/products", "success", "Product updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrInUse) {
			shared.RedirectWithFlash(w, r, "/inventory/products", "error", "Product is on purchase orders and cannot be deleted")
			return
		}
		shared.RedirectWithFlash(w, r, "/inventory/products", "error", "Product could not be deleted")
		return
	}
	shared.RedirectWithFlash(w, r, "/inventory/products", "success", "Product deleted")
}

// DownloadLabel renders the product label as a PDF.
func (h *Handler) DownloadLabel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}
	label, err := h.service.Label(r.Context(), id)
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	html, err := h.templates.RenderToString("pages/pdf_product_label.html", view.TemplateData{
		Title: label.Name,
		Data:  label,
	})
	if err != nil {
		h.logger.Error("render label html", slog.Any("error", err))
		http.Error(w, "Failed to render label", http.StatusInternalServerError)
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render label pdf", slog.Any("error", err))
		http.Error(w, "PDF service unavailable", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="label-`+label.Code+`.pdf"`)
	_, _ = w.Write(pdf)
}

type productForm struct {
	animal  AnimalType
	cut     MeatCut
	weight  float64
	cost    float64
	selling float64
	stock   *int
}

func (h *Handler) parseProductForm(r *http.Request) (*productForm, error) {
	weight, err := strconv.ParseFloat(r.PostFormValue("weight_kg"), 64)
	if err != nil {
		return nil, errors.New("weight must be a number")
	}
	cost, err := strconv.ParseFloat(r.PostFormValue("cost_price"), 64)
	if err != nil {
		return nil, errors.New("cost price must be a number")
	}
	selling, err := strconv.ParseFloat(r.PostFormValue("selling_price"), 64)
	if err != nil {
		return nil, errors.New("selling price must be a number")
	}
	form := &productForm{
		animal:  AnimalType(r.PostFormValue("animal_type")),
		cut:     MeatCut(r.PostFormValue("meat_cut")),
		weight:  weight,
		cost:    cost,
		selling: selling,
	}
	if s := r.PostFormValue("stock"); s != "" {
		stock, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.New("stock must be a whole number")
		}
		form.stock = &stock
	}
	return form, nil
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) (*Product, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return nil, false
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return nil, false
	}
	return product, true
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, product *Product, msg string) {
	h.render(w, r, "pages/product_form.html", "Product", map[string]any{
		"Product": product,
		"Animals": AnimalTypes,
		"Cuts":    MeatCuts,
		"Errors":  map[string]string{"general": msg},
	}, http.StatusBadRequest)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data map[string]any, status int) {
	if err := h.templates.Page(w, r, h.csrf, tmpl, title, data, status); err != nil {
		h.logger.Error("render inventory", slog.String("template", tmpl), slog.Any("error", err))
	}
}
