package reporting

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kgomo-bms/kgomo-bms/internal/platform/httpx"
	"github.com/kgomo-bms/kgomo-bms/internal/shared"
	"github.com/kgomo-bms/kgomo-bms/internal/view"
)

// Handler serves the dashboard page.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes attaches the dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.Show)
	r.Get("/dashboard/chart-data", h.ChartData)
	r.Post("/dashboard/refresh", h.Refresh)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("build dashboard", slog.Any("error", err))
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}
	if err := h.templates.Page(w, r, h.csrf, "pages/dashboard.html", "Dashboard", dashboard, http.StatusOK); err != nil {
		h.logger.Error("render dashboard", slog.Any("error", err))
	}
}

// ChartData serves the monthly series as JSON for the dashboard charts.
func (h *Handler) ChartData(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("build dashboard", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Dashboard unavailable", "")
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard.Chart())
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.Refresh(r.Context()); err != nil {
		shared.RedirectWithFlash(w, r, "/dashboard", "error", "Failed to refresh dashboard")
		return
	}
	shared.RedirectWithFlash(w, r, "/dashboard", "success", "Dashboard refreshed")
}
