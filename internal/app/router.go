package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kgomo-bms/kgomo-bms/internal/auth"
	"github.com/kgomo-bms/kgomo-bms/internal/crm/customers"
	"github.com/kgomo-bms/kgomo-bms/internal/crm/suppliers"
	"github.com/kgomo-bms/kgomo-bms/internal/hr"
	"github.com/kgomo-bms/kgomo-bms/internal/inventory"
	"github.com/kgomo-bms/kgomo-bms/internal/purchasing"
	"github.com/kgomo-bms/kgomo-bms/internal/reporting"
	"github.com/kgomo-bms/kgomo-bms/internal/sales/invoices"
	"github.com/kgomo-bms/kgomo-bms/internal/sales/quotations"
	"github.com/kgomo-bms/kgomo-bms/internal/shared"
	"github.com/kgomo-bms/kgomo-bms/jobs"
	"github.com/kgomo-bms/kgomo-bms/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Audit          *shared.AuditLogger

	AuthHandler       *auth.Handler
	CustomerHandler   *customers.Handler
	SupplierHandler   *suppliers.Handler
	InventoryHandler  *inventory.Handler
	HRHandler         *hr.Handler
	PurchasingHandler *purchasing.Handler
	QuotationHandler  *quotations.Handler
	InvoiceHandler    *invoices.Handler
	ReportingHandler  *reporting.Handler
	JobHandler        *jobs.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// The dashboard is the landing page for signed-in users.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/jobs", params.JobHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)
		r.Use(auditTrail(params.Logger, params.Audit))

		params.ReportingHandler.MountRoutes(r)
		params.CustomerHandler.MountRoutes(r)
		params.SupplierHandler.MountRoutes(r)
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
		r.Route("/hr", params.HRHandler.MountRoutes)
		r.Route("/purchasing", params.PurchasingHandler.MountRoutes)
		r.Route("/sales", func(r chi.Router) {
			params.QuotationHandler.MountRoutes(r)
			params.InvoiceHandler.MountRoutes(r)
		})
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Static files are served without session or CSRF handling.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// auditTrail records every mutating request by a signed-in user into
// audit_logs. Failures never block the response.
func auditTrail(logger *slog.Logger, audit *shared.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if audit == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
				return
			}
			entity := strings.TrimPrefix(r.URL.Path, "/")
			if i := strings.IndexByte(entity, '/'); i > 0 {
				entity = entity[:i]
			}
			err := audit.Record(context.WithoutCancel(r.Context()), shared.AuditLog{
				ActorID:  shared.CurrentUserID(r),
				Action:   shared.AuditActionFor(r),
				Entity:   entity,
				EntityID: r.URL.Path,
			})
			if err != nil {
				logger.Warn("audit trail", slog.Any("error", err))
			}
		})
	}
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
