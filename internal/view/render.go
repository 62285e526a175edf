package view

import (
	"net/http"

	"github.com/kgomo-bms/kgomo-bms/internal/shared"
)

// Page renders a page template with the session-derived chrome (CSRF
// token, flash message, current path) filled in.
func (e *Engine) Page(w http.ResponseWriter, r *http.Request, csrf *shared.CSRFManager, name, title string, data any, status int) error {
	sess := shared.SessionFromContext(r.Context())
	csrfToken := ""
	if csrf != nil {
		csrfToken, _ = csrf.EnsureToken(r.Context(), sess)
	}
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	return e.Render(w, name, TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	})
}
