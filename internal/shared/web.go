package shared

import (
	"net/http"
	"strconv"
)

// RedirectWithFlash queues a flash message and redirects.
func RedirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if sess := SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// CurrentUserID resolves the signed-in user from the request session.
// Anonymous requests report zero.
func CurrentUserID(r *http.Request) int64 {
	sess := SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		return 0
	}
	id, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
