package middleware

import (
	"net/http"
	"net/url"
)

// RequireUser sends visitors without the subscriber marker to the login page.
// htmx requests get an HX-Redirect instead of a 303 so the whole page moves.
func RequireUser(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CurrentUser(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}
			target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
			if IsHTMX(r.Context()) {
				w.Header().Set("HX-Redirect", target)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}
