package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/observability"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/session"
)

const (
	csrfCookieName = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	// CSRFFormField is the hidden input name rendered into every form.
	CSRFFormField = "csrf_token"
)

// CSRF ties a token to the session and verifies unsafe requests carry it,
// either in the X-CSRF-Token header (htmx) or in the csrf_token form field.
// The readable cookie lets scripts pick the token up for the header.
func CSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := GetSession(r)
			if s.CSRFToken == "" {
				s.CSRFToken = session.NewID()
				s.MarkDirty()
			}
			token := s.CSRFToken

			if c, err := r.Cookie(csrfCookieName); err != nil || c.Value != token {
				http.SetCookie(w, &http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: false,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			if !isSafeMethod(r.Method) {
				sent := strings.TrimSpace(r.Header.Get(csrfHeaderName))
				if sent == "" {
					sent = strings.TrimSpace(r.PostFormValue(CSRFFormField))
				}
				if sent == "" || subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
					observability.WriteError(w, r, http.StatusForbidden, "invalid CSRF token")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRFToken returns the token to embed in forms.
func CSRFToken(r *http.Request) string {
	return GetSession(r).CSRFToken
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
