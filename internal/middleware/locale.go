package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/i18n"
)

// LangCookieName persists the language toggle across sessions.
const LangCookieName = "jc_lang"

// VaryLocale sets Vary header for Accept-Language on dynamic responses
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Language")
		next.ServeHTTP(w, r)
	})
}

// Locale resolves the visitor language: `?lang=` first, then the session, the
// jc_lang cookie and finally Accept-Language.
func Locale(bundle *i18n.Bundle, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxKeyLocaleFB, bundle.Fallback())
			r = r.WithContext(ctx)
			s := GetSession(r)

			if q := bundle.Normalize(r.URL.Query().Get("lang")); q != "" {
				SetLang(w, r, q, secure)
			} else if bundle.Normalize(s.Locale) == "" {
				lang := ""
				if c, err := r.Cookie(LangCookieName); err == nil {
					lang = bundle.Normalize(c.Value)
				}
				if lang == "" {
					lang = bundle.Resolve(r.Header.Get("Accept-Language"))
				}
				s.Locale = lang
				s.MarkDirty()
			}
			w.Header().Set("Content-Language", s.Locale)
			next.ServeHTTP(w, r)
		})
	}
}

// SetLang stores lang in the session and the jc_lang cookie.
func SetLang(w http.ResponseWriter, r *http.Request, lang string, secure bool) {
	s := GetSession(r)
	if s.Locale != lang {
		s.Locale = lang
		s.MarkDirty()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    lang,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Lang returns the current language from the session or the configured fallback.
func Lang(r *http.Request) string {
	if s := SessionFromContext(r.Context()); s != nil && s.Locale != "" {
		return s.Locale
	}
	if fb, ok := r.Context().Value(ctxKeyLocaleFB).(string); ok && fb != "" {
		return fb
	}
	return "en"
}
