// Package middleware holds the request-scoped plumbing shared by every page.
package middleware

import (
	"context"
	"net/http"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/session"
)

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyIsHTMX   ctxKey = "is_htmx"
	ctxKeySession  ctxKey = "session"
	ctxKeyLocaleFB ctxKey = "locale_fallback"
)

// HTMX marks requests issued by htmx. Boosted navigations are full page loads
// and are not treated as fragment requests.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-Boosted") != "true"
		ctx := context.WithValue(r.Context(), ctxKeyIsHTMX, is)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IsHTMX returns whether this is an htmx fragment request.
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyIsHTMX).(bool)
	return v
}

// SessionFromContext returns the session loaded by Session, or nil.
func SessionFromContext(ctx context.Context) *session.Session {
	s, _ := ctx.Value(ctxKeySession).(*session.Session)
	return s
}

// GetSession returns the request session. Outside the Session middleware an
// empty, unsaved session is returned so callers never nil-check.
func GetSession(r *http.Request) *session.Session {
	if s := SessionFromContext(r.Context()); s != nil {
		return s
	}
	return &session.Session{}
}

// CurrentUser returns the signed-in subscriber marker, if any.
func CurrentUser(ctx context.Context) *session.User {
	if s := SessionFromContext(ctx); s != nil {
		return s.User
	}
	return nil
}

// UserEmail is used by the request logger to attribute requests.
func UserEmail(ctx context.Context) string {
	if u := CurrentUser(ctx); u != nil {
		return u.Email
	}
	return ""
}
