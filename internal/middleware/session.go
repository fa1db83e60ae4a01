package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/observability"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/session"
)

// Session loads or initializes the visitor session and stores it in the request context.
// The cookie is written just before the first byte of the response when the
// session changed, so handlers must finish mutating it before rendering.
func Session(mgr *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := mgr.Load(r)
			ctx := context.WithValue(r.Context(), ctxKeySession, sess)

			save := func(w http.ResponseWriter) {
				if !sess.NeedsSave() {
					return
				}
				if err := mgr.Save(w, sess); err != nil {
					observability.FromContext(ctx).Error("session save failed", zap.Error(err))
				}
			}
			rw := NewResponseRecorder(w)
			rw.SetBeforeWrite(save)
			next.ServeHTTP(rw, r.WithContext(ctx))
			// If nothing was written yet (e.g., HEAD), persist cookie now
			if !rw.Wrote() {
				save(w)
			}
		})
	}
}
