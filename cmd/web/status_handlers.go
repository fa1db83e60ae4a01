package main

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/observability"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/status"
)

// handleStatus renders backend health. The checker caches the answer, so a
// burst of visitors costs one backend call.
func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	summary := s.status.Summary(r.Context())
	if summary.State != status.StateOperational {
		observability.FromContext(r.Context()).Warn("backend not operational",
			zap.String("state", summary.State),
			zap.String("error", summary.Error),
		)
	}
	vm := s.basePage(r, "status.title", "status.desc")
	vm.Status = summary
	w.Header().Set("Cache-Control", "no-store")
	s.renderPage(w, r, http.StatusOK, "status", vm)
}
