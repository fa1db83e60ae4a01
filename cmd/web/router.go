package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	mw "github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/middleware"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/observability"
)

const requestTimeout = 30 * time.Second

// newRouter mounts every page, fragment and operational endpoint.
func newRouter(s *server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP. Ensure only trusted proxies
	// can set these headers in production environments.
	r.Use(middleware.RealIP)
	r.Use(observability.InjectLogger(s.logger))
	r.Use(observability.TraceRequests)

	// Operational endpoints skip sessions so probes never mint cookies.
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", s.metrics.Handler())
	r.Handle("/assets/*", s.assets)

	r.Group(func(r chi.Router) {
		r.Use(mw.HTMX)
		r.Use(mw.Session(s.sessions))
		r.Use(mw.Locale(s.bundle, s.cfg.Session.Secure))
		r.Use(mw.CSRF(s.cfg.Session.Secure))
		r.Use(mw.VaryLocale)
		r.Use(observability.RequestLogger(mw.UserEmail))
		r.Use(observability.Recovery)
		r.Use(middleware.Compress(5))
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/", s.handleHome)
		r.Get("/pricing", s.handlePricing)
		r.Get("/features", s.handleFeatures)
		r.Get("/faq", s.handleFAQ)
		r.Get("/legal/{slug}", s.handleLegal)
		r.Get("/terms", redirectTo("/legal/terms"))
		r.Get("/privacy", redirectTo("/legal/privacy"))
		r.Get("/status", s.handleStatus)
		r.Post("/lang", s.handleLang)

		throttled := s.limiter.Middleware(http.HandlerFunc(s.handleThrottled))

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", s.handleCheckout)
			r.Get("/cooldown", s.handleCheckoutCooldown)
			r.Get("/complete", s.handleCheckoutComplete)
			r.With(throttled).Post("/email", s.handleCheckoutEmail)
			r.With(throttled).Post("/verify", s.handleCheckoutVerify)
			r.With(throttled).Post("/resend", s.handleCheckoutResend)
			r.Post("/back", s.handleCheckoutBack)
			r.Post("/payment/setup", s.handlePaymentSetup)
			r.Post("/payment/confirm", s.handlePaymentConfirm)
		})

		r.Get("/login", s.handleLogin)
		r.With(throttled).Post("/login", s.handleLoginEmail)
		r.With(throttled).Post("/login/verify", s.handleLoginVerify)
		r.Post("/logout", s.handleLogout)

		r.With(mw.RequireUser("/login")).Get("/dashboard", s.handleDashboard)

		r.NotFound(s.handleNotFound)
	})

	return r
}

func redirectTo(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	}
}
