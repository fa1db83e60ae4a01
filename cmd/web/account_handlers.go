package main

import (
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/apiclient"
	mw "github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/middleware"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/observability"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/plans"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/session"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/wizard"
)

const defaultAfterLogin = "/dashboard"

// handleDashboard shows plan, quota, matched jobs and packets. The backend is
// the source of truth; the session marker is refreshed from it.
func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)
	sess := mw.GetSession(r)
	marker := sess.User

	// Reaching the dashboard ends a finished checkout.
	if sess.Checkout != nil && sess.Checkout.Step == wizard.StepComplete {
		sess.Checkout = nil
		sess.MarkDirty()
	}

	code := http.StatusOK
	var view DashboardView
	user, err := s.api.GetUser(ctx, marker.Email)
	if err != nil {
		logger.Warn("dashboard user lookup failed", zap.Error(err))
		code = http.StatusBadGateway
		if apiclient.StatusCode(err) == http.StatusNotFound {
			// The marker points at an account the backend no longer knows.
			sess.SignOut()
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		view = DashboardView{Email: marker.Email, DailyRemaining: marker.QuotaRemaining}
		if p, err := plans.Lookup(marker.Plan); err == nil {
			view.PlanName = p.Name
			view.DailyQuota = p.DailyQuota
		}
		view.Alert = stepAlert(err)
	} else {
		jobs, jobsErr := s.api.ListMatchedJobs(ctx, marker.Email)
		if jobsErr != nil {
			logger.Warn("dashboard jobs failed", zap.Error(jobsErr))
		}
		packets, packetsErr := s.api.ListPackets(ctx, marker.Email)
		if packetsErr != nil {
			logger.Warn("dashboard packets failed", zap.Error(packetsErr))
		}
		view = buildDashboardView(user, jobs, packets)
		if jobsErr != nil {
			view.Alert = stepAlert(jobsErr)
		} else if packetsErr != nil {
			view.Alert = stepAlert(packetsErr)
		}

		if marker.QuotaRemaining != user.DailyQuotaRemaining || string(marker.Plan) != user.Plan {
			sess.User = &session.User{Email: marker.Email, Plan: plans.ID(user.Plan), QuotaRemaining: user.DailyQuotaRemaining}
			sess.MarkDirty()
		}
	}

	vm := s.basePage(r, "dashboard.title", "dashboard.desc")
	vm.SEO.Robots = "noindex, nofollow"
	vm.Dashboard = view
	w.Header().Set("Cache-Control", "no-store")
	s.renderPage(w, r, code, "dashboard", vm)
}

// handleLogin renders the sign-in form for returning subscribers.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if mw.CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, safeNext(r.URL.Query().Get("next"), defaultAfterLogin), http.StatusSeeOther)
		return
	}
	s.renderLogin(w, r, http.StatusOK, nil)
}

// handleLoginEmail sends a sign-in code.
func (s *server) handleLoginEmail(w http.ResponseWriter, r *http.Request) {
	sess := mw.GetSession(r)
	if sess.Login == nil {
		sess.Login = &wizard.LoginState{}
	}
	release, err := s.guard.Acquire(sess.ID)
	if err != nil {
		s.renderLogin(w, r, stepStatus(err), stepAlert(err))
		return
	}
	defer release()

	err = s.wizard.RequestLogin(r.Context(), sess.Login, r.PostFormValue("email"))
	sess.MarkDirty()
	if err != nil {
		s.logLoginError(r, err)
		s.renderLogin(w, r, stepStatus(err), nil)
		return
	}
	s.loginStepDone(w, r)
}

// handleLoginVerify checks the code and signs the subscriber in.
func (s *server) handleLoginVerify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		observability.WriteError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	sess := mw.GetSession(r)
	if sess.Login == nil {
		redirect(w, r, "/login")
		return
	}
	release, err := s.guard.Acquire(sess.ID)
	if err != nil {
		s.renderLogin(w, r, stepStatus(err), stepAlert(err))
		return
	}
	defer release()

	ls := sess.Login
	err = s.wizard.VerifyLogin(r.Context(), ls, wizard.ParseCode(r.PostForm["code"]))
	sess.MarkDirty()
	if err != nil {
		if errors.Is(err, wizard.ErrWrongStep) {
			redirect(w, r, "/login")
			return
		}
		s.logLoginError(r, err)
		s.renderLogin(w, r, stepStatus(err), nil)
		return
	}

	marker := session.User{Email: ls.Email}
	if u, err := s.api.GetUser(r.Context(), ls.Email); err == nil {
		marker.Plan = plans.ID(u.Plan)
		marker.QuotaRemaining = u.DailyQuotaRemaining
	} else {
		observability.FromContext(r.Context()).Warn("login user lookup failed", zap.Error(err))
	}
	sess.Login = nil
	sess.SignIn(marker)
	observability.FromContext(r.Context()).Info("subscriber signed in", zap.String("plan", string(marker.Plan)))
	redirect(w, r, safeNext(r.PostFormValue("next"), defaultAfterLogin))
}

// handleLogout clears the marker and any flow in progress.
func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	mw.GetSession(r).SignOut()
	redirect(w, r, "/")
}

func (s *server) loginStepDone(w http.ResponseWriter, r *http.Request) {
	if mw.IsHTMX(r.Context()) {
		s.renderLogin(w, r, http.StatusOK, nil)
		return
	}
	target := "/login"
	if next := safeNext(r.PostFormValue("next"), ""); next != "" {
		target += "?next=" + url.QueryEscape(next)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *server) renderLogin(w http.ResponseWriter, r *http.Request, code int, alert *CheckoutInlineAlert) {
	sess := mw.GetSession(r)
	next := safeNext(r.FormValue("next"), "")
	vm := s.basePage(r, "login.title", "login.desc")
	vm.SEO.Robots = "noindex, nofollow"
	view := buildLoginView(sess.Login, s.wizard.LoginCooldown(sess.Login), next)
	if alert != nil {
		view.Alert = alert
	}
	vm.Login = view
	if mw.IsHTMX(r.Context()) {
		s.renderTemplate(w, r, code, "c_login_form", vm)
		return
	}
	s.renderPage(w, r, code, "login", vm)
}

func (s *server) logLoginError(r *http.Request, err error) {
	observability.FromContext(r.Context()).Warn("login step failed",
		zap.String("kind", string(wizard.Classify(err))),
		zap.Error(err),
	)
}
