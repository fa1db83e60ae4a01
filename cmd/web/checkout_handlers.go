package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"go.uber.org/zap"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/apiclient"
	handlersPkg "github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/handlers"
	mw "github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/middleware"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/observability"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/plans"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/session"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/wizard"
)

// handleCheckout renders the current step. A plan or cycle in the query that
// differs from the running checkout starts a new one.
func (s *server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	sess := mw.GetSession(r)
	q := r.URL.Query()
	sel, selErr := plans.FromQuery(q)
	explicit := strings.TrimSpace(q.Get("plan")) != "" || strings.TrimSpace(q.Get("cycle")) != ""

	st := sess.Checkout
	if st == nil || (explicit && st.Selection() != sel) {
		st = s.wizard.Start(sel)
		sess.Checkout = st
		sess.MarkDirty()
	}
	if st.Step == wizard.StepComplete {
		http.Redirect(w, r, "/checkout/complete", http.StatusSeeOther)
		return
	}

	var alert *CheckoutInlineAlert
	if st.Step == wizard.StepPayment && st.ClientSecret == "" {
		if _, err := s.wizard.PreparePayment(r.Context(), st); err != nil {
			s.logStepError(r, st, err)
			alert = stepAlert(err)
		}
		sess.MarkDirty()
	}

	vm, view := s.checkoutPage(r, st)
	if alert != nil {
		view.Alert = alert
	}
	if selErr != nil {
		view.Notice = s.bundle.T(vm.Lang, "checkout.notice.unknown_plan")
	}
	vm.Checkout = view
	s.renderPage(w, r, http.StatusOK, "checkout", vm)
}

// handleCheckoutEmail submits name and email and sends the code.
func (s *server) handleCheckoutEmail(w http.ResponseWriter, r *http.Request) {
	s.runStep(w, r, func(ctx context.Context, st *wizard.State) error {
		return s.wizard.SubmitEmail(ctx, st, r.PostFormValue("name"), r.PostFormValue("email"))
	})
}

// handleCheckoutVerify submits the six code boxes.
func (s *server) handleCheckoutVerify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		observability.WriteError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	code := wizard.ParseCode(r.PostForm["code"])
	s.runStep(w, r, func(ctx context.Context, st *wizard.State) error {
		return s.wizard.SubmitCode(ctx, st, code)
	})
}

// handleCheckoutResend asks for a new code once the cooldown is over.
func (s *server) handleCheckoutResend(w http.ResponseWriter, r *http.Request) {
	s.runStep(w, r, s.wizard.Resend)
}

// handleCheckoutBack returns from Verify to Email.
func (s *server) handleCheckoutBack(w http.ResponseWriter, r *http.Request) {
	s.runStep(w, r, func(_ context.Context, st *wizard.State) error {
		return s.wizard.Back(st)
	})
}

// handlePaymentConfirm receives the payment element's setup result.
func (s *server) handlePaymentConfirm(w http.ResponseWriter, r *http.Request) {
	intentID := r.PostFormValue("setup_intent_id")
	status := stripe.SetupIntentStatus(strings.TrimSpace(r.PostFormValue("status")))
	s.runStep(w, r, func(ctx context.Context, st *wizard.State) error {
		return s.wizard.ConfirmPayment(ctx, st, intentID, status)
	})
}

// paymentSetupResponse is read by checkout.js to mount the payment element.
type paymentSetupResponse struct {
	SetupIntentID  string `json:"setupIntentId"`
	ClientSecret   string `json:"clientSecret"`
	PublishableKey string `json:"publishableKey"`
}

// handlePaymentSetup returns the client secret for the payment element.
func (s *server) handlePaymentSetup(w http.ResponseWriter, r *http.Request) {
	sess := mw.GetSession(r)
	st := sess.Checkout
	if st == nil {
		observability.WriteError(w, r, http.StatusConflict, "no checkout in progress")
		return
	}
	setup, err := s.wizard.PreparePayment(r.Context(), st)
	sess.MarkDirty()
	if err != nil {
		s.logStepError(r, st, err)
		observability.WriteError(w, r, stepStatus(err), wizard.Message(err))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(paymentSetupResponse{
		SetupIntentID:  setup.SetupIntentID,
		ClientSecret:   setup.ClientSecret,
		PublishableKey: s.cfg.Stripe.PublishableKey,
	})
}

// handleCheckoutCooldown renders the resend control; htmx polls it while the
// cooldown runs.
func (s *server) handleCheckoutCooldown(w http.ResponseWriter, r *http.Request) {
	st := mw.GetSession(r).Checkout
	if st == nil || st.Step != wizard.StepVerify {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	vm, view := s.checkoutPage(r, st)
	vm.Checkout = view
	w.Header().Set("Cache-Control", "no-store")
	s.renderTemplate(w, r, http.StatusOK, "c_resend", vm)
}

// handleCheckoutComplete renders the confirmation for a finished checkout.
func (s *server) handleCheckoutComplete(w http.ResponseWriter, r *http.Request) {
	st := mw.GetSession(r).Checkout
	if st == nil || st.Step != wizard.StepComplete {
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
		return
	}
	vm, view := s.checkoutPage(r, st)
	vm.Title = s.bundle.T(vm.Lang, "checkout.complete.title")
	vm.Checkout = view
	s.renderPage(w, r, http.StatusOK, "checkout_complete", vm)
}

// runStep applies one wizard action under the per-session in-flight guard and
// renders the outcome. Failures re-render the same step inline.
func (s *server) runStep(w http.ResponseWriter, r *http.Request, action func(context.Context, *wizard.State) error) {
	sess := mw.GetSession(r)
	st := sess.Checkout
	if st == nil {
		redirect(w, r, "/checkout")
		return
	}
	release, err := s.guard.Acquire(sess.ID)
	if err != nil {
		s.stepFailed(w, r, st, err)
		return
	}
	defer release()

	err = action(r.Context(), st)
	sess.MarkDirty()
	if err != nil {
		s.stepFailed(w, r, st, err)
		return
	}

	if st.Step == wizard.StepComplete {
		marker, err := s.wizard.Complete(st)
		if err != nil {
			s.stepFailed(w, r, st, err)
			return
		}
		sess.SignIn(session.User{Email: marker.Email, Plan: marker.Plan, QuotaRemaining: marker.QuotaRemaining})
		observability.FromContext(r.Context()).Info("checkout completed",
			zap.String("plan", string(marker.Plan)),
			zap.String("cycle", string(st.Cycle)),
		)
		redirect(w, r, "/checkout/complete")
		return
	}
	if mw.IsHTMX(r.Context()) {
		s.renderCheckout(w, r, st, http.StatusOK, nil)
		return
	}
	http.Redirect(w, r, "/checkout", http.StatusSeeOther)
}

func (s *server) stepFailed(w http.ResponseWriter, r *http.Request, st *wizard.State, err error) {
	if errors.Is(err, wizard.ErrWrongStep) {
		redirect(w, r, "/checkout")
		return
	}
	s.logStepError(r, st, err)
	s.renderCheckout(w, r, st, stepStatus(err), stepAlert(err))
}

// handleThrottled re-renders the form that was rate limited.
func (s *server) handleThrottled(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	alert := &CheckoutInlineAlert{Tone: "error", Kind: "rate_limited", Message: s.bundle.T(lang, "error.rate_limited")}
	if strings.HasPrefix(r.URL.Path, "/login") {
		s.renderLogin(w, r, http.StatusTooManyRequests, alert)
		return
	}
	st := mw.GetSession(r).Checkout
	if st == nil {
		observability.WriteError(w, r, http.StatusTooManyRequests, alert.Message)
		return
	}
	s.renderCheckout(w, r, st, http.StatusTooManyRequests, alert)
}

func (s *server) renderCheckout(w http.ResponseWriter, r *http.Request, st *wizard.State, code int, alert *CheckoutInlineAlert) {
	vm, view := s.checkoutPage(r, st)
	if alert != nil {
		view.Alert = alert
	}
	vm.Checkout = view
	if mw.IsHTMX(r.Context()) {
		s.renderTemplate(w, r, code, "c_checkout_step", vm)
		return
	}
	s.renderPage(w, r, code, "checkout", vm)
}

func (s *server) checkoutPage(r *http.Request, st *wizard.State) (handlersPkg.PageData, CheckoutView) {
	vm := s.basePage(r, "checkout.title", "checkout.desc")
	vm.SEO.Robots = "noindex, nofollow"
	view := buildCheckoutView(st, s.wizard.Cooldown(st))
	view.Payment.PublishableKey = s.cfg.Stripe.PublishableKey
	view.Payment.TestMode = s.api.Fake() || s.cfg.Stripe.PublishableKey == ""
	return vm, view
}

func (s *server) logStepError(r *http.Request, st *wizard.State, err error) {
	observability.FromContext(r.Context()).Warn("checkout step failed",
		zap.String("step", st.Step.String()),
		zap.String("kind", string(wizard.Classify(err))),
		zap.Int("attempts", st.Attempts),
		zap.Error(err),
	)
}

// stepStatus maps a step error onto the status of the re-rendered step.
func stepStatus(err error) int {
	switch {
	case errors.Is(err, wizard.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrCooldown):
		return http.StatusTooManyRequests
	}
	switch wizard.Classify(err) {
	case wizard.KindServer:
		// a rejected request is something the visitor can fix
		if code := apiclient.StatusCode(err); code >= 400 && code < 500 {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	case wizard.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

func stepAlert(err error) *CheckoutInlineAlert {
	return &CheckoutInlineAlert{Tone: "error", Kind: string(wizard.Classify(err)), Message: wizard.Message(err)}
}
