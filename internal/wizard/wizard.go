// Package wizard drives the Email → Verify → Payment → Complete checkout flow.
package wizard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stripe/stripe-go/v78"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/apiclient"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/plans"
)

// Backend is the subset of the API client used by the wizard.
type Backend interface {
	CheckEmail(ctx context.Context, email string) (apiclient.EmailStatus, error)
	SendCode(ctx context.Context, req apiclient.SendCodeRequest) (apiclient.CodeDelivery, error)
	VerifyCode(ctx context.Context, email, code string) (apiclient.Verification, error)
	ResendCode(ctx context.Context, email string) (apiclient.CodeDelivery, error)
	CreateCustomer(ctx context.Context, req apiclient.CustomerRequest) (apiclient.Customer, error)
	CreateSetupIntent(ctx context.Context, customerID, email, idempotencyKey string) (apiclient.SetupIntent, error)
	StartTrial(ctx context.Context, req apiclient.TrialRequest) (apiclient.Trial, error)
}

// Hooks receive transition and failure events, typically for metrics.
type Hooks struct {
	Transition func(from, to Step)
	Failure    func(step Step, kind ErrorKind)
}

// Wizard applies visitor actions to a State.
type Wizard struct {
	backend Backend
	now     func() time.Time
	newKey  func() string
	hooks   Hooks
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) {
		if now != nil {
			w.now = now
		}
	}
}

// WithKeyFunc overrides how provision keys are generated.
func WithKeyFunc(fn func() string) Option {
	return func(w *Wizard) {
		if fn != nil {
			w.newKey = fn
		}
	}
}

// WithHooks registers event callbacks.
func WithHooks(h Hooks) Option {
	return func(w *Wizard) { w.hooks = h }
}

// New constructs a Wizard backed by b.
func New(b Backend, opts ...Option) *Wizard {
	w := &Wizard{
		backend: b,
		now:     time.Now,
		newKey:  func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start opens a checkout session for the selected plan.
func (w *Wizard) Start(sel plans.Selection) *State {
	plan := sel.Resolve()
	cycle := sel.Cycle
	if cycle != plans.Annual {
		cycle = plans.Monthly
	}
	return &State{
		Step:         StepEmail,
		Plan:         plan.ID,
		Cycle:        cycle,
		ProvisionKey: w.newKey(),
	}
}

// Cooldown returns the resend seconds remaining for st at the current time.
func (w *Wizard) Cooldown(st *State) int {
	return st.Cooldown(w.now())
}

// SubmitEmail validates the contact details, checks the address and sends a code.
func (w *Wizard) SubmitEmail(ctx context.Context, st *State, name, email string) error {
	if st.Step != StepEmail {
		return ErrWrongStep
	}
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	st.Name = name
	if err := validateContact(name, email); err != nil {
		st.Email = email
		return w.fail(st, err)
	}

	status, err := w.backend.CheckEmail(ctx, email)
	if err != nil {
		st.Email = email
		return w.fail(st, err)
	}
	if status.HasSubscription {
		st.Email = email
		return w.fail(st, &ValidationError{Field: "email", Message: "This email already has an active plan. Please log in instead."})
	}
	if _, err := w.backend.SendCode(ctx, apiclient.SendCodeRequest{Email: email, Name: name, Purpose: apiclient.PurposeSignup}); err != nil {
		st.Email = email
		return w.fail(st, err)
	}

	if st.Email != email {
		// A different address invalidates anything provisioned for the old one.
		st.Verified = false
		st.CustomerID = ""
		st.SetupIntentID = ""
		st.ClientSecret = ""
		st.ProvisionKey = w.newKey()
	}
	st.Email = email
	st.CodeSentAt = w.now()
	st.Focus = st.Code.Reset()
	w.advance(st, StepVerify)
	return nil
}

// Resend asks for another code once the cooldown has run out.
func (w *Wizard) Resend(ctx context.Context, st *State) error {
	if st.Step != StepVerify {
		return ErrWrongStep
	}
	if w.Cooldown(st) > 0 {
		return w.fail(st, ErrCooldown)
	}
	if _, err := w.backend.ResendCode(ctx, st.Email); err != nil {
		return w.fail(st, err)
	}
	st.CodeSentAt = w.now()
	st.Focus = st.Code.Reset()
	st.LastError = ""
	return nil
}

// Back returns from Verify to Email and clears the code.
func (w *Wizard) Back(st *State) error {
	if st.Step != StepVerify {
		return ErrWrongStep
	}
	st.Focus = st.Code.Reset()
	w.advance(st, StepEmail)
	return nil
}

// SubmitCode verifies the code and provisions the payment customer.
//
// Verification is recorded before the customer is created. When creation
// fails the session stays at Verify with Verified set and the next submit
// only retries the customer call, under the same idempotency key.
func (w *Wizard) SubmitCode(ctx context.Context, st *State, code Code) error {
	if st.Step != StepVerify {
		return ErrWrongStep
	}
	if !st.Verified {
		if !code.Complete() {
			st.Code = code
			return w.fail(st, &ValidationError{Field: "code", Message: "Enter the 6-digit code we emailed you."})
		}
		res, err := w.backend.VerifyCode(ctx, st.Email, code.String())
		if err == nil && !res.Verified {
			err = &ValidationError{Field: "code", Message: "Invalid or expired code"}
		}
		if err != nil {
			st.Focus = st.Code.Reset()
			return w.fail(st, err)
		}
		st.Verified = true
		st.Focus = st.Code.Reset()
	}

	customer, err := w.backend.CreateCustomer(ctx, apiclient.CustomerRequest{
		Email:          st.Email,
		Name:           st.Name,
		IdempotencyKey: st.idempotencyKey("create-customer"),
	})
	if err != nil {
		return w.fail(st, err)
	}
	st.CustomerID = customer.ID
	w.advance(st, StepPayment)
	return nil
}

// PaymentSetup is what the browser needs to mount the payment element.
type PaymentSetup struct {
	SetupIntentID string
	ClientSecret  string
}

// PreparePayment opens the setup intent once per session.
func (w *Wizard) PreparePayment(ctx context.Context, st *State) (PaymentSetup, error) {
	if st.Step != StepPayment {
		return PaymentSetup{}, ErrWrongStep
	}
	if st.ClientSecret != "" {
		return PaymentSetup{SetupIntentID: st.SetupIntentID, ClientSecret: st.ClientSecret}, nil
	}
	intent, err := w.backend.CreateSetupIntent(ctx, st.CustomerID, st.Email, st.idempotencyKey("create-setup-intent"))
	if err != nil {
		return PaymentSetup{}, w.fail(st, err)
	}
	st.SetupIntentID = intent.ID
	st.ClientSecret = intent.ClientSecret
	return PaymentSetup{SetupIntentID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// ConfirmPayment records the payment element's result and starts the trial.
func (w *Wizard) ConfirmPayment(ctx context.Context, st *State, setupIntentID string, status stripe.SetupIntentStatus) error {
	if st.Step != StepPayment {
		return ErrWrongStep
	}
	setupIntentID = strings.TrimSpace(setupIntentID)
	if setupIntentID == "" {
		setupIntentID = st.SetupIntentID
	}
	if st.SetupIntentID != "" && setupIntentID != st.SetupIntentID {
		return w.fail(st, &ValidationError{Field: "payment", Message: "Your payment session changed. Please enter your card again."})
	}
	if status != stripe.SetupIntentStatusSucceeded {
		return w.fail(st, &ValidationError{Field: "payment", Message: setupStatusMessage(status)})
	}

	trial, err := w.backend.StartTrial(ctx, apiclient.TrialRequest{
		CustomerID:     st.CustomerID,
		Email:          st.Email,
		Plan:           st.Plan,
		Cycle:          st.Cycle,
		SetupIntentID:  setupIntentID,
		IdempotencyKey: st.idempotencyKey("start-trial"),
	})
	if err != nil {
		return w.fail(st, err)
	}
	st.SubscriptionID = trial.SubscriptionID
	st.TrialEndsAt = trial.TrialEnd
	if st.TrialEndsAt.IsZero() {
		st.TrialEndsAt = w.now().AddDate(0, 0, plans.MustLookup(st.Plan).TrialDays)
	}
	st.ClientSecret = ""
	w.advance(st, StepComplete)
	return nil
}

// Marker identifies the signed-in subscriber after checkout.
type Marker struct {
	Email          string   `json:"email"`
	Plan           plans.ID `json:"plan"`
	QuotaRemaining int      `json:"quotaRemaining"`
}

// Complete returns the session marker for a finished checkout.
func (w *Wizard) Complete(st *State) (Marker, error) {
	if st.Step != StepComplete {
		return Marker{}, ErrWrongStep
	}
	plan := st.Selection().Resolve()
	return Marker{Email: st.Email, Plan: plan.ID, QuotaRemaining: plan.DailyQuota}, nil
}

func (w *Wizard) advance(st *State, to Step) {
	from := st.Step
	st.Step = to
	st.Attempts = 0
	st.LastError = ""
	if w.hooks.Transition != nil && from != to {
		w.hooks.Transition(from, to)
	}
}

func (w *Wizard) fail(st *State, err error) error {
	st.Attempts++
	st.LastError = Message(err)
	if w.hooks.Failure != nil && !errors.Is(err, ErrBusy) {
		w.hooks.Failure(st.Step, Classify(err))
	}
	return err
}

func validateContact(name, email string) error {
	if name == "" {
		return &ValidationError{Field: "name", Message: "Please enter your name."}
	}
	if email == "" {
		return &ValidationError{Field: "email", Message: "Please enter your email."}
	}
	if !strings.Contains(email, "@") {
		return &ValidationError{Field: "email", Message: "Please enter a valid email address."}
	}
	return nil
}

func setupStatusMessage(status stripe.SetupIntentStatus) string {
	switch status {
	case stripe.SetupIntentStatusRequiresPaymentMethod:
		return "Your card could not be saved. Please try another payment method."
	case stripe.SetupIntentStatusRequiresAction:
		return "Your bank needs you to confirm this card. Please complete the verification."
	case stripe.SetupIntentStatusProcessing:
		return "Your card is still being processed. Please wait a moment and try again."
	case stripe.SetupIntentStatusCanceled:
		return "The payment setup was canceled. Please try again."
	default:
		return "We couldn't confirm your payment method. Please try again."
	}
}
