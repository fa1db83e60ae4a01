package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/apiclient"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/plans"
)

type stubBackend struct {
	mu        sync.Mutex
	calls     map[string]int
	keys      []string
	verifyErr error
	custErrs  []error
	trialErr  error
	existing  bool
}

func newStub() *stubBackend { return &stubBackend{calls: map[string]int{}} }

func (s *stubBackend) hit(name string) {
	s.mu.Lock()
	s.calls[name]++
	s.mu.Unlock()
}

func (s *stubBackend) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubBackend) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *stubBackend) CheckEmail(_ context.Context, email string) (apiclient.EmailStatus, error) {
	s.hit("check-email")
	return apiclient.EmailStatus{Email: email, Exists: s.existing, HasSubscription: s.existing}, nil
}

func (s *stubBackend) SendCode(context.Context, apiclient.SendCodeRequest) (apiclient.CodeDelivery, error) {
	s.hit("send-code")
	return apiclient.CodeDelivery{Sent: true}, nil
}

func (s *stubBackend) VerifyCode(_ context.Context, _ string, code string) (apiclient.Verification, error) {
	s.hit("verify-code")
	if s.verifyErr != nil {
		return apiclient.Verification{}, s.verifyErr
	}
	return apiclient.Verification{Verified: code == apiclient.FakeCode}, nil
}

func (s *stubBackend) ResendCode(context.Context, string) (apiclient.CodeDelivery, error) {
	s.hit("resend-code")
	return apiclient.CodeDelivery{Sent: true}, nil
}

func (s *stubBackend) CreateCustomer(_ context.Context, req apiclient.CustomerRequest) (apiclient.Customer, error) {
	s.hit("create-customer")
	s.mu.Lock()
	s.keys = append(s.keys, req.IdempotencyKey)
	var err error
	if len(s.custErrs) > 0 {
		err, s.custErrs = s.custErrs[0], s.custErrs[1:]
	}
	s.mu.Unlock()
	if err != nil {
		return apiclient.Customer{}, err
	}
	return apiclient.Customer{ID: "cus_1"}, nil
}

func (s *stubBackend) CreateSetupIntent(context.Context, string, string, string) (apiclient.SetupIntent, error) {
	s.hit("create-setup-intent")
	return apiclient.SetupIntent{ID: "seti_1", ClientSecret: "seti_1_secret", Status: stripe.SetupIntentStatusRequiresPaymentMethod}, nil
}

func (s *stubBackend) StartTrial(context.Context, apiclient.TrialRequest) (apiclient.Trial, error) {
	s.hit("start-trial")
	if s.trialErr != nil {
		return apiclient.Trial{}, s.trialErr
	}
	return apiclient.Trial{SubscriptionID: "sub_1", Status: stripe.SubscriptionStatusTrialing}, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestWizard(b Backend, c *clock, opts ...Option) *Wizard {
	base := []Option{WithClock(c.now), WithKeyFunc(func() string { return "01KEY" })}
	return New(b, append(base, opts...)...)
}

func codeOf(s string) Code {
	var c Code
	c.Paste(s)
	return c
}

func TestSubmitEmailWithoutAtMakesNoCall(t *testing.T) {
	for _, email := range []string{"ada.example.com", "nobody", "   ", ""} {
		b := newStub()
		w := newTestWizard(b, &clock{t: time.Now()})
		st := w.Start(plans.Selection{Plan: plans.Pro})

		err := w.SubmitEmail(context.Background(), st, "Ada", email)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, email)
		assert.Equal(t, "email", vErr.Field)
		assert.Equal(t, KindValidation, Classify(err))
		assert.Equal(t, 0, b.total(), "no backend call for %q", email)
		assert.Equal(t, StepEmail, st.Step)
		assert.NotEmpty(t, st.LastError)
	}
}

func TestSubmitEmailRequiresName(t *testing.T) {
	b := newStub()
	w := newTestWizard(b, &clock{t: time.Now()})
	st := w.Start(plans.Selection{})

	err := w.SubmitEmail(context.Background(), st, "  ", "ada@example.com")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)
	assert.Equal(t, 0, b.total())
}

func TestSubmitEmailStartsCooldown(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
	b := newStub()
	w := newTestWizard(b, c)
	st := w.Start(plans.Selection{Plan: plans.Pro})

	require.NoError(t, w.SubmitEmail(context.Background(), st, "Ada", " Ada@Example.com "))
	assert.Equal(t, StepVerify, st.Step)
	assert.Equal(t, "ada@example.com", st.Email)
	assert.Equal(t, 1, b.count("check-email"))
	assert.Equal(t, 1, b.count("send-code"))

	assert.Equal(t, 60, w.Cooldown(st))
	prev := 60
	for i := 1; i <= 75; i++ {
		c.advance(time.Second)
		got := w.Cooldown(st)
		want := 60 - i
		if want < 0 {
			want = 0
		}
		assert.Equal(t, want, got, "after %ds", i)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, prev-got, 1)
		prev = got
	}
}

func TestCooldownWithinSecondDoesNotDecrement(t *testing.T) {
	sent := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	st := &State{CodeSentAt: sent}
	assert.Equal(t, 60, st.Cooldown(sent.Add(999*time.Millisecond)))
	assert.Equal(t, 59, st.Cooldown(sent.Add(time.Second)))
	assert.Equal(t, 60, st.Cooldown(sent.Add(-time.Minute)))
	assert.Equal(t, 0, (&State{}).Cooldown(sent))
}

func TestSubmitEmailRejectsExistingSubscriber(t *testing.T) {
	b := newStub()
	b.existing = true
	w := newTestWizard(b, &clock{t: time.Now()})
	st := w.Start(plans.Selection{})

	err := w.SubmitEmail(context.Background(), st, "Ada", "ada@example.com")
	require.Error(t, err)
	assert.Equal(t, StepEmail, st.Step)
	assert.Equal(t, 0, b.count("send-code"))
}

func TestResendHonoursCooldown(t *testing.T) {
	c := &clock{t: time.Now()}
	b := newStub()
	w := newTestWizard(b, c)
	st := w.Start(plans.Selection{})
	require.NoError(t, w.SubmitEmail(context.Background(), st, "Ada", "ada@example.com"))

	c.advance(30 * time.Second)
	err := w.Resend(context.Background(), st)
	assert.ErrorIs(t, err, ErrCooldown)
	assert.Equal(t, 0, b.count("resend-code"))

	c.advance(30 * time.Second)
	require.NoError(t, w.Resend(context.Background(), st))
	assert.Equal(t, 1, b.count("resend-code"))
	assert.Equal(t, 60, w.Cooldown(st))
}

func TestBackReturnsToEmail(t *testing.T) {
	b := newStub()
	w := newTestWizard(b, &clock{t: time.Now()})
	st := w.Start(plans.Selection{})
	require.NoError(t, w.SubmitEmail(context.Background(), st, "Ada", "ada@example.com"))
	st.Code = codeOf("123")

	require.NoError(t, w.Back(st))
	assert.Equal(t, StepEmail, st.Step)
	assert.Equal(t, Code{}, st.Code)
	assert.ErrorIs(t, w.Back(st), ErrWrongStep)
}

func TestSubmitCodeIncompleteIsValidation(t *testing.T) {
	b := newStub()
	w := newTestWizard(b, &clock{t: time.Now()})
	st := w.Start(plans.Selection{})
	require.NoError(t, w.SubmitEmail(context.Background(), st, "Ada", "ada@example.com"))

	err := w.SubmitCode(context.Background(), st, codeOf("12345"))
	assert.Equal(t, KindValidation, Classify(err))
	assert.Equal(t, 0, b.count("verify-code"))
	assert.Equal(t, StepVerify, st.Step)
}

func TestSubmitCodeFailureResetsCode(t *testing.T) {
	b := newStub()
	b.verifyErr = &apiclient.Error{Kind: apiclient.KindServer, Status: http.StatusBadRequest, Message: "Invalid or expired code"}
	w := newTestWizard(b, &clock{t: time.Now()})
	st := w.Start(plans.Selection{})
	require.NoError(t, w.SubmitEmail(context.Background(), st, "Ada", "ada@example.com"))
	st.Focus = 5

	err := w.SubmitCode(context.Background(), st, codeOf("654321"))
	require.Error(t, err)
	assert.Equal(t, KindServer, Classify(err))
	assert.Equal(t, Code{"", "", "", "", "", ""}, st.Code)
	assert.Equal(t, 0, st.Focus)
	assert.Equal(t, StepVerify, st.Step)
	assert.Equal(t, "Invalid or expired code", st.LastError)
	assert.False(t, st.Verified)
}

func TestSubmitCodeRejectedWithoutErrorResetsCode(t *testing.T) {
	b := newStub()
	w := newTestWizard(b, &clock{t: time.Now()})
	st := w.Start(plans.Selection{})
	require.NoError(t, w.SubmitEmail(context.Background(), st, "Ada", "ada@example.com"))

	err := w.SubmitCode(context.Background(), st, codeOf("000000"))
	require.Error(t, err)
	assert.Equal(t, Code{}, st.Code)
	assert.Equal(t, 0, st.Focus)
}

func TestSubmitCodeResumesAfterCustomerFailure(t *testing.T) {
	b := newStub()
	b.custErrs = []error{&apiclient.Error{Kind: apiclient.KindTimeout, Endpoint: "/stripe/create-customer"}}
	w := newTestWizard(b, &clock{t: time.Now()})
	st := w.Start(plans.Selection{})
	require.NoError(t, w.SubmitEmail(context.Background(), st, "Ada", "ada@example.com"))

	err := w.SubmitCode(context.Background(), st, codeOf(apiclient.FakeCode))
	require.Error(t, err)
	assert.Equal(t, KindNetwork, Classify(err))
	assert.Equal(t, StepVerify, st.Step)
	assert.True(t, st.Verified)

	require.NoError(t, w.SubmitCode(context.Background(), st, Code{}))
	assert.Equal(t, StepPayment, st.Step)
	assert.Equal(t, "cus_1", st.CustomerID)
	assert.Equal(t, 1, b.count("verify-code"), "verified code is not re-submitted")
	assert.Equal(t, 2, b.count("create-customer"))
	assert.Equal(t, []string{"01KEY:create-customer", "01KEY:create-customer"}, b.keys)
}

func TestPaymentFailureLoopsAndSucceeds(t *testing.T) {
	b := newStub()
	w := newTestWizard(b, &clock{t: time.Now()})
	st := w.Start(plans.Selection{Plan: plans.Elite, Cycle: plans.Annual})
	ctx := context.Background()
	require.NoError(t, w.SubmitEmail(ctx, st, "Ada", "ada@example.com"))
	require.NoError(t, w.SubmitCode(ctx, st, codeOf(apiclient.FakeCode)))

	setup, err := w.PreparePayment(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, "seti_1_secret", setup.ClientSecret)
	_, err = w.PreparePayment(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, 1, b.count("create-setup-intent"))

	err = w.ConfirmPayment(ctx, st, "seti_1", stripe.SetupIntentStatusRequiresPaymentMethod)
	assert.Equal(t, KindValidation, Classify(err))
	assert.Equal(t, StepPayment, st.Step)
	assert.Equal(t, 0, b.count("start-trial"))

	b.trialErr = &apiclient.Error{Kind: apiclient.KindServer, Status: 502, Message: "Payment provider unavailable"}
	err = w.ConfirmPayment(ctx, st, "seti_1", stripe.SetupIntentStatusSucceeded)
	require.Error(t, err)
	assert.Equal(t, StepPayment, st.Step)
	assert.Equal(t, 2, st.Attempts)

	b.trialErr = nil
	require.NoError(t, w.ConfirmPayment(ctx, st, "seti_1", stripe.SetupIntentStatusSucceeded))
	assert.Equal(t, StepComplete, st.Step)
	assert.Equal(t, 0, st.Attempts)
	assert.False(t, st.TrialEndsAt.IsZero())

	marker, err := w.Complete(st)
	require.NoError(t, err)
	assert.Equal(t, Marker{Email: "ada@example.com", Plan: plans.Elite, QuotaRemaining: 40}, marker)
}

func TestConfirmPaymentRejectsForeignSetupIntent(t *testing.T) {
	b := newStub()
	w := newTestWizard(b, &clock{t: time.Now()})
	st := &State{Step: StepPayment, Plan: plans.Pro, SetupIntentID: "seti_1", ClientSecret: "x"}

	err := w.ConfirmPayment(context.Background(), st, "seti_other", stripe.SetupIntentStatusSucceeded)
	require.Error(t, err)
	assert.Equal(t, 0, b.count("start-trial"))
}

func TestOperationsCheckStep(t *testing.T) {
	w := newTestWizard(newStub(), &clock{t: time.Now()})
	st := w.Start(plans.Selection{})
	ctx := context.Background()

	assert.ErrorIs(t, w.SubmitCode(ctx, st, Code{}), ErrWrongStep)
	assert.ErrorIs(t, w.Resend(ctx, st), ErrWrongStep)
	_, err := w.PreparePayment(ctx, st)
	assert.ErrorIs(t, err, ErrWrongStep)
	assert.ErrorIs(t, w.ConfirmPayment(ctx, st, "", stripe.SetupIntentStatusSucceeded), ErrWrongStep)
	_, err = w.Complete(st)
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestHooksReceiveTransitionsAndFailures(t *testing.T) {
	var transitions []string
	var failures []string
	w := newTestWizard(newStub(), &clock{t: time.Now()}, WithHooks(Hooks{
		Transition: func(from, to Step) { transitions = append(transitions, from.String()+">"+to.String()) },
		Failure:    func(step Step, kind ErrorKind) { failures = append(failures, step.String()+":"+string(kind)) },
	}))
	st := w.Start(plans.Selection{})
	ctx := context.Background()

	_ = w.SubmitEmail(ctx, st, "Ada", "nope")
	require.NoError(t, w.SubmitEmail(ctx, st, "Ada", "ada@example.com"))
	require.NoError(t, w.Back(st))

	assert.Equal(t, []string{"email>verify", "verify>email"}, transitions)
	assert.Equal(t, []string{"email:validation"}, failures)
}

func TestStartDefaultsPlanAndCycle(t *testing.T) {
	w := newTestWizard(newStub(), &clock{t: time.Now()})
	st := w.Start(plans.Selection{Plan: "platinum", Cycle: "weekly"})
	assert.Equal(t, plans.DefaultPlan, st.Plan)
	assert.Equal(t, plans.Monthly, st.Cycle)
	assert.Equal(t, StepEmail, st.Step)
	assert.Equal(t, "01KEY", st.ProvisionKey)
}

func TestStateRoundTripsThroughJSON(t *testing.T) {
	st := &State{Step: StepPayment, Email: "ada@example.com", Plan: plans.Pro, Code: codeOf("12")}
	raw, err := json.Marshal(st)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"step":"payment"`)

	var back State
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, StepPayment, back.Step)
	assert.Equal(t, st.Code, back.Code)
}

func TestMessageAndClassify(t *testing.T) {
	assert.Equal(t, KindNetwork, Classify(&apiclient.Error{Kind: apiclient.KindNetwork}))
	assert.Equal(t, KindCooldown, Classify(ErrCooldown))
	assert.Equal(t, KindBusy, Classify(fmt.Errorf("submit: %w", ErrBusy)))
	assert.Equal(t, KindValidation, Classify(&ValidationError{Field: "email", Message: "bad"}))
	assert.Equal(t, ErrorKind(""), Classify(nil))
	assert.Contains(t, Message(errors.Join(ErrBusy)), "still working")
	assert.Contains(t, Message(&apiclient.Error{Kind: apiclient.KindTimeout}), "too long")
}

func TestGuardRejectsConcurrentSubmit(t *testing.T) {
	g := NewGuard()
	release, err := g.Acquire("s1")
	require.NoError(t, err)

	_, err = g.Acquire("s1")
	assert.ErrorIs(t, err, ErrBusy)

	other, err := g.Acquire("s2")
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := g.Acquire("s1")
	require.NoError(t, err)
	again()
}
