package wizard

import (
	"context"
	"strings"
	"time"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/apiclient"
)

// LoginState is the one-time-code sign-in of a returning subscriber.
type LoginState struct {
	Email      string    `json:"email,omitempty"`
	Sent       bool      `json:"sent,omitempty"`
	Code       Code      `json:"code"`
	Focus      int       `json:"focus"`
	CodeSentAt time.Time `json:"codeSentAt,omitempty"`
	LastError  string    `json:"lastError,omitempty"`
}

// Cooldown mirrors State.Cooldown for the login code.
func (l *LoginState) Cooldown(now time.Time) int {
	if l == nil {
		return 0
	}
	return cooldownLeft(l.CodeSentAt, now)
}

// LoginCooldown returns the resend seconds remaining for ls at the current time.
func (w *Wizard) LoginCooldown(ls *LoginState) int {
	return ls.Cooldown(w.now())
}

// RequestLogin sends a sign-in code to a registered address. Asking again for
// the same address is subject to the resend cooldown.
func (w *Wizard) RequestLogin(ctx context.Context, ls *LoginState, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		ls.Email = email
		return w.failLogin(ls, &ValidationError{Field: "email", Message: "Please enter a valid email address."})
	}
	if ls.Sent && ls.Email == email && ls.Cooldown(w.now()) > 0 {
		return w.failLogin(ls, ErrCooldown)
	}
	status, err := w.backend.CheckEmail(ctx, email)
	if err != nil {
		return w.failLogin(ls, err)
	}
	if !status.Exists {
		ls.Email = email
		return w.failLogin(ls, &ValidationError{Field: "email", Message: "We couldn't find an account with this email."})
	}
	if _, err := w.backend.SendCode(ctx, apiclient.SendCodeRequest{Email: email, Purpose: apiclient.PurposeLogin}); err != nil {
		return w.failLogin(ls, err)
	}
	ls.Email = email
	ls.Sent = true
	ls.CodeSentAt = w.now()
	ls.Focus = ls.Code.Reset()
	ls.LastError = ""
	return nil
}

// VerifyLogin checks the sign-in code. On failure the code is cleared.
func (w *Wizard) VerifyLogin(ctx context.Context, ls *LoginState, code Code) error {
	if !ls.Sent {
		return ErrWrongStep
	}
	if !code.Complete() {
		ls.Code = code
		return w.failLogin(ls, &ValidationError{Field: "code", Message: "Enter the 6-digit code we emailed you."})
	}
	res, err := w.backend.VerifyCode(ctx, ls.Email, code.String())
	if err == nil && !res.Verified {
		err = &ValidationError{Field: "code", Message: "Invalid or expired code"}
	}
	if err != nil {
		ls.Focus = ls.Code.Reset()
		return w.failLogin(ls, err)
	}
	ls.Focus = ls.Code.Reset()
	ls.LastError = ""
	return nil
}

func (w *Wizard) failLogin(ls *LoginState, err error) error {
	ls.LastError = Message(err)
	if w.hooks.Failure != nil {
		w.hooks.Failure(StepVerify, Classify(err))
	}
	return err
}
