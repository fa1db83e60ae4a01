package apiclient

import (
	"context"
	"net/http"
	"strings"
)

// CodePurpose tells the backend why a one-time code is requested.
type CodePurpose string

const (
	PurposeSignup CodePurpose = "signup"
	PurposeLogin  CodePurpose = "login"
)

// EmailStatus is the answer of /auth/check-email.
type EmailStatus struct {
	Email  string `json:"email"`
	Exists bool   `json:"exists"`
	// HasSubscription is set when the address already owns an active plan.
	HasSubscription bool `json:"has_subscription"`
}

// SendCodeRequest asks the backend to e-mail a one-time code.
type SendCodeRequest struct {
	Email   string
	Name    string
	Purpose CodePurpose
}

// CodeDelivery describes a sent code.
type CodeDelivery struct {
	Sent      bool `json:"sent"`
	ExpiresIn int  `json:"expires_in"`
}

// Verification is the answer of /auth/verify-code.
type Verification struct {
	Verified bool   `json:"verified"`
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
}

// CheckEmail asks whether an address is already registered.
func (c *Client) CheckEmail(ctx context.Context, email string) (EmailStatus, error) {
	var out EmailStatus
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/check-email",
		body:   map[string]string{"email": normalizeEmail(email)},
		out:    &out,
	})
	return out, err
}

// SendCode requests a verification code for the address.
func (c *Client) SendCode(ctx context.Context, req SendCodeRequest) (CodeDelivery, error) {
	purpose := req.Purpose
	if purpose == "" {
		purpose = PurposeSignup
	}
	body := map[string]string{
		"email":   normalizeEmail(req.Email),
		"purpose": string(purpose),
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		body["name"] = name
	}
	var out CodeDelivery
	err := c.do(ctx, call{method: http.MethodPost, path: "/auth/send-code", body: body, out: &out})
	return out, err
}

// VerifyCode submits the six-digit code.
func (c *Client) VerifyCode(ctx context.Context, email, code string) (Verification, error) {
	var out Verification
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/verify-code",
		body:   map[string]string{"email": normalizeEmail(email), "code": strings.TrimSpace(code)},
		out:    &out,
	})
	return out, err
}

// ResendCode asks for a fresh code.
func (c *Client) ResendCode(ctx context.Context, email string) (CodeDelivery, error) {
	var out CodeDelivery
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/auth/resend-code",
		body:   map[string]string{"email": normalizeEmail(email)},
		out:    &out,
	})
	return out, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
