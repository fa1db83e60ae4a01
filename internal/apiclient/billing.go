package apiclient

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/plans"
)

// CustomerRequest creates the payment customer record for a verified address.
type CustomerRequest struct {
	Email          string
	Name           string
	IdempotencyKey string
}

// Customer is the backend's payment customer.
type Customer struct {
	ID string `json:"customer_id"`
}

// SetupIntent carries what the browser needs to mount the payment element.
type SetupIntent struct {
	ID             string                   `json:"setup_intent_id"`
	ClientSecret   string                   `json:"client_secret"`
	Status         stripe.SetupIntentStatus `json:"status"`
	PublishableKey string                   `json:"publishable_key"`
}

// TrialRequest starts the subscription trial once a payment method is stored.
type TrialRequest struct {
	CustomerID      string
	Email           string
	Plan            plans.ID
	Cycle           plans.Cycle
	SetupIntentID   string
	PaymentMethodID string
	IdempotencyKey  string
}

// Trial is the started subscription.
type Trial struct {
	SubscriptionID string                    `json:"subscription_id"`
	Status         stripe.SubscriptionStatus `json:"status"`
	TrialEnd       time.Time                 `json:"trial_end"`
}

// CreateCustomer creates (or, with the same idempotency key, returns) the customer.
func (c *Client) CreateCustomer(ctx context.Context, req CustomerRequest) (Customer, error) {
	var out Customer
	err := c.do(ctx, call{
		method:         http.MethodPost,
		path:           "/stripe/create-customer",
		identity:       normalizeEmail(req.Email),
		idempotencyKey: req.IdempotencyKey,
		body: map[string]string{
			"email": normalizeEmail(req.Email),
			"name":  strings.TrimSpace(req.Name),
		},
		out: &out,
	})
	return out, err
}

// CreateSetupIntent opens a setup intent for collecting a card without charging it.
func (c *Client) CreateSetupIntent(ctx context.Context, customerID, email, idempotencyKey string) (SetupIntent, error) {
	var out SetupIntent
	err := c.do(ctx, call{
		method:         http.MethodPost,
		path:           "/stripe/create-setup-intent",
		identity:       normalizeEmail(email),
		idempotencyKey: idempotencyKey,
		body:           map[string]string{"customer_id": strings.TrimSpace(customerID)},
		out:            &out,
	})
	if err == nil && out.Status == "" {
		out.Status = stripe.SetupIntentStatusRequiresPaymentMethod
	}
	return out, err
}

// StartTrial begins the trial subscription on the stored payment method.
func (c *Client) StartTrial(ctx context.Context, req TrialRequest) (Trial, error) {
	cycle := req.Cycle
	if cycle == "" {
		cycle = plans.Monthly
	}
	body := map[string]string{
		"customer_id":     strings.TrimSpace(req.CustomerID),
		"email":           normalizeEmail(req.Email),
		"plan":            string(req.Plan),
		"billing_cycle":   string(cycle),
		"setup_intent_id": strings.TrimSpace(req.SetupIntentID),
	}
	if pm := strings.TrimSpace(req.PaymentMethodID); pm != "" {
		body["payment_method_id"] = pm
	}
	var out Trial
	err := c.do(ctx, call{
		method:         http.MethodPost,
		path:           "/stripe/start-trial",
		identity:       normalizeEmail(req.Email),
		idempotencyKey: req.IdempotencyKey,
		body:           body,
		out:            &out,
	})
	if err == nil && out.Status == "" {
		out.Status = stripe.SubscriptionStatusTrialing
	}
	return out, err
}
