package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/plans"
)

func TestClientServerErrorDetailString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Invalid or expired code"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).VerifyCode(context.Background(), "a@b.io", "000000")
	require.Error(t, err)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindServer, apiErr.Kind)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid or expired code", apiErr.UserMessage())
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestClientServerErrorDetailList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"msg":"value is not a valid email address"},{"msg":"name too long"}]}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).CheckEmail(context.Background(), "nope")
	require.Error(t, err)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "value is not a valid email address; name too long", apiErr.Message)
}

func TestClientServerErrorFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Health(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Internal Server Error", apiErr.Message)
	assert.True(t, IsKind(err, KindServer))
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).Health(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTimeout), "got %v", err)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.UserMessage(), "took too long")
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Health(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindNetwork), "got %v", err)
	assert.Equal(t, 0, StatusCode(err))
}

func TestClientBadBaseURLKeepsErrorShape(t *testing.T) {
	_, err := New("http://backend.test/\x7f").Health(context.Background())
	require.Error(t, err)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.Equal(t, "/health", apiErr.Endpoint)
	assert.Equal(t, 0, StatusCode(err))
}

func TestClientSendsHeadersAndBody(t *testing.T) {
	var got struct {
		identity, idem, contentType string
		body                        map[string]string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.identity = r.Header.Get("X-Jobconcierge-User")
		got.idem = r.Header.Get("Idempotency-Key")
		got.contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got.body)
		_, _ = w.Write([]byte(`{"subscription_id":"sub_1","trial_end":"2026-10-21T00:00:00Z"}`))
	}))
	defer srv.Close()

	trial, err := New(srv.URL, WithIdentityHeader("X-Jobconcierge-User")).StartTrial(context.Background(), TrialRequest{
		CustomerID:     "cus_1",
		Email:          " Ada@Example.COM ",
		Plan:           plans.Pro,
		Cycle:          plans.Annual,
		SetupIntentID:  "seti_1",
		IdempotencyKey: "key-1:start-trial",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_1", trial.SubscriptionID)
	assert.Equal(t, stripe.SubscriptionStatusTrialing, trial.Status)
	assert.Equal(t, 2026, trial.TrialEnd.Year())

	assert.Equal(t, "ada@example.com", got.identity)
	assert.Equal(t, "key-1:start-trial", got.idem)
	assert.Equal(t, "application/json", got.contentType)
	assert.Equal(t, "pro", got.body["plan"])
	assert.Equal(t, "annual", got.body["billing_cycle"])
	assert.Equal(t, "cus_1", got.body["customer_id"])
}

func TestClientInvalidJSONIsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Health(context.Background())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindServer))
}

func TestClientObserverOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			_, _ = w.Write([]byte(`{"status":"ok"}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	outcomes := map[string]string{}
	c := New(srv.URL, WithObserver(func(endpoint, outcome string, _ time.Duration) {
		outcomes[endpoint] = outcome
	}))
	_, _ = c.Health(context.Background())
	_, _ = c.CheckEmail(context.Background(), "a@b.io")

	assert.Equal(t, "ok", outcomes["/health"])
	assert.Equal(t, "server", outcomes["/auth/check-email"])
}

func TestFakeBackendProvisioningFlow(t *testing.T) {
	c := New("")
	require.True(t, c.Fake())
	ctx := context.Background()

	_, err := c.SendCode(ctx, SendCodeRequest{Email: "ada@example.com", Name: "Ada"})
	require.NoError(t, err)

	_, err = c.VerifyCode(ctx, "ada@example.com", "000000")
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired code", err.(*Error).UserMessage())

	v, err := c.VerifyCode(ctx, "ada@example.com", FakeCode)
	require.NoError(t, err)
	assert.True(t, v.Verified)

	cust, err := c.CreateCustomer(ctx, CustomerRequest{Email: "ada@example.com", Name: "Ada", IdempotencyKey: "k:customer"})
	require.NoError(t, err)
	again, err := c.CreateCustomer(ctx, CustomerRequest{Email: "ada@example.com", Name: "Ada", IdempotencyKey: "k:customer"})
	require.NoError(t, err)
	assert.Equal(t, cust.ID, again.ID)

	si, err := c.CreateSetupIntent(ctx, cust.ID, "ada@example.com", "k:setup")
	require.NoError(t, err)
	assert.NotEmpty(t, si.ClientSecret)
	assert.Equal(t, stripe.SetupIntentStatusRequiresPaymentMethod, si.Status)

	trial, err := c.StartTrial(ctx, TrialRequest{CustomerID: cust.ID, Email: "ada@example.com", Plan: plans.Pro, SetupIntentID: si.ID, IdempotencyKey: "k:trial"})
	require.NoError(t, err)
	assert.Equal(t, stripe.SubscriptionStatusTrialing, trial.Status)

	user, err := c.GetUser(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "pro", user.Plan)
	assert.Equal(t, 15, user.DailyQuotaRemaining)

	jobs, err := c.ListMatchedJobs(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	packets, err := c.ListPackets(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Len(t, packets, 1)
}

func TestFakeBackendReplaysIdempotentRequests(t *testing.T) {
	fake := NewFakeBackend()
	srv := httptest.NewServer(fake)
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.VerifyCode(ctx, "bo@example.com", FakeCode)
	require.NoError(t, err)
	first, err := c.CreateSetupIntent(ctx, "cus_1", "bo@example.com", "same")
	require.NoError(t, err)
	second, err := c.CreateSetupIntent(ctx, "cus_1", "bo@example.com", "same")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, fake.Calls("/stripe/create-setup-intent"))
}

func TestFakeBackendUnknownUser(t *testing.T) {
	_, err := New("").GetUser(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}
