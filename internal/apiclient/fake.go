package apiclient

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/stripe/stripe-go/v78"
)

// FakeCode is the verification code accepted by the fake backend.
const FakeCode = "123456"

type fakeAccount struct {
	Email          string
	Name           string
	Verified       bool
	CustomerID     string
	SubscriptionID string
	Plan           string
	TrialEnd       time.Time
}

type fakeBackend struct {
	mu       sync.Mutex
	now      func() time.Time
	accounts map[string]*fakeAccount
	// replays stores the first response per idempotency key.
	replays map[string][]byte
	calls   map[string]int
	// failures answers the next N requests to a path with a status.
	failures map[string]fakeFailure
}

type fakeFailure struct {
	status int
	left   int
}

// FakeBackend is an in-memory stand-in for the JobConcierge API.
type FakeBackend struct {
	http.Handler
	state *fakeBackend
}

// NewFakeBackend returns an in-memory implementation of the backend endpoints.
func NewFakeBackend() *FakeBackend {
	f := &fakeBackend{
		now:      time.Now,
		accounts: map[string]*fakeAccount{},
		replays:  map[string][]byte{},
		calls:    map[string]int{},
		failures: map[string]fakeFailure{},
	}
	r := chi.NewRouter()
	r.Use(f.count)
	r.Post("/auth/check-email", f.checkEmail)
	r.Post("/auth/send-code", f.sendCode)
	r.Post("/auth/resend-code", f.sendCode)
	r.Post("/auth/verify-code", f.verifyCode)
	r.Post("/stripe/create-customer", f.idempotent(f.createCustomer))
	r.Post("/stripe/create-setup-intent", f.idempotent(f.createSetupIntent))
	r.Post("/stripe/start-trial", f.idempotent(f.startTrial))
	r.Get("/users", f.getUser)
	r.Get("/jobs/matches", f.listJobs)
	r.Get("/packets", f.listPackets)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeFakeJSON(w, http.StatusOK, Health{Status: "ok", Version: "fake", Components: map[string]string{"database": "ok", "stripe": "ok"}})
	})
	return &FakeBackend{Handler: r, state: f}
}

// Calls returns how many requests hit path.
func (b *FakeBackend) Calls(path string) int {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	return b.state.calls[path]
}

// FailNext makes the next n requests to path fail with status.
func (b *FakeBackend) FailNext(path string, status, n int) {
	b.state.mu.Lock()
	defer b.state.mu.Unlock()
	b.state.failures[path] = fakeFailure{status: status, left: n}
}

func (f *fakeBackend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[r.URL.Path]++
		fail, failing := f.failures[r.URL.Path]
		if failing {
			fail.left--
			if fail.left <= 0 {
				delete(f.failures, r.URL.Path)
			} else {
				f.failures[r.URL.Path] = fail
			}
		}
		f.mu.Unlock()
		if failing {
			writeFakeDetail(w, fail.status, http.StatusText(fail.status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// idempotent replays the stored response when the same key is seen again.
func (f *fakeBackend) idempotent(next func(map[string]string) (int, any)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decodeFakeBody(w, r)
		if !ok {
			return
		}
		key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
		f.mu.Lock()
		defer f.mu.Unlock()
		if key != "" {
			if cached, ok := f.replays[r.URL.Path+"|"+key]; ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				_, _ = w.Write(cached)
				return
			}
		}
		status, out := next(body)
		payload, _ := json.Marshal(out)
		if key != "" && status < 300 {
			f.replays[r.URL.Path+"|"+key] = payload
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(payload)
	}
}

func (f *fakeBackend) account(email string) *fakeAccount {
	email = normalizeEmail(email)
	acct, ok := f.accounts[email]
	if !ok {
		acct = &fakeAccount{Email: email}
		f.accounts[email] = acct
	}
	return acct
}

func (f *fakeBackend) checkEmail(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeFakeBody(w, r)
	if !ok {
		return
	}
	email := normalizeEmail(body["email"])
	f.mu.Lock()
	acct, exists := f.accounts[email]
	hasSub := exists && acct.SubscriptionID != ""
	f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, EmailStatus{Email: email, Exists: exists && acct.Verified, HasSubscription: hasSub})
}

func (f *fakeBackend) sendCode(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeFakeBody(w, r)
	if !ok {
		return
	}
	email := normalizeEmail(body["email"])
	if !strings.Contains(email, "@") {
		writeFakeDetail(w, http.StatusUnprocessableEntity, []map[string]string{{"msg": "value is not a valid email address"}})
		return
	}
	f.mu.Lock()
	acct := f.account(email)
	if name := strings.TrimSpace(body["name"]); name != "" {
		acct.Name = name
	}
	f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, CodeDelivery{Sent: true, ExpiresIn: 600})
}

func (f *fakeBackend) verifyCode(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeFakeBody(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(body["code"]) != FakeCode {
		writeFakeDetail(w, http.StatusBadRequest, "Invalid or expired code")
		return
	}
	f.mu.Lock()
	acct := f.account(body["email"])
	acct.Verified = true
	f.mu.Unlock()
	writeFakeJSON(w, http.StatusOK, Verification{Verified: true, Token: ulid.Make().String(), UserID: acct.Email})
}

// The handlers below run with f.mu held by idempotent.

func (f *fakeBackend) createCustomer(body map[string]string) (int, any) {
	acct := f.account(body["email"])
	if !acct.Verified {
		return http.StatusForbidden, map[string]string{"detail": "Email not verified"}
	}
	if acct.CustomerID == "" {
		acct.CustomerID = "cus_" + strings.ToLower(ulid.Make().String())
	}
	return http.StatusOK, Customer{ID: acct.CustomerID}
}

func (f *fakeBackend) createSetupIntent(body map[string]string) (int, any) {
	if strings.TrimSpace(body["customer_id"]) == "" {
		return http.StatusBadRequest, map[string]string{"detail": "customer_id is required"}
	}
	id := "seti_" + strings.ToLower(ulid.Make().String())
	return http.StatusOK, SetupIntent{
		ID:           id,
		ClientSecret: id + "_secret_fake",
		Status:       stripe.SetupIntentStatusRequiresPaymentMethod,
	}
}

func (f *fakeBackend) startTrial(body map[string]string) (int, any) {
	acct := f.account(body["email"])
	if acct.CustomerID == "" || acct.CustomerID != strings.TrimSpace(body["customer_id"]) {
		return http.StatusBadRequest, map[string]string{"detail": "Unknown customer"}
	}
	days := 7
	if body["plan"] == "elite" {
		days = 14
	}
	acct.Plan = body["plan"]
	acct.SubscriptionID = "sub_" + strings.ToLower(ulid.Make().String())
	acct.TrialEnd = f.now().UTC().AddDate(0, 0, days).Truncate(time.Second)
	return http.StatusOK, Trial{SubscriptionID: acct.SubscriptionID, Status: stripe.SubscriptionStatusTrialing, TrialEnd: acct.TrialEnd}
}

func (f *fakeBackend) lookup(w http.ResponseWriter, r *http.Request) (*fakeAccount, bool) {
	email := normalizeEmail(r.URL.Query().Get("email"))
	f.mu.Lock()
	acct, ok := f.accounts[email]
	f.mu.Unlock()
	if !ok || !acct.Verified {
		writeFakeDetail(w, http.StatusNotFound, "User not found")
		return nil, false
	}
	return acct, true
}

func (f *fakeBackend) getUser(w http.ResponseWriter, r *http.Request) {
	acct, ok := f.lookup(w, r)
	if !ok {
		return
	}
	status := "inactive"
	if acct.SubscriptionID != "" {
		status = string(stripe.SubscriptionStatusTrialing)
	}
	writeFakeJSON(w, http.StatusOK, User{
		Email:                 acct.Email,
		Name:                  acct.Name,
		Plan:                  acct.Plan,
		Status:                status,
		DailyQuotaRemaining:   fakeDailyQuota(acct.Plan),
		MonthlyQuotaRemaining: fakeDailyQuota(acct.Plan) * 20,
		TrialEndsAt:           acct.TrialEnd,
	})
}

func (f *fakeBackend) listJobs(w http.ResponseWriter, r *http.Request) {
	if _, ok := f.lookup(w, r); !ok {
		return
	}
	matched := f.now().UTC().Add(-2 * time.Hour).Truncate(time.Minute)
	writeFakeJSON(w, http.StatusOK, map[string][]Job{"jobs": {
		{ID: "job_1", Title: "Senior Backend Engineer", Company: "Northwind", Location: "Remote", Score: 0.92, URL: "https://jobs.example.com/1", MatchedAt: matched},
		{ID: "job_2", Title: "Platform Engineer", Company: "Contoso", Location: "Austin, TX", Score: 0.81, URL: "https://jobs.example.com/2", MatchedAt: matched},
	}})
}

func (f *fakeBackend) listPackets(w http.ResponseWriter, r *http.Request) {
	if _, ok := f.lookup(w, r); !ok {
		return
	}
	writeFakeJSON(w, http.StatusOK, map[string][]Packet{"packets": {
		{ID: "pkt_1", JobID: "job_1", JobTitle: "Senior Backend Engineer", Status: "ready", Documents: []string{"resume.pdf", "cover_letter.pdf"}, CreatedAt: f.now().UTC().Truncate(time.Minute)},
	}})
}

func fakeDailyQuota(plan string) int {
	switch plan {
	case "starter":
		return 5
	case "elite":
		return 40
	case "pro":
		return 15
	default:
		return 0
	}
}

func decodeFakeBody(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	body := map[string]string{}
	if r.Body == nil {
		return body, true
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFakeDetail(w, http.StatusBadRequest, "Malformed JSON body")
		return nil, false
	}
	return body, true
}

func writeFakeDetail(w http.ResponseWriter, status int, detail any) {
	writeFakeJSON(w, status, map[string]any{"detail": detail})
}

func writeFakeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
