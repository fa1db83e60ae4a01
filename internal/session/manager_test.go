package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/plans"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/wizard"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager(Config{
		HashKey:  []byte("0123456789abcdef0123456789abcdef"),
		BlockKey: []byte("abcdef0123456789"),
	})
	require.NoError(t, err)
	return mgr
}

func roundTrip(t *testing.T, mgr *Manager, s *Session) *Session {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, mgr.Save(rec, s))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return mgr.Load(req)
}

func TestManagerRoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	s := mgr.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, s.NeedsSave())
	s.Locale = "es"
	s.Checkout = &wizard.State{Step: wizard.StepVerify, Email: "ada@example.com", Plan: plans.Pro, CodeSentAt: time.Now().UTC().Truncate(time.Second)}

	loaded := roundTrip(t, mgr, s)
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, "es", loaded.Locale)
	require.NotNil(t, loaded.Checkout)
	assert.Equal(t, wizard.StepVerify, loaded.Checkout.Step)
	assert.True(t, s.Checkout.CodeSentAt.Equal(loaded.Checkout.CodeSentAt))
	assert.False(t, loaded.NeedsSave())
}

func TestManagerRejectsTamperedCookie(t *testing.T) {
	mgr := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: mgr.CookieName(), Value: "forged"})

	s := mgr.Load(req)
	assert.NotEmpty(t, s.ID)
	assert.True(t, s.NeedsSave())
}

func TestSignInRegeneratesID(t *testing.T) {
	mgr := newTestManager(t)
	s := mgr.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	oldID, oldToken := s.ID, s.CSRFToken

	s.SignIn(User{Email: "ada@example.com", Plan: plans.Pro, QuotaRemaining: 15})
	assert.NotEqual(t, oldID, s.ID)
	assert.NotEqual(t, oldToken, s.CSRFToken)

	loaded := roundTrip(t, mgr, s)
	require.NotNil(t, loaded.User)
	assert.Equal(t, "ada@example.com", loaded.User.Email)

	loaded.SignOut()
	assert.Nil(t, loaded.User)
	assert.True(t, loaded.NeedsSave())
}

func TestDestroyExpiresCookie(t *testing.T) {
	mgr := newTestManager(t)
	s := mgr.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.Destroy()
	rec := httptest.NewRecorder()
	require.NoError(t, mgr.Save(rec, s))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestNewManagerValidatesKeys(t *testing.T) {
	_, err := NewManager(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewManager(Config{HashKey: []byte("k"), BlockKey: []byte("short")})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Len(t, EphemeralKey(), 32)
}
