// Package session keeps per-visitor state in a signed, encrypted cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/oklog/ulid/v2"

	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/plans"
	"github.com/mielconsulting55-lab/zjobconcierge-web-sub000/internal/wizard"
)

const (
	defaultCookieName = "JC_WEB_SESSION"
	defaultCookiePath = "/"
	defaultLifetime   = 30 * 24 * time.Hour
)

// ErrInvalidConfig indicates the manager was initialised with missing or invalid options.
var ErrInvalidConfig = errors.New("session: invalid config")

// User is the signed-in subscriber marker.
type User struct {
	Email          string   `json:"email"`
	Plan           plans.ID `json:"plan,omitempty"`
	QuotaRemaining int      `json:"quotaRemaining,omitempty"`
}

// Data is the persisted session payload.
type Data struct {
	ID        string             `json:"id"`
	CSRFToken string             `json:"csrf,omitempty"`
	Locale    string             `json:"locale,omitempty"`
	Checkout  *wizard.State      `json:"checkout,omitempty"`
	Login     *wizard.LoginState `json:"login,omitempty"`
	User      *User              `json:"user,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Session is the mutable session of the current request.
type Session struct {
	Data
	dirty      bool
	destroyed  bool
	fromCookie bool
	now        func() time.Time
}

// MarkDirty flags the session for writing before the response is sent.
func (s *Session) MarkDirty() {
	s.dirty = true
	s.UpdatedAt = s.now().UTC()
}

// NeedsSave reports whether the cookie must be (re)written.
func (s *Session) NeedsSave() bool { return s.dirty || s.destroyed || !s.fromCookie }

// RegenerateID assigns a new id and CSRF token, used after sign-in.
func (s *Session) RegenerateID() {
	s.ID = NewID()
	s.CSRFToken = NewID()
	s.MarkDirty()
}

// SignIn stores the subscriber marker.
func (s *Session) SignIn(u User) {
	s.User = &u
	s.RegenerateID()
}

// SignOut removes the marker and any flow in progress.
func (s *Session) SignOut() {
	s.User = nil
	s.Checkout = nil
	s.Login = nil
	s.RegenerateID()
}

// Destroy clears the cookie on save.
func (s *Session) Destroy() {
	s.destroyed = true
}

// Config controls cookie encoding and lifetime.
type Config struct {
	CookieName string
	HashKey    []byte
	BlockKey   []byte
	Secure     bool
	Lifetime   time.Duration
	Now        func() time.Time
}

// Manager decodes and persists sessions via securecookie.
type Manager struct {
	cfg   Config
	codec *securecookie.SecureCookie
}

// NewManager constructs a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.HashKey) == 0 {
		return nil, fmt.Errorf("%w: hash key is required", ErrInvalidConfig)
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes", ErrInvalidConfig)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = defaultCookieName
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultLifetime
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	var block []byte
	if len(cfg.BlockKey) > 0 {
		block = cfg.BlockKey
	}
	codec := securecookie.New(cfg.HashKey, block)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.Lifetime / time.Second))
	return &Manager{cfg: cfg, codec: codec}, nil
}

// CookieName returns the session cookie name.
func (m *Manager) CookieName() string { return m.cfg.CookieName }

// Load returns the session stored in r, or a fresh one when the cookie is
// missing, tampered with or expired.
func (m *Manager) Load(r *http.Request) *Session {
	if c, err := r.Cookie(m.cfg.CookieName); err == nil && c.Value != "" {
		var stored Data
		if err := m.codec.Decode(m.cfg.CookieName, c.Value, &stored); err == nil && stored.ID != "" {
			return &Session{Data: stored, fromCookie: true, now: m.cfg.Now}
		}
	}
	now := m.cfg.Now().UTC()
	return &Session{
		Data: Data{
			ID:        NewID(),
			CSRFToken: NewID(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		dirty: true,
		now:   m.cfg.Now,
	}
}

// Save writes the session cookie.
func (m *Manager) Save(w http.ResponseWriter, s *Session) error {
	if s == nil {
		return errors.New("session: nil session")
	}
	if s.destroyed {
		http.SetCookie(w, m.cookie("", -1))
		return nil
	}
	encoded, err := m.codec.Encode(m.cfg.CookieName, s.Data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	http.SetCookie(w, m.cookie(encoded, int(m.cfg.Lifetime/time.Second)))
	s.dirty = false
	s.fromCookie = true
	return nil
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     defaultCookiePath,
		Secure:   m.cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
	if maxAge > 0 {
		c.Expires = m.cfg.Now().Add(time.Duration(maxAge) * time.Second).UTC()
	}
	return c
}

// NewID returns a random, sortable identifier.
func NewID() string {
	return ulid.Make().String()
}

// EphemeralKey generates a random key for development when none is configured.
func EphemeralKey() []byte {
	return securecookie.GenerateRandomKey(32)
}
