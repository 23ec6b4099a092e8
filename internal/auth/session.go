package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"donationRegistry/models"
)

// CookieName is the name of the session cookie.
const CookieName = "doacoes_session"

var (
	// ErrUnauthenticated means the caller has no valid session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials means no user matched the username/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Session is the identity attached to an authenticated caller.
// Role is carried for display and future use; no routine branches on it.
type Session struct {
	ID       string
	Username string
	Role     models.Role
}

// CredentialFinder is the persistence lookup used by Login.
type CredentialFinder interface {
	FindByCredentials(ctx context.Context, username, password string) (*models.User, error)
}

// Manager issues, validates and revokes sessions. Tokens are HS256 JWTs
// carried in an HttpOnly cookie; the session id inside must also be present
// in the Store.
type Manager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	store  *Store
	now    func() time.Time
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithSecureCookie sets the Secure attribute on session cookies.
func WithSecureCookie(secure bool) ManagerOption {
	return func(m *Manager) { m.secure = secure }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithStore shares an existing Store.
func WithStore(s *Store) ManagerOption {
	return func(m *Manager) { m.store = s }
}

// NewManager returns a Manager signing with secret. secret must not be empty.
func NewManager(secret string, ttl time.Duration, opts ...ManagerOption) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	m := &Manager{secret: []byte(secret), ttl: ttl, store: NewStore(), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Store exposes the backing session store.
func (m *Manager) Store() *Store { return m.store }

// NormalizeUsername is the one form in which usernames are stored and
// looked up.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// Login verifies the credentials through users and, on a match, starts a
// session for the user. On failure the request's session state is untouched
// and ErrInvalidCredentials is returned.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, users CredentialFinder, username, password string) (*models.User, *Session, error) {
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}
	u, err := users.FindByCredentials(r.Context(), username, password)
	if err != nil {
		return nil, nil, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return nil, nil, ErrInvalidCredentials
	}
	s, err := m.Start(w, r, u)
	if err != nil {
		return nil, nil, err
	}
	return u, s, nil
}

// Start establishes a session for u and writes the cookie. Any session the
// request already carried is revoked first, so re-authentication replaces
// the previous identity.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request, u *models.User) (*Session, error) {
	if u == nil {
		return nil, errors.New("nil user")
	}
	if prev, err := m.Load(r); err == nil {
		m.store.Delete(prev.ID)
	}
	now := m.now()
	expires := now.Add(m.ttl)
	s := Session{ID: uuid.NewString(), Username: u.Username, Role: u.Role}

	token, err := m.sign(s, now, expires)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	m.store.Put(s, expires)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
	return &s, nil
}

// Load returns the session carried by r or ErrUnauthenticated.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, ErrUnauthenticated
	}
	return m.Parse(c.Value)
}

// Parse validates a session token and resolves it against the store.
func (m *Manager) Parse(token string) (*Session, error) {
	c, err := m.parseClaims(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	s, ok := m.store.Get(c.SessionID, m.now())
	if !ok || s.Username != c.Name {
		return nil, fmt.Errorf("%w: session revoked or expired", ErrUnauthenticated)
	}
	return &s, nil
}

// End clears the session unconditionally: the id is revoked if the token
// parses and the cookie is expired either way.
func (m *Manager) End(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		if claims, err := m.parseClaims(c.Value); err == nil {
			m.store.Delete(claims.SessionID)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// RunSweeper removes expired sessions every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.store.Sweep(m.now())
		}
	}
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func (m *Manager) sign(s Session, now, expires time.Time) (string, error) {
	claims := sessionClaims{
		SessionID: s.ID,
		Name:      s.Username,
		Role:      string(s.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) parseClaims(token string) (*sessionClaims, error) {
	tok, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !tok.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return nil, err
	}
	c, _ := tok.Claims.(*sessionClaims)
	if c == nil || c.SessionID == "" || c.Name == "" {
		return nil, errors.New("invalid claims")
	}
	return c, nil
}
