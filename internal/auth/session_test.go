package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"donationRegistry/internal/testutil"
	"donationRegistry/models"
	"donationRegistry/repository"
)

const testSecret = "test-secret"

func newManager(t *testing.T, opts ...ManagerOption) *Manager {
	t.Helper()
	m, err := NewManager(testSecret, time.Hour, opts...)
	require.NoError(t, err)
	return m
}

// requestWith returns a request carrying the cookies set on rec.
func requestWith(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", CookieName)
	return nil
}

type fakeUsers map[string]models.User

func (f fakeUsers) FindByCredentials(_ context.Context, username, password string) (*models.User, error) {
	u, ok := f[username+"/"+password]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type failingUsers struct{}

func (failingUsers) FindByCredentials(context.Context, string, string) (*models.User, error) {
	return nil, errors.New("store unreachable")
}

func TestNewManager_Validates(t *testing.T) {
	_, err := NewManager("", time.Hour)
	require.Error(t, err)
	_, err = NewManager("s", 0)
	require.Error(t, err)
}

func TestManager_Lifecycle(t *testing.T) {
	m := newManager(t)
	anon := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := m.Load(anon)
	require.ErrorIs(t, err, ErrUnauthenticated, "initial state is anonymous")

	rec := httptest.NewRecorder()
	s, err := m.Start(rec, anon, &models.User{Username: "ana", Role: models.RoleOperator})
	require.NoError(t, err)
	c := sessionCookie(t, rec)
	assert.True(t, c.HttpOnly)

	loaded, err := m.Load(requestWith(rec))
	require.NoError(t, err)
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, "ana", loaded.Username)
	assert.Equal(t, models.RoleOperator, loaded.Role)

	out := httptest.NewRecorder()
	m.End(out, requestWith(rec))
	assert.Equal(t, -1, sessionCookie(t, out).MaxAge)

	// The old cookie is replayed after logout and must be refused.
	_, err = m.Load(requestWith(rec))
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, 0, m.Store().Len())
}

func TestManager_ReauthReplacesIdentity(t *testing.T) {
	m := newManager(t)
	first := httptest.NewRecorder()
	s1, err := m.Start(first, httptest.NewRequest(http.MethodGet, "/", nil), &models.User{Username: "ana", Role: models.RoleOperator})
	require.NoError(t, err)

	second := httptest.NewRecorder()
	s2, err := m.Start(second, requestWith(first), &models.User{Username: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.NotEqual(t, s1.ID, s2.ID)

	_, err = m.Load(requestWith(first))
	require.ErrorIs(t, err, ErrUnauthenticated, "previous identity is revoked")
	cur, err := m.Load(requestWith(second))
	require.NoError(t, err)
	assert.Equal(t, "admin", cur.Username)
	assert.Equal(t, 1, m.Store().Len())
}

func TestManager_RejectsForgedAndExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newManager(t, WithClock(func() time.Time { return now }))

	rec := httptest.NewRecorder()
	s, err := m.Start(rec, httptest.NewRequest(http.MethodGet, "/", nil), &models.User{Username: "ana"})
	require.NoError(t, err)

	forged := testutil.SignSessionToken(t, "other-secret", s.ID, "ana", "operator", time.Hour)
	_, err = m.Parse(forged)
	require.ErrorIs(t, err, ErrUnauthenticated)

	unknown := testutil.SignSessionToken(t, testSecret, "not-a-session", "ana", "operator", 24*365*time.Hour)
	_, err = m.Parse(unknown)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = m.Parse("garbage")
	require.ErrorIs(t, err, ErrUnauthenticated)

	now = now.Add(2 * time.Hour)
	_, err = m.Load(requestWith(rec))
	require.ErrorIs(t, err, ErrUnauthenticated, "expired session")
}

func TestManager_Login(t *testing.T) {
	m := newManager(t)
	users := fakeUsers{"ana/pw": {Name: "Ana Lima", Username: "ana", Role: models.RoleOperator}}

	rec := httptest.NewRecorder()
	_, _, err := m.Login(rec, httptest.NewRequest(http.MethodPost, "/login", nil), users, "ana", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, rec.Result().Cookies(), "failed login leaves session unset")

	_, _, err = m.Login(rec, httptest.NewRequest(http.MethodPost, "/login", nil), users, "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	u, s, err := m.Login(rec, httptest.NewRequest(http.MethodPost, "/login", nil), users, "ana", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", u.Name)
	assert.Equal(t, "ana", s.Username)

	_, _, err = m.Login(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil), failingUsers{}, "ana", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestManager_LoginNormalizesUsername(t *testing.T) {
	m := newManager(t)
	users := fakeUsers{"ana/pw": {Name: "Ana Lima", Username: "ana", Role: models.RoleOperator}}

	_, s, err := m.Login(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil), users, "  ana ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "ana", s.Username)

	_, _, err = m.Login(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil), users, " \t ", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// The password is compared verbatim.
	_, _, err = m.Login(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil), users, "ana", " pw ")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestManager_LoginDefaultAdmin(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "authadmin")
	users := repository.NewUserRepository(d, repository.WithHashCost(bcrypt.MinCost))
	require.NoError(t, users.EnsureDefaultAdmin(context.Background()))

	m := newManager(t)
	u, s, err := m.Login(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil), users, "admin", "123")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAdminName, u.Name)
	assert.Equal(t, models.RoleAdmin, s.Role)
}

func TestMiddleware(t *testing.T) {
	m := newManager(t)
	var reached bool
	protected := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		s, ok := FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "ana", s.Username)
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/lista", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.False(t, reached, "guard must run before the wrapped handler")

	login := httptest.NewRecorder()
	_, err := m.Start(login, httptest.NewRequest(http.MethodGet, "/", nil), &models.User{Username: "ana"})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, requestWith(login))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, reached)
}

func TestRequireSession(t *testing.T) {
	require.ErrorIs(t, RequireSession(nil), ErrUnauthenticated)
	require.ErrorIs(t, RequireSession(&Session{}), ErrUnauthenticated)
	require.NoError(t, RequireSession(&Session{ID: "x", Username: "ana"}))
}
