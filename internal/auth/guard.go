package auth

import (
	"context"
	"net/http"
)

type sessionKey struct{}

// WithSession stores the session in context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext retrieves the session from context (if any).
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// RequireSession returns ErrUnauthenticated for an anonymous caller.
func RequireSession(s *Session) error {
	if s == nil || s.ID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// Middleware guards next: requests without a valid session are handed to
// deny and never reach next. Authenticated requests carry the session in
// their context.
func (m *Manager) Middleware(deny http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := m.Load(r)
			if err != nil {
				deny.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}
