// Package web is the HTTP surface of the donation registry: login and
// registration, the session-gated donation pages and the 404/500 pages.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"donationRegistry/internal/app"
	"donationRegistry/internal/auth"
	"donationRegistry/internal/metrics"
)

// Pinger reports store reachability. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options carries the server's collaborators.
type Options struct {
	Sessions           *auth.Manager
	Users              auth.CredentialFinder
	Service            *app.Service
	DB                 Pinger
	Log                logrus.FieldLogger
	Metrics            *metrics.Metrics // optional
	LoginRatePerMinute int              // <= 0 disables login throttling
	TrustProxy         bool             // take the client address from X-Forwarded-For/X-Real-IP
}

// Server serves the web routes.
type Server struct {
	sessions *auth.Manager
	users    auth.CredentialFinder
	svc      *app.Service
	db       Pinger
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
	limiter  *loginLimiter
	views    *renderer
	proxied  bool
}

// NewServer validates o and parses the page templates.
func NewServer(o Options) (*Server, error) {
	if o.Sessions == nil || o.Users == nil || o.Service == nil {
		return nil, errors.New("web: sessions, users and service are required")
	}
	if o.Log == nil {
		return nil, errors.New("web: logger is required")
	}
	views, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &Server{
		sessions: o.Sessions,
		users:    o.Users,
		svc:      o.Service,
		db:       o.DB,
		log:      o.Log,
		metrics:  o.Metrics,
		limiter:  newLoginLimiter(o.LoginRatePerMinute),
		views:    views,
		proxied:  o.TrustProxy,
	}, nil
}

// Routes builds the router. Everything except login, register, logout and
// the operational endpoints sits behind the session guard.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// Forwarding headers are client-controlled unless a proxy rewrites them.
	if s.proxied {
		r.Use(middleware.RealIP)
	}
	r.Use(s.observe, s.recoverer)
	r.NotFound(s.notFound)

	r.Get("/healthz", s.healthz)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/login", s.loginForm)
	r.Post("/login", s.loginSubmit)
	r.Post("/register", s.register)
	r.Get("/logout", s.logout)

	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware(http.HandlerFunc(s.denyAnonymous)))
		r.Get("/", s.index)
		r.Get("/cadastrar", s.donationForm)
		r.Post("/cadastrar", s.donationSubmit)
		r.Get("/lista", s.list)
		r.Get("/dashboard", s.dashboard)
	})
	return r
}

// RunMaintenance prunes idle login limiters until ctx is done.
func (s *Server) RunMaintenance(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.limiter.Cleanup(10 * time.Minute)
		}
	}
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.requestLog(r).WithError(err).Warn("health check failed")
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
