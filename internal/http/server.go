package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/events"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/summary"
)

// Pinger reports whether the data backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MediaServer serves uploaded files.
type MediaServer interface {
	Handler() http.Handler
}

// Summarizer produces the AI analysis of a user's transactions.
type Summarizer interface {
	Generate(ctx context.Context, userID string) (summary.Result, error)
}

// Deps are the collaborators the server routes to. Summary and Media may be
// nil when the feature is not configured.
type Deps struct {
	Transactions *services.TransactionService
	Profiles     *services.ProfileService
	Auth         *auth.Service
	Summary      Summarizer
	Media        MediaServer
	MediaPrefix  string
	Health       Pinger
	Logger       *applog.Logger
	RateLimit    ratelimit.Config
}

type Server struct {
	http.Server

	txs      *services.TransactionService
	profiles *services.ProfileService
	auth     *auth.Service
	summary  Summarizer
	health   Pinger
	logger   *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	caches   *cache.Manager

	stopAuthEvents func()
	shutdownOnce   sync.Once
	startedAt      time.Time
	now            func() time.Time
}

// NewServer wires middleware and routes, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	rlConfig := deps.RateLimit
	if rlConfig.Requests <= 0 {
		rlConfig = ratelimit.DefaultConfig()
	}

	s := &Server{
		txs:       deps.Transactions,
		profiles:  deps.Profiles,
		auth:      deps.Auth,
		summary:   deps.Summary,
		health:    deps.Health,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(rlConfig),
		detector:  security.NewDetector(),
		caches:    cache.NewManager(logger.Logger),
		startedAt: time.Now(),
		now:       time.Now,
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)

	if s.txs != nil {
		s.caches.Register(s.txs.Cache())
	}
	if s.auth != nil {
		s.auth.RegisterCaches(s.caches)
		s.watchAuthEvents()
	}
	s.caches.StartCleanup(10 * time.Minute)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(applog.Middleware(logger))
	r.Use(applog.RequestIDMiddleware(trace.RequestID))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(logger.Logger))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	if deps.Media != nil && deps.MediaPrefix != "" {
		prefix := "/" + strings.Trim(deps.MediaPrefix, "/") + "/"
		r.With(security.StaticAssetMiddleware(3600)).
			Handle(prefix+"*", http.StripPrefix(prefix, deps.Media.Handler()))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(security.NoStore)
		if s.auth != nil {
			r.Use(auth.Middleware(s.auth))
		}
		r.Use(s.limitWrites)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignUp)
			r.Post("/signin", s.handleSignIn)
			r.Post("/signout", s.handleSignOut)
			r.Get("/session", s.handleSession)
			r.Get("/oauth/start", s.handleOAuthStart)
			r.Get("/oauth/callback", s.handleOAuthCallback)
		})

		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleCreateCategory)
		r.Get("/dashboard", s.handleDashboard)
		r.Post("/summary", s.handleSummary)
		r.Get("/profile", s.handleProfile)
		r.Post("/profile", s.handleUpdateProfile)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError(msgNotFound).Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "Método no permitido").Write(w)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// limitWrites applies the rate limiter to POST requests only.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		ErrorResponse(http.StatusTooManyRequests, msgRateLimited).Write(w)
	})(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// watchAuthEvents owns the server's single subscription to session changes.
// Signing out drops the user's cached transaction list.
func (s *Server) watchAuthEvents() {
	ch, cancel := s.auth.Subscribe(64)
	s.stopAuthEvents = cancel
	go func() {
		for e := range ch {
			s.logger.Debug("Session event",
				applog.FieldEvent, string(e.Kind),
				applog.FieldUserID, e.UserID)
			if e.Kind == auth.EventSignedOut && s.txs != nil {
				s.txs.Invalidate(events.NewChange(events.ResourceTransactions, e.UserID, e.At))
			}
		}
	}()
}

// Shutdown stops background work and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
		if s.stopAuthEvents != nil {
			s.stopAuthEvents()
		}
		shutdownErr = s.Server.Shutdown(ctx)
		s.logger.Info("HTTP server stopped",
			"uptime", time.Since(s.startedAt).Round(time.Second).String(),
			"suspicious_requests", s.detector.SuspiciousCount())
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
				applog.FieldError, err.Error())
			ErrorResponse(http.StatusServiceUnavailable, msgNotReady).Write(w)
			return
		}
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

// userID returns the caller's ID or writes a 401.
func (s *Server) userID(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	id, err := auth.UserID(r.Context())
	if err != nil {
		writeError(w, r, err, operation, msgUserNotResolved)
		return "", false
	}
	return id, true
}
