package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"budgetmanager/internal/core"
	applog "budgetmanager/internal/log"
	"budgetmanager/internal/middleware/ratelimit"
	"budgetmanager/internal/middleware/security"
	"budgetmanager/internal/middleware/trace"
	"budgetmanager/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures NewServer. Zero values fall back to defaults.
type Options struct {
	DefaultActor       string
	RateLimitPerMinute int
	Clock              core.Clock
	Logger             *applog.Logger
}

type Server struct {
	http.Server
	svc      *services.Services
	ready    Pinger
	actor    string
	clock    core.Clock
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires the JSON API routes and returns a server ready to run.
func NewServer(addr string, svc *services.Services, ready Pinger, opts Options) *Server {
	if opts.DefaultActor == "" {
		opts.DefaultActor = "system"
	}
	if opts.Clock == nil {
		opts.Clock = core.SystemClock
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	detector := security.NewDetector()
	s := &Server{
		svc:      svc,
		ready:    ready,
		actor:    opts.DefaultActor,
		clock:    opts.Clock,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
	}
	s.Server = http.Server{
		Addr:    addr,
		Handler: s.routes(opts.Logger),
	}
	return s
}

func (s *Server) routes(logger *applog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(applog.Middleware(logger))
	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("route not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
		}))

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", s.handleListAccounts)
			r.Post("/", s.handleCreateAccount)
			r.Get("/{id}", s.handleGetAccount)
			r.Put("/{id}", s.handleUpdateAccount)
			r.Delete("/{id}", s.handleDeleteAccount)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleCreateCategory)
			r.Get("/{id}", s.handleGetCategory)
			r.Put("/{id}", s.handleUpdateCategory)
			r.Delete("/{id}", s.handleDeleteCategory)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Get("/{id}", s.handleGetTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.handleListRules)
			r.Post("/", s.handleCreateRule)
			r.Get("/suggest", s.handleSuggestRule)
			r.Post("/reorder", s.handleReorderRules)
			r.Post("/apply", s.handleApplyRules)
			r.Get("/{id}", s.handleGetRule)
			r.Put("/{id}", s.handleUpdateRule)
			r.Delete("/{id}", s.handleDeleteRule)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Delete("/{id}", s.handleDeleteBudget)
			r.Route("/{year}/{month}", func(r chi.Router) {
				r.Get("/", s.handleListBudgets)
				r.Put("/", s.handleSetBudget)
				r.Post("/copy", s.handleCopyBudgets)
				r.Get("/pacing", s.handlePacing)
			})
		})

		r.Route("/locks", func(r chi.Router) {
			r.Get("/", s.handleListLocks)
			r.Post("/{year}/{month}", s.handleLockMonth)
			r.Delete("/{year}/{month}", s.handleUnlockMonth)
		})

		r.Route("/import", func(r chi.Router) {
			r.Post("/preview", s.handleImportPreview)
			r.Post("/{token}/commit", s.handleImportCommit)
		})

		r.Get("/dashboard", s.handleDashboard)
		r.Route("/reports", func(r chi.Router) {
			r.Get("/budget-vs-actual", s.handleBudgetVsActual)
			r.Get("/month-over-month", s.handleMonthOverMonth)
			r.Get("/top-expenses", s.handleTopExpenses)
			r.Get("/daily-spending", s.handleDailySpending)
		})

		r.Get("/activity", s.handleListActivity)
	})

	return r
}

func (s *Server) actorFrom(r *http.Request) string {
	return actorFrom(r, s.actor)
}

func (s *Server) now() time.Time {
	return s.clock.Now()
}

// Shutdown stops the limiter and drains the HTTP server. Safe to call more
// than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			ErrorResponse(http.StatusServiceUnavailable, "database unavailable").Write(w)
			return
		}
	}
	writeJSON(w, map[string]string{"status": "ready"})
}
