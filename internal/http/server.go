package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"budget/internal/budget"
	"budget/internal/cache"
	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
)

// BudgetStore is the part of budget.Store the HTTP layer uses.
type BudgetStore interface {
	Snapshot() budget.Snapshot
	AddExpense(ctx context.Context, n core.NewExpense) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) (bool, error)
	UpdateIncome(ctx context.Context, income core.Money) error
	Reset(ctx context.Context) error
	Subscribe(o budget.Observer) (cancel func())
	Degraded() bool
}

// Config holds the server settings. Zero values fall back to defaults.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	ExportCacheTTL     time.Duration
	ExportCacheSize    int
	// DefaultLocale picks report labels when the request names none.
	DefaultLocale string
	// EventBuffer is the per-client queue length of the event stream.
	EventBuffer       int
	KeepAliveInterval time.Duration
	Logger            *applog.Logger
	Clock             func() time.Time
}

type Server struct {
	http.Server
	store         BudgetStore
	logger        *applog.Logger
	now           func() time.Time
	defaultLocale string
	keepAlive     time.Duration

	exports      *cache.LRUCache[[]byte]
	exportLoader *cache.Loader[[]byte]
	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	hub          *eventHub
	unsubscribe  func()

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware around store and subscribes the
// event stream to its notifications.
func NewServer(store BudgetStore, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = applog.New(applog.DefaultConfig())
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.ExportCacheTTL <= 0 {
		cfg.ExportCacheTTL = 5 * time.Minute
	}
	if cfg.ExportCacheSize <= 0 {
		cfg.ExportCacheSize = 32
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 16
	}
	if cfg.KeepAliveInterval <= 0 {
		cfg.KeepAliveInterval = 25 * time.Second
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = "en"
	}

	logger := cfg.Logger.WithComponent(applog.ComponentHTTP)
	exports := cache.NewLRUCache[[]byte](cfg.ExportCacheSize, cfg.ExportCacheTTL)
	s := &Server{
		store:         store,
		logger:        logger,
		now:           cfg.Clock,
		defaultLocale: cfg.DefaultLocale,
		keepAlive:     cfg.KeepAliveInterval,
		exports:       exports,
		exportLoader:  cache.NewLoader[[]byte](exports),
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		hub:           newEventHub(cfg.EventBuffer, logger),
	}
	s.unsubscribe = store.Subscribe(s.hub)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/budget", s.handleGetBudget)
	mux.HandleFunc("PUT /api/income", s.handleUpdateIncome)
	mux.HandleFunc("POST /api/expenses", s.handleAddExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("GET /api/export.xlsx", s.handleExport)
	mux.HandleFunc("GET /api/events", s.handleEvents)

	ips := security.NewClientIPResolver()
	s.tracer = trace.NewMiddleware(logger, ips.ClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(ips.ClientIP, s.onRateLimited,
		http.MethodPost, http.MethodPut, http.MethodDelete)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.tracer.Middleware(headers.Middleware(limit(mux))),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Cleaners returns the expiring structures a cache.Manager should sweep.
func (s *Server) Cleaners() []cache.Cleaner {
	return []cache.Cleaner{s.exports, s.limiter}
}

// Shutdown detaches from the store, ends open event streams and then
// shuts the HTTP server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.unsubscribe()
		s.hub.close()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe runs until Shutdown; http.ErrServerClosed is not an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	if err := s.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	persistence := "ok"
	if s.store.Degraded() {
		persistence = "memory-only"
	}
	NewResponse().JSON(map[string]string{"status": "ready", "persistence": persistence}).Write(w)
}
