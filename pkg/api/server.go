package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/graphlapse/graphlapse/pkg/api/middleware"
	"github.com/graphlapse/graphlapse/pkg/auth"
	"github.com/graphlapse/graphlapse/pkg/health"
	"github.com/graphlapse/graphlapse/pkg/logging"
)

// NewServer assembles the HTTP surface from its dependencies. The config is
// assumed validated; pass nil to use defaults.
func NewServer(config *Config, deps Deps) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	s := &Server{
		config:    config,
		engine:    deps.Engine,
		store:     deps.Store,
		broker:    deps.Broker,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		health:    deps.Health,
		logger:    logger,
		jwt:       deps.JWT,
		users:     deps.Users,
		startTime: time.Now(),
		frameSeqs: make(map[string]int64),
	}
	s.handler = s.buildHandler()
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close stops the server's background workers. Safe to call more than once.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// protect wraps a handler with role-based auth when auth is configured.
func (s *Server) protect(minRole string, h http.HandlerFunc) http.Handler {
	if !s.config.AuthEnabled {
		return h
	}
	return auth.RequireAuth(s.jwt, minRole)(h)
}

func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()

	// Layout computation.
	mux.Handle("POST /v1/layout", s.protect(auth.RoleOperator, s.handleComputeLayout))
	mux.Handle("GET /v1/strategies", s.protect(auth.RoleViewer, s.handleStrategies))

	// Session lifecycle.
	mux.Handle("POST /v1/sessions", s.protect(auth.RoleOperator, s.handleCreateSession))
	mux.Handle("GET /v1/sessions", s.protect(auth.RoleViewer, s.handleListSessions))
	mux.Handle("GET /v1/sessions/{id}", s.protect(auth.RoleViewer, s.handleGetSession))
	mux.Handle("DELETE /v1/sessions/{id}", s.protect(auth.RoleOperator, s.handleDeleteSession))
	mux.Handle("POST /v1/sessions/{id}/frames", s.protect(auth.RoleOperator, s.handleSessionFrame))

	// Authentication.
	if s.config.AuthEnabled {
		mux.HandleFunc("POST /v1/auth/login", s.handleLogin)
		mux.HandleFunc("POST /v1/auth/refresh", s.handleRefresh)
	}

	// Operational endpoints stay unauthenticated.
	if s.health != nil {
		mux.HandleFunc("GET /health", s.health.HTTPHandler())
		mux.HandleFunc("GET /ready", s.health.ReadinessHandler())
		mux.HandleFunc("GET /live", s.health.LivenessHandler())
	}
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(
			s.metrics.GetPrometheusRegistry(),
			promhttp.HandlerOpts{},
		))
	}

	if s.config.RequestsPerSecond > 0 {
		s.limiter = middleware.NewRateLimiter(&middleware.RateLimitConfig{
			RequestsPerSecond: s.config.RequestsPerSecond,
			BurstSize:         s.config.BurstSize,
			CleanupInterval:   5 * time.Minute,
			ClientExpiration:  10 * time.Minute,
			MaxClients:        10000,
		})
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = s.config.AllowedOrigins

	return middleware.Chain(mux,
		middleware.PanicRecovery(s.logger),
		middleware.RequestID(),
		middleware.SecurityHeaders(s.config.TLSEnabled),
		middleware.CORS(corsConfig),
		middleware.Logging(s.logger),
		s.metricsMiddleware(),
		middleware.RateLimit(s.limiter),
		middleware.BodySizeLimit(s.config.MaxBodyBytes),
	)
}

func (s *Server) metricsMiddleware() middleware.Middleware {
	if s.metrics == nil {
		return nil
	}
	return middleware.Metrics(s.metrics)
}

// RegisterHealthChecks wires the server's dependencies into the health
// checker: state store reachability as readiness, a small engine probe and
// broadcast state as regular checks.
func (s *Server) RegisterHealthChecks() {
	if s.health == nil {
		return
	}
	if s.store != nil {
		s.health.RegisterReadinessCheck("statestore", health.StateStoreCheck(s.store.List))
	}
	if s.engine != nil {
		s.health.RegisterCheck("engine", health.EngineCheck(s.engineProbe))
	}
	if s.broker != nil {
		s.health.RegisterCheck("broadcast", health.BroadcastCheck(func() (int, error) {
			return s.broker.TotalSubscribers(), nil
		}))
	}
}
