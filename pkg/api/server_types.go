package api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/graphlapse/graphlapse/pkg/api/middleware"
	"github.com/graphlapse/graphlapse/pkg/auth"
	"github.com/graphlapse/graphlapse/pkg/engine"
	"github.com/graphlapse/graphlapse/pkg/health"
	"github.com/graphlapse/graphlapse/pkg/logging"
	"github.com/graphlapse/graphlapse/pkg/metrics"
	"github.com/graphlapse/graphlapse/pkg/statestore"
	"github.com/graphlapse/graphlapse/pkg/stream"
)

var (
	errPositiveBody = errors.New("must be positive")
	errShortSecret  = errors.New("must be at least 32 characters when auth is enabled")
)

// Deps bundles the components the server exposes over HTTP. Logger, Metrics,
// Health, Publisher, JWT and Users may be nil; the corresponding surface is
// then disabled or silent.
type Deps struct {
	Engine    *engine.Engine
	Store     statestore.Store
	Broker    *stream.Broker
	Publisher *stream.NNGPublisher
	Metrics   *metrics.Registry
	Health    *health.HealthChecker
	Logger    logging.Logger
	JWT       *auth.JWTManager
	Users     *auth.UserStore
}

// Server is the layout service's HTTP surface.
type Server struct {
	config    *Config
	engine    *engine.Engine
	store     statestore.Store
	broker    *stream.Broker
	publisher *stream.NNGPublisher
	metrics   *metrics.Registry
	health    *health.HealthChecker
	logger    logging.Logger
	jwt       *auth.JWTManager
	users     *auth.UserStore

	startTime time.Time
	handler   http.Handler
	limiter   *middleware.RateLimiter // nil when rate limiting is off

	mu        sync.Mutex
	frameSeqs map[string]int64 // per-session frame counters

	// sessionLocks serializes the load-compute-save span per session, so
	// concurrent frame posts cannot fork a snapshot lineage.
	sessionLocks sync.Map // sessionID -> *sync.Mutex
}

// sessionInfo is one row of the session listing.
type sessionInfo struct {
	SessionID string `json:"sessionId"`
	Frames    int64  `json:"frames"`
}

type createSessionRequest struct {
	SessionID string `json:"sessionId,omitempty"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
}

type listSessionsResponse struct {
	Sessions []sessionInfo `json:"sessions"`
}

type strategiesResponse struct {
	Strategies []string `json:"strategies"`
	Default    string   `json:"default"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Role         string    `json:"role"`
}

type errorResponse struct {
	Error string `json:"error"`
}
