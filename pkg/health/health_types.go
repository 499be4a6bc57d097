package health

import (
	"sync"
	"time"
)

// Status is a component's reported condition. Degraded means serving but
// impaired; unhealthy means not serving.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// rank orders statuses so the worst one wins during aggregation.
func (s Status) rank() int {
	switch s {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	}
	return 0
}

// Check is a single probe result.
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration_ms"`
}

// CheckFunc runs one probe. It must be safe for concurrent use; the checker
// calls it on every scrape of the endpoint it is registered under.
type CheckFunc func() Check

// probe kinds: which endpoints a registered check participates in.
type probeKind uint8

const (
	kindHealth probeKind = 1 << iota
	kindReadiness
	kindLiveness
)

type probe struct {
	name string
	fn   CheckFunc
	kind probeKind
}

// HealthChecker runs registered probes and aggregates their results.
type HealthChecker struct {
	mu      sync.RWMutex
	probes  []probe
	started time.Time
}

// Response is the aggregate report served on the health endpoints.
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Uptime    time.Duration    `json:"uptime_seconds"`
}
