package health

import (
	"context"
	"fmt"
	"time"
)

// StateStoreCheck creates a health check probing the session state store.
// Any store backend works; backends with a cheap Ping (postgres) should be
// wired through PingCheck instead.
func StateStoreCheck(listFunc func(ctx context.Context) ([]string, error)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "state_store",
			Details: make(map[string]any),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		sessions, err := listFunc(ctx)
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}

		check.Details["sessions"] = len(sessions)
		check.Status = StatusHealthy
		check.Message = "Store reachable"
		return check
	}
}

// PingCheck creates a health check for backends with native connectivity
// probes.
func PingCheck(name string, pingFunc func(ctx context.Context) error) CheckFunc {
	return func() Check {
		check := Check{Name: name}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := pingFunc(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Connected"
		}
		return check
	}
}

// EngineCheck creates a health check that runs a tiny layout frame end to
// end, proving the pipeline can still produce output and watching its
// latency.
func EngineCheck(computeFunc func() (time.Duration, error)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "engine",
			Details: make(map[string]any),
		}

		elapsed, err := computeFunc()
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}

		check.Details["probe_ms"] = elapsed.Milliseconds()
		if elapsed > time.Second {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("Probe frame slow: %v", elapsed)
		} else {
			check.Status = StatusHealthy
			check.Message = "Pipeline responsive"
		}
		return check
	}
}

// BroadcastCheck creates a health check reporting the frame broadcast fan-out.
func BroadcastCheck(getState func() (subscribers int, lastError error)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "broadcast",
			Details: make(map[string]any),
		}

		subscribers, lastErr := getState()
		check.Details["subscribers"] = subscribers

		if lastErr != nil {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("Last publish failed: %v", lastErr)
		} else {
			check.Status = StatusHealthy
			check.Message = "Broadcast healthy"
		}
		return check
	}
}

// MemoryCheck creates a liveness probe on heap pressure. Degrades past 90%
// of system-reserved memory; never reports unhealthy, since a busy layout
// burst is not a reason to restart the process.
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()
		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		if sys > 0 && float64(alloc)/float64(sys) > 0.9 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}
		return check
	}
}
