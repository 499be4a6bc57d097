package health

import (
	"encoding/json"
	"net/http"
)

func serveReport(w http.ResponseWriter, report Response, degradedOK bool) {
	code := http.StatusOK
	switch report.Status {
	case StatusUnhealthy:
		code = http.StatusServiceUnavailable
	case StatusDegraded:
		if !degradedOK {
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(report)
}

// HTTPHandler serves the full health report. Degraded still answers 200;
// operators read the body, orchestrators only act on ready/live.
func (hc *HealthChecker) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveReport(w, hc.Check(), true)
	}
}

// ReadinessHandler answers 200 only when every readiness probe is healthy.
func (hc *HealthChecker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveReport(w, hc.CheckReadiness(), false)
	}
}

// LivenessHandler answers 200 only when every liveness probe is healthy.
func (hc *HealthChecker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveReport(w, hc.CheckLiveness(), false)
	}
}
