package health

import "time"

// NewHealthChecker creates an empty checker. Register probes before serving
// the endpoints; a checker with no probes reports healthy.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{started: time.Now()}
}

func (hc *HealthChecker) register(name string, fn CheckFunc, kind probeKind) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	for i := range hc.probes {
		if hc.probes[i].name == name {
			hc.probes[i].fn = fn
			hc.probes[i].kind |= kind
			return
		}
	}
	hc.probes = append(hc.probes, probe{name: name, fn: fn, kind: kind})
}

// RegisterCheck adds a probe to the general health report.
func (hc *HealthChecker) RegisterCheck(name string, fn CheckFunc) {
	hc.register(name, fn, kindHealth)
}

// RegisterReadinessCheck adds a probe gating readiness (load balancer
// admission). Keep these limited to hard dependencies.
func (hc *HealthChecker) RegisterReadinessCheck(name string, fn CheckFunc) {
	hc.register(name, fn, kindReadiness)
}

// RegisterLivenessCheck adds a probe gating liveness (restart decisions).
func (hc *HealthChecker) RegisterLivenessCheck(name string, fn CheckFunc) {
	hc.register(name, fn, kindLiveness)
}

// Check runs the general health probes.
func (hc *HealthChecker) Check() Response { return hc.run(kindHealth) }

// CheckReadiness runs the readiness probes.
func (hc *HealthChecker) CheckReadiness() Response { return hc.run(kindReadiness) }

// CheckLiveness runs the liveness probes.
func (hc *HealthChecker) CheckLiveness() Response { return hc.run(kindLiveness) }

func (hc *HealthChecker) run(kind probeKind) Response {
	hc.mu.RLock()
	selected := make([]probe, 0, len(hc.probes))
	for _, p := range hc.probes {
		if p.kind&kind != 0 {
			selected = append(selected, p)
		}
	}
	started := hc.started
	hc.mu.RUnlock()

	report := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(selected)),
		Uptime:    time.Since(started),
	}
	for _, p := range selected {
		begin := time.Now()
		check := p.fn()
		check.Duration = time.Since(begin)
		check.LastChecked = begin
		report.Checks[p.name] = check

		if check.Status.rank() > report.Status.rank() {
			report.Status = check.Status
		}
	}
	return report
}
