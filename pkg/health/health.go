// Package health reports whether a node is alive, ready for synonym traffic
// and healthy overall.
package health

import (
	"time"
)

// NewHealthChecker returns a checker with no checks; it reports healthy.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{startedAt: time.Now()}
}

// Register adds a check under name, replacing any earlier check with the
// same name in place. With no probes the check only affects /health.
func (hc *HealthChecker) Register(name string, fn CheckFunc, probes ...Probe) {
	var mask Probe
	for _, p := range probes {
		mask |= p
	}

	hc.mu.Lock()
	defer hc.mu.Unlock()
	for i := range hc.checks {
		if hc.checks[i].name == name {
			hc.checks[i] = registration{name: name, fn: fn, probes: mask}
			return
		}
	}
	hc.checks = append(hc.checks, registration{name: name, fn: fn, probes: mask})
}

// Check runs every registered check.
func (hc *HealthChecker) Check() Response {
	return hc.run(0)
}

// CheckReadiness runs the checks registered for Readiness.
func (hc *HealthChecker) CheckReadiness() Response {
	return hc.run(Readiness)
}

// CheckLiveness runs the checks registered for Liveness.
func (hc *HealthChecker) CheckLiveness() Response {
	return hc.run(Liveness)
}

// run evaluates the checks whose probes include want (all of them when want
// is zero). The probe status is the most severe check status.
func (hc *HealthChecker) run(want Probe) Response {
	hc.mu.RLock()
	selected := make([]registration, 0, len(hc.checks))
	for _, r := range hc.checks {
		if want == 0 || r.probes&want != 0 {
			selected = append(selected, r)
		}
	}
	hc.mu.RUnlock()

	resp := Response{
		Status:        StatusHealthy,
		Timestamp:     time.Now(),
		Checks:        make(map[string]Check, len(selected)),
		UptimeSeconds: time.Since(hc.startedAt).Seconds(),
	}

	for _, r := range selected {
		start := time.Now()
		c := r.fn()
		c.DurationMS = float64(time.Since(start).Microseconds()) / 1000
		c.LastChecked = start
		if c.Name == "" {
			c.Name = r.name
		}
		resp.Checks[r.name] = c

		if c.Status.severity() > resp.Status.severity() {
			resp.Status = c.Status
		}
	}
	return resp
}
