package health

import (
	"sync"
	"time"
)

// Status is the outcome of one check or of a whole probe.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Probe selects which endpoints a check answers for. Every check is part of
// the overall report; probes add it to /health/ready or /health/live.
type Probe uint8

const (
	Readiness Probe = 1 << iota
	Liveness
)

// Check is the result of one named check.
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	DurationMS  float64        `json:"duration_ms"`
}

// CheckFunc computes a Check. It must not block.
type CheckFunc func() Check

type registration struct {
	name   string
	fn     CheckFunc
	probes Probe
}

// HealthChecker holds the node's checks in registration order.
type HealthChecker struct {
	mu        sync.RWMutex
	checks    []registration
	startedAt time.Time
}

// Response is the body of every health endpoint.
type Response struct {
	Status        Status           `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	Checks        map[string]Check `json:"checks"`
	UptimeSeconds float64          `json:"uptime_seconds"`
}
