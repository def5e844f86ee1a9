package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func healthy() Check   { return Check{Status: StatusHealthy} }
func degraded() Check  { return Check{Status: StatusDegraded} }
func unhealthy() Check { return Check{Status: StatusUnhealthy} }

func TestNewHealthChecker(t *testing.T) {
	hc := NewHealthChecker()

	if resp := hc.Check(); resp.Status != StatusHealthy {
		t.Errorf("Empty checker status = %s, want healthy", resp.Status)
	}
}

func TestCheck_IncludesEveryGroup(t *testing.T) {
	hc := NewHealthChecker()
	hc.Register("general", healthy)
	hc.Register("ready", healthy, Readiness)
	hc.Register("live", healthy, Liveness)
	hc.Register("both", healthy, Readiness, Liveness)

	resp := hc.Check()
	for _, name := range []string{"general", "ready", "live", "both"} {
		if _, ok := resp.Checks[name]; !ok {
			t.Errorf("Check %q missing from full report", name)
		}
	}

	if n := len(hc.CheckReadiness().Checks); n != 2 {
		t.Errorf("Readiness ran %d checks, want 2", n)
	}
	if n := len(hc.CheckLiveness().Checks); n != 2 {
		t.Errorf("Liveness ran %d checks, want 2", n)
	}
}

func TestCheck_WorstStatusWins(t *testing.T) {
	tests := []struct {
		name   string
		checks []CheckFunc
		want   Status
	}{
		{"all healthy", []CheckFunc{healthy, healthy}, StatusHealthy},
		{"one degraded", []CheckFunc{healthy, degraded}, StatusDegraded},
		{"unhealthy beats degraded", []CheckFunc{degraded, unhealthy, healthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			for i, fn := range tt.checks {
				hc.Register(string(rune('a'+i)), fn)
			}
			if got := hc.Check().Status; got != tt.want {
				t.Errorf("Status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRegister_ReplacesByName(t *testing.T) {
	hc := NewHealthChecker()
	hc.Register("cluster", unhealthy, Readiness)
	hc.Register("cluster", healthy)

	if got := hc.Check().Status; got != StatusHealthy {
		t.Errorf("Status = %s, want replaced check to win", got)
	}
	if n := len(hc.CheckReadiness().Checks); n != 0 {
		t.Errorf("Readiness ran %d checks, want 0 after re-registering without probes", n)
	}
}

func TestCheck_FillsNameAndTiming(t *testing.T) {
	hc := NewHealthChecker()
	hc.Register("store", healthy)

	check := hc.Check().Checks["store"]
	if check.Name != "store" {
		t.Errorf("Name = %q, want store", check.Name)
	}
	if check.LastChecked.IsZero() {
		t.Error("LastChecked not set")
	}
}

func TestClusterCheck(t *testing.T) {
	tests := []struct {
		name        string
		ready       bool
		needingSync int
		want        Status
	}{
		{"undefined", false, 0, StatusUnhealthy},
		{"defined", true, 0, StatusHealthy},
		{"peers behind", true, 2, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := ClusterCheck(func() (bool, int, int) { return tt.ready, 3, tt.needingSync })()
			if check.Status != tt.want {
				t.Errorf("Status = %s, want %s", check.Status, tt.want)
			}
		})
	}

	check := ClusterCheck(func() (bool, int, int) { return false, 0, 0 })()
	if check.Message != "Cluster is not defined" {
		t.Errorf("Message = %q", check.Message)
	}
}

func TestReplicationCheck(t *testing.T) {
	tests := []struct {
		name    string
		running bool
		pending int
		want    Status
	}{
		{"idle", true, 0, StatusHealthy},
		{"below threshold", true, 9, StatusHealthy},
		{"at threshold", true, 10, StatusDegraded},
		{"stopped", false, 0, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := ReplicationCheck(func() (bool, int) { return tt.running, tt.pending }, 10)()
			if check.Status != tt.want {
				t.Errorf("Status = %s, want %s", check.Status, tt.want)
			}
			if check.Details["pending_batches"] != tt.pending {
				t.Errorf("pending_batches = %v, want %d", check.Details["pending_batches"], tt.pending)
			}
		})
	}
}

func TestStoreCheck(t *testing.T) {
	check := StoreCheck(func() (int, int) { return 5, 2 })()

	if check.Status != StatusHealthy {
		t.Errorf("Status = %s, want healthy", check.Status)
	}
	if check.Details["words"] != 5 || check.Details["groups"] != 2 {
		t.Errorf("Details = %v", check.Details)
	}
}

func TestHandlers(t *testing.T) {
	tests := []struct {
		name    string
		handler func(*HealthChecker) http.HandlerFunc
		check   CheckFunc
		want    int
	}{
		{"health degraded is ok", (*HealthChecker).HTTPHandler, degraded, http.StatusOK},
		{"health unhealthy", (*HealthChecker).HTTPHandler, unhealthy, http.StatusServiceUnavailable},
		{"ready healthy", (*HealthChecker).ReadinessHandler, healthy, http.StatusOK},
		{"ready degraded", (*HealthChecker).ReadinessHandler, degraded, http.StatusServiceUnavailable},
		{"live healthy", (*HealthChecker).LivenessHandler, healthy, http.StatusOK},
		{"live unhealthy", (*HealthChecker).LivenessHandler, unhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			hc.Register("c", tt.check, Readiness, Liveness)

			rec := httptest.NewRecorder()
			tt.handler(hc)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.want {
				t.Errorf("Code = %d, want %d", rec.Code, tt.want)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var resp Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if _, ok := resp.Checks["c"]; !ok {
				t.Error("Check missing from body")
			}
		})
	}
}
