package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// CheckResult is the outcome of one probe.
type CheckResult struct {
	Status     HealthStatus `json:"status" yaml:"status"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMs int64        `json:"duration_ms" yaml:"duration_ms"`
}

// HealthReport aggregates every registered probe.
type HealthReport struct {
	Status    HealthStatus           `json:"status" yaml:"status"`
	Timestamp time.Time              `json:"timestamp" yaml:"timestamp"`
	Checks    map[string]CheckResult `json:"checks" yaml:"checks"`
}

type registeredCheck struct {
	check    HealthCheck
	critical bool
}

// HealthRegistry runs readiness probes. A failing critical probe makes the
// report unhealthy; a failing optional one only degrades it.
type HealthRegistry struct {
	mu     sync.RWMutex
	checks map[string]registeredCheck
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checks: make(map[string]registeredCheck)}
}

// Register adds a probe. The database is critical; cache and broker are not.
func (r *HealthRegistry) Register(name string, check HealthCheck, critical bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks[name] = registeredCheck{check: check, critical: critical}
}

// Names lists registered probes in order.
func (r *HealthRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs all probes concurrently.
func (r *HealthRegistry) Check(ctx context.Context) HealthReport {
	r.mu.RLock()
	checks := make(map[string]registeredCheck, len(r.checks))
	for name, c := range r.checks {
		checks[name] = c
	}
	r.mu.RUnlock()

	report := HealthReport{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckResult, len(checks)),
	}

	var mu sync.Mutex
	var g errgroup.Group
	for name, c := range checks {
		g.Go(func() error {
			start := time.Now()
			err := c.check(ctx)
			result := CheckResult{Status: HealthStatusHealthy, DurationMs: time.Since(start).Milliseconds()}
			if err != nil {
				result.Error = err.Error()
				result.Status = HealthStatusDegraded
				if c.critical {
					result.Status = HealthStatusUnhealthy
				}
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checks[name] = result
			report.Status = worse(report.Status, result.Status)
			return nil
		})
	}
	_ = g.Wait()

	return report
}

func worse(a, b HealthStatus) HealthStatus {
	rank := map[HealthStatus]int{HealthStatusHealthy: 0, HealthStatusDegraded: 1, HealthStatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// ReadinessHandler serves the report as JSON, 503 when unhealthy.
func (r *HealthRegistry) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		report := r.Check(req.Context())
		code := http.StatusOK
		if report.Status == HealthStatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(report)
	})
}

// LivenessHandler always answers 200 while the process serves requests.
func LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}
