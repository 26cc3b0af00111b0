// health.go - Component health checks for the ops endpoint.
package main

import (
	"sync"
	"time"
)

// HealthStatus is a component's reported state.
type HealthStatus string

const (
	Healthy   HealthStatus = "healthy"
	Unhealthy HealthStatus = "unhealthy"
)

// ComponentHealth is the latest check result for one component.
type ComponentHealth struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message"`
	LastCheck time.Time    `json:"last_check"`
}

// SystemHealth aggregates all components.
type SystemHealth struct {
	OverallStatus HealthStatus      `json:"overall_status"`
	Timestamp     time.Time         `json:"timestamp"`
	Components    []ComponentHealth `json:"components"`
	Uptime        time.Duration     `json:"uptime"`
	Version       string            `json:"version"`
}

// HealthChecker runs registered component checks on demand.
type HealthChecker struct {
	mu        sync.Mutex
	checkers  map[string]func() error
	startTime time.Time
	version   string
}

// NewHealthChecker creates an empty checker.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		checkers:  make(map[string]func() error),
		startTime: time.Now(),
		version:   version,
	}
}

// RegisterComponent adds a named check.
func (hc *HealthChecker) RegisterComponent(name string, checker func() error) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checkers[name] = checker
}

// CheckHealth runs every check and aggregates the result.
func (hc *HealthChecker) CheckHealth() *SystemHealth {
	hc.mu.Lock()
	defer hc.mu.Unlock()

	overall := Healthy
	components := make([]ComponentHealth, 0, len(hc.checkers))
	for name, checker := range hc.checkers {
		c := ComponentHealth{Name: name, Status: Healthy, Message: "OK", LastCheck: time.Now()}
		if err := checker(); err != nil {
			c.Status = Unhealthy
			c.Message = err.Error()
			overall = Unhealthy
		}
		components = append(components, c)
	}

	return &SystemHealth{
		OverallStatus: overall,
		Timestamp:     time.Now(),
		Components:    components,
		Uptime:        time.Since(hc.startTime),
		Version:       hc.version,
	}
}
