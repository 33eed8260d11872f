package observability

import (
	"context"

	"github.com/kbukum/pubqueue/component"
)

// HealthStatus is the rolled-up state reported for a service or component.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusDown     HealthStatus = "down"
)

// severity orders statuses so the worst one wins.
var severity = map[HealthStatus]int{
	HealthStatusUp:       0,
	HealthStatusDegraded: 1,
	HealthStatusDown:     2,
}

// Health is one component's entry in a ServiceHealth.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// ServiceHealth is the health of a service: the worst of its components.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// NewServiceHealth starts out up with no components.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{Service: service, Status: HealthStatusUp, Version: version}
}

// AddComponent records ch and lowers the service status if ch is worse.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)
	if severity[ch.Status] > severity[sh.Status] {
		sh.Status = ch.Status
	}
}

// AddRegistry records every component of reg.
func (sh *ServiceHealth) AddRegistry(ctx context.Context, reg *component.Registry) {
	for _, h := range reg.HealthAll(ctx) {
		sh.AddComponent(FromComponent(h))
	}
}

// FromComponent maps a component report; unknown statuses count as down.
func FromComponent(h component.Health) Health {
	status := HealthStatusDown
	switch h.Status {
	case component.StatusHealthy:
		status = HealthStatusUp
	case component.StatusDegraded:
		status = HealthStatusDegraded
	}
	return Health{Name: h.Name, Status: status, Message: h.Message}
}
