package bootstrap

import (
	"context"
	"time"

	"github.com/kbukum/pubqueue/component"
	"github.com/kbukum/pubqueue/logger"
)

// ComponentStatus is one line of the startup summary.
type ComponentStatus struct {
	Name    string
	Status  string
	Message string
	Healthy bool
}

// Summary records what an application started.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	components      []ComponentStatus
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackComponent adds a component outside the registry.
func (s *Summary) TrackComponent(name, status string, healthy bool) {
	s.components = append(s.components, ComponentStatus{Name: name, Status: status, Healthy: healthy})
}

// Collect adds the live health of every registered component.
func (s *Summary) Collect(ctx context.Context, registry *component.Registry) {
	if registry == nil {
		return
	}
	for _, h := range registry.HealthAll(ctx) {
		s.components = append(s.components, ComponentStatus{
			Name:    h.Name,
			Status:  string(h.Status),
			Message: h.Message,
			Healthy: h.Status == component.StatusHealthy,
		})
	}
}

// Healthy returns the number of healthy components and the total.
func (s *Summary) Healthy() (healthy, total int) {
	for _, c := range s.components {
		if c.Healthy {
			healthy++
		}
	}
	return healthy, len(s.components)
}

// Components returns the tracked components.
func (s *Summary) Components() []ComponentStatus {
	return s.components
}

// Log writes the summary: one line for the application, one per component.
func (s *Summary) Log(log *logger.Logger) {
	healthy, total := s.Healthy()
	log.Info("application started", logger.Fields(
		"service", s.serviceName,
		"version", s.version,
		logger.FieldDuration, s.startupDuration.Milliseconds(),
		"components", total,
		"healthy", healthy,
	))
	for _, c := range s.components {
		fields := logger.Fields(logger.FieldComponent, c.Name, logger.FieldState, c.Status)
		if c.Message != "" {
			fields["message"] = c.Message
		}
		if c.Healthy {
			log.Info("component ready", fields)
		} else {
			log.Warn("component not healthy", fields)
		}
	}
}
