package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// HealthState is the coarse health of a pipeline dependency (graph database,
// LLM provider, extraction ledger).
type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateDegraded  HealthState = "degraded"
	HealthStateUnhealthy HealthState = "unhealthy"
)

func (s HealthState) String() string {
	return string(s)
}

// IsValid checks if the HealthState is a known value.
func (s HealthState) IsValid() bool {
	switch s {
	case HealthStateHealthy, HealthStateDegraded, HealthStateUnhealthy:
		return true
	default:
		return false
	}
}

// rank orders states from best to worst.
func (s HealthState) rank() int {
	switch s {
	case HealthStateHealthy:
		return 0
	case HealthStateDegraded:
		return 1
	default:
		return 2
	}
}

// UnmarshalJSON rejects unknown states.
func (s *HealthState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	state := HealthState(str)
	if !state.IsValid() {
		return fmt.Errorf("invalid health state: %s", str)
	}

	*s = state
	return nil
}

// HealthStatus is the result of a single health probe.
type HealthStatus struct {
	Component string        `json:"component,omitempty"`
	State     HealthState   `json:"state"`
	Message   string        `json:"message,omitempty"`
	Latency   time.Duration `json:"latency_ns,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

// NewHealthStatus creates a HealthStatus stamped with the current time.
func NewHealthStatus(state HealthState, message string) HealthStatus {
	return HealthStatus{
		State:     state,
		Message:   message,
		CheckedAt: time.Now(),
	}
}

func Healthy(message string) HealthStatus {
	return NewHealthStatus(HealthStateHealthy, message)
}

func Degraded(message string) HealthStatus {
	return NewHealthStatus(HealthStateDegraded, message)
}

func Unhealthy(message string) HealthStatus {
	return NewHealthStatus(HealthStateUnhealthy, message)
}

// For returns a copy of the status attributed to component.
func (h HealthStatus) For(component string) HealthStatus {
	h.Component = component
	return h
}

func (h HealthStatus) IsHealthy() bool {
	return h.State == HealthStateHealthy
}

func (h HealthStatus) IsDegraded() bool {
	return h.State == HealthStateDegraded
}

func (h HealthStatus) IsUnhealthy() bool {
	return h.State == HealthStateUnhealthy
}

// Worst returns the least healthy state among statuses. An empty input is
// healthy.
func Worst(statuses ...HealthStatus) HealthState {
	worst := HealthStateHealthy
	for _, s := range statuses {
		if s.State.rank() > worst.rank() {
			worst = s.State
		}
	}
	return worst
}
