// Package model contains core data types for the project.
package model

import "time"

// ConnectionStatus defines the health of the status endpoint: online or offline.
type ConnectionStatus string

const (
	Online  ConnectionStatus = "online"  // Online means the last poll returned a status payload.
	Offline ConnectionStatus = "offline" // Offline means the last poll failed at the transport level.
)

// FallbackStatus is the minimal stub_status text substituted when the upstream is unreachable.
// It tokenizes into ten fields with a zero requests counter.
const FallbackStatus = "Active connections: 0 \nserver accepts handled requests\n 0 0 0"

// RpsPoint is one derived rate measurement.
type RpsPoint struct {
	Value     float64   `json:"value"`     // Requests per second, never negative.
	Timestamp time.Time `json:"timestamp"` // Moment the measurement was taken.
}

// StatusFailure is the structured payload returned instead of status text when the upstream fails.
type StatusFailure struct {
	Error            string           `json:"error"`
	ConnectionStatus ConnectionStatus `json:"connectionStatus"`
	FallbackData     string           `json:"fallbackData"`
}

// LatencySummary describes poll round-trip times observed during the session.
type LatencySummary struct {
	Count int64         `json:"count"`
	P50   time.Duration `json:"p50"`
	P90   time.Duration `json:"p90"`
	P99   time.Duration `json:"p99"`
	Max   time.Duration `json:"max"`
}

// Snapshot is a read-only view of the dashboard state.
type Snapshot struct {
	Current     float64          `json:"current"`   // Latest instantaneous RPS.
	Average     float64          `json:"average"`   // Mean over the stats window, one decimal.
	Max         float64          `json:"max"`       // Maximum over the stats window.
	Status      ConnectionStatus `json:"status"`    // Connection health.
	State       string           `json:"state"`     // bootstrapping or tracking.
	Intensity   float64          `json:"intensity"` // Glow level in [0.5, 1].
	Points      []RpsPoint       `json:"points"`    // Display buffer, oldest first.
	LastPointAt time.Time        `json:"last_point_at,omitempty"`
	Latency     LatencySummary   `json:"latency"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Clone returns a copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	c := s
	if s.Points != nil {
		c.Points = make([]RpsPoint, len(s.Points))
		copy(c.Points, s.Points)
	}
	return c
}
