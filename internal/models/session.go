package models

import "time"

// TrackingStatus of a vehicle session. Transitions only go active → stopped.
type TrackingStatus string

const (
	TrackingUnknown TrackingStatus = "unknown"
	TrackingActive  TrackingStatus = "active"
	TrackingStopped TrackingStatus = "stopped"
)

// HandshakeState of the stop-tracking confirmation.
type HandshakeState string

const (
	HandshakePending     HandshakeState = "pending"
	HandshakeAuthorizing HandshakeState = "authorizing"
	HandshakeStopped     HandshakeState = "stopped"
)

// Location is a WGS84 position reported by a field device.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionInfo is a read-only snapshot of a vehicle tracking session. The
// token is deliberately not part of it.
type SessionInfo struct {
	VehicleID    string         `json:"vehicle_id"`
	Status       TrackingStatus `json:"status"`
	Handshake    HandshakeState `json:"handshake"`
	OwnerContact string         `json:"owner_contact,omitempty"`
	Location     *Location      `json:"location,omitempty"`
	Subscribers  int            `json:"subscribers"`
	CreatedAt    time.Time      `json:"created_at"`
	StoppedAt    *time.Time     `json:"stopped_at,omitempty"`
}
