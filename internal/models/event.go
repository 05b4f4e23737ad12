package models

import "time"

// Event types pushed to session and signal subscribers.
const (
	EventTrackingStopped = "stopped"
	EventLocation        = "location"
	EventSignalClaimed   = "claimed"
	EventSignalCleared   = "cleared"
)

// Event is one state-change notification.
type Event struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Subject string    `json:"subject"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
	At      time.Time `json:"at"`
}
