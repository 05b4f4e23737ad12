package models

import "time"

// Approach directions a claim can request a green phase for.
const (
	DirectionNorth = "North"
	DirectionSouth = "South"
	DirectionEast  = "East"
	DirectionWest  = "West"
)

// EmergencyClaim is a vehicle's preemption request at one signal location.
type EmergencyClaim struct {
	ID             string    `json:"id,omitempty"`
	SignalLocation string    `json:"signalLocation"`
	Direction      string    `json:"direction,omitempty"`
	VehicleNumber  string    `json:"vehicleNumber,omitempty"`
	Active         bool      `json:"active"`
	ClaimedAt      time.Time `json:"claimedAt,omitempty"`
}

// InactiveClaim is what a query returns for a location with no claim.
func InactiveClaim(location string) EmergencyClaim {
	return EmergencyClaim{SignalLocation: location, Active: false}
}
