package response_models

import (
	"time"

	"travelplan/internal/models/itinerary_models"
)

type PlanStatus string

const (
	PlanStatusIdle    PlanStatus = "idle"
	PlanStatusLoading PlanStatus = "loading"
	PlanStatusReady   PlanStatus = "ready"
	PlanStatusFailed  PlanStatus = "failed"
)

// PlanState is what the view layer renders for one trip.
type PlanState struct {
	TripID       string                         `json:"trip_id"`
	DisplayName  string                         `json:"display_name"`
	Status       PlanStatus                     `json:"status"`
	Token        uint64                         `json:"token"`
	Itinerary    *itinerary_models.Itinerary    `json:"itinerary,omitempty"`
	MapLocations []itinerary_models.MapLocation `json:"map_locations,omitempty"`
	ErrorMessage string                         `json:"error_message,omitempty"`
	UpdatedAt    time.Time                      `json:"updated_at"`
}

type RetrievalStarted struct {
	TripID string     `json:"trip_id"`
	Token  uint64     `json:"token"`
	Status PlanStatus `json:"status"`
}

// PlanSnapshot is the last ready itinerary saved for a trip.
type PlanSnapshot struct {
	TripID    string                     `json:"trip_id"`
	Token     uint64                     `json:"token"`
	Itinerary itinerary_models.Itinerary `json:"itinerary"`
	SavedAt   time.Time                  `json:"saved_at"`
}
