// Package domain contains the core data types and pure rules of the fleet
// scheduling service. It has no dependencies on storage or transport and is
// imported by every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripState is the lifecycle state of a trip.
type TripState string

const (
	TripScheduled  TripState = "programado"
	TripInProgress TripState = "en_curso"
	TripCompleted  TripState = "completado"
)

// Valid reports whether s is one of the known trip states.
func (s TripState) Valid() bool {
	switch s {
	case TripScheduled, TripInProgress, TripCompleted:
		return true
	}
	return false
}

// Trip is a single scheduled run of a bus on a route with a driver.
// Day is the calendar day of Date in the service time zone; it is what the
// one-trip-per-driver-per-day rule is keyed on.
type Trip struct {
	ID        uuid.UUID
	Date      time.Time
	Day       time.Time
	RouteID   string
	BusID     string
	DriverID  string
	State     TripState
	TenantID  string
	CreatedAt time.Time
}
