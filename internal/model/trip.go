package model

import "time"

// Trip statuses.  A trip moves from scheduled through ongoing to
// completed, or is cancelled outright.
const (
	TripStatusScheduled = "scheduled"
	TripStatusOngoing   = "ongoing"
	TripStatusCompleted = "completed"
	TripStatusCancelled = "cancelled"
)

// Trip is a scheduled bus journey.  It owns a fixed set of seats
// created together with the trip; seats.length always equals
// SeatCount at creation time and changes only through explicit
// seat-count adjustment.
//
// Fields:
//  ID             – primary key identifier.
//  Code           – human-readable trip code (TRIP-YYYYMMDDHHMMSS-XXXX).
//  Name           – display name of the trip.
//  Bus            – bus identifier or plate.
//  Status         – scheduled, ongoing, completed or cancelled.
//  PickupCity     – departure city.
//  PickupLocation – departure terminal within the city.
//  DropoffCity    – destination city.
//  DropoffLocation– destination terminal.
//  TakeoffDate    – departure date.
//  TakeoffTime    – departure time, e.g. "08:30 AM".
//  SeatCount      – number of seats generated for this trip.
//  PriceMinor     – per-seat price in currency minor units.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Trip struct {
	ID              uint64    `json:"id"`               // trips.id
	Code            string    `json:"code"`             // trips.code
	Name            string    `json:"name"`             // trips.name
	Bus             string    `json:"bus"`              // trips.bus
	Status          string    `json:"status"`           // trips.status
	PickupCity      string    `json:"pickup_city"`      // trips.pickup_city
	PickupLocation  string    `json:"pickup_location"`  // trips.pickup_location
	DropoffCity     string    `json:"dropoff_city"`     // trips.dropoff_city
	DropoffLocation string    `json:"dropoff_location"` // trips.dropoff_location
	TakeoffDate     time.Time `json:"takeoff_date"`     // trips.takeoff_date
	TakeoffTime     string    `json:"takeoff_time"`     // trips.takeoff_time
	SeatCount       uint32    `json:"seat_count"`       // trips.seat_count
	PriceMinor      int64     `json:"price_minor"`      // trips.price_minor
	CreatedAt       time.Time `json:"created_at"`       // trips.created_at
	UpdatedAt       time.Time `json:"updated_at"`       // trips.updated_at
}
