package model

import "time"

// Seat is a single numbered seat on a trip.  Seats are created in
// bulk when a trip is created and their positions form a shuffled
// permutation of 1..seat_count.  The three boolean flags encode the
// reservation state machine: FREE (all false), HOLDING (is_booking),
// BOOKED (is_booked) and PAID (is_paid, terminal).
//
// Fields:
//  ID            – primary key identifier.
//  TripID        – trip to which this seat belongs.
//  Position      – seat number within the trip, unique per trip.
//  IsBooking     – a hold is in progress.
//  IsBooked      – the hold has been confirmed.
//  IsPaid        – payment has been finalized (terminal).
//  BookedBy      – user holding the seat (nullable).
//  PaidBy        – user who paid for the seat (nullable).
//  HoldExpiresAt – when the current hold lapses (nullable).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Seat struct {
	ID            uint64     `json:"id"`              // seats.id
	TripID        uint64     `json:"trip_id"`         // seats.trip_id
	Position      uint32     `json:"position"`        // seats.position
	IsBooking     bool       `json:"is_booking"`      // seats.is_booking
	IsBooked      bool       `json:"is_booked"`       // seats.is_booked
	IsPaid        bool       `json:"is_paid"`         // seats.is_paid
	BookedBy      *uint64    `json:"booked_by"`       // seats.booked_by (nullable)
	PaidBy        *uint64    `json:"paid_by"`         // seats.paid_by (nullable)
	HoldExpiresAt *time.Time `json:"hold_expires_at"` // seats.hold_expires_at (nullable)
	CreatedAt     time.Time  `json:"created_at"`      // seats.created_at
	UpdatedAt     time.Time  `json:"updated_at"`      // seats.updated_at
}
