package model

import "time"

// Booking is the durable record produced by the booking finalizer
// once a seat has been paid for.  A seat can have at most one
// booking, ever (unique index on seat_id), and a booking is never
// updated after creation.
//
// Fields:
//  ID               – primary key identifier.
//  Code             – unique human-readable booking code.
//  UserID           – user who paid for the seat.
//  SeatID           – seat covered by this booking (unique).
//  TripID           – trip the seat belongs to.
//  Position         – seat position, denormalized for receipts.
//  AmountMinor      – this seat's share of the payment, minor units.
//  PaymentReference – gateway reference that produced this booking.
//  CreatedAt        – creation timestamp.
type Booking struct {
	ID               uint64    `json:"id"`                // bookings.id
	Code             string    `json:"code"`              // bookings.code
	UserID           uint64    `json:"user_id"`           // bookings.user_id
	SeatID           uint64    `json:"seat_id"`           // bookings.seat_id
	TripID           uint64    `json:"trip_id"`           // bookings.trip_id
	Position         uint32    `json:"position"`          // bookings.position
	AmountMinor      int64     `json:"amount_minor"`      // bookings.amount_minor
	PaymentReference string    `json:"payment_reference"` // bookings.payment_reference
	CreatedAt        time.Time `json:"created_at"`        // bookings.created_at
}
