package model

import "time"

// Payment statuses.  A payment is created pending and settles
// exactly once to success or failed; replaying a settled payment is
// a no-op.
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// Payment tracks an external gateway transaction covering one or
// more seats on a trip.
//
// Fields:
//  ID               – primary key identifier.
//  Reference        – unique gateway reference.
//  Email            – payer email.
//  AmountMinor      – total charged amount in minor units.
//  TripID           – trip the covered seats belong to.
//  SeatIDs          – ids of the seats this payment covers.
//  Status           – pending, success or failed.
//  Reason           – failure reason when status is failed.
//  AuthorizationURL – gateway checkout URL handed to the client.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Payment struct {
	ID               uint64    `json:"id"`                // payments.id
	Reference        string    `json:"reference"`         // payments.reference
	Email            string    `json:"email"`             // payments.email
	AmountMinor      int64     `json:"amount_minor"`      // payments.amount_minor
	TripID           uint64    `json:"trip_id"`           // payments.trip_id
	SeatIDs          []uint64  `json:"seat_ids"`          // payments.seat_ids (JSON column)
	Status           string    `json:"status"`            // payments.status
	Reason           string    `json:"reason"`            // payments.reason
	AuthorizationURL string    `json:"authorization_url"` // payments.authorization_url
	CreatedAt        time.Time `json:"created_at"`        // payments.created_at
	UpdatedAt        time.Time `json:"updated_at"`        // payments.updated_at
}
