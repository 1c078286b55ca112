// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrSeatConflict indicates that a precondition-guarded
// write found the seat in a different state than expected, while
// ErrSeatAlreadyBooked signals that a booking record already exists
// for the seat (a replayed payment callback).
package repository

import "errors"

// ErrSeatNotFound is returned when a seat lookup matches no row.
// Handlers should translate this into an HTTP 404 response.
var ErrSeatNotFound = errors.New("seat not found")

// ErrTripNotFound is returned when a trip lookup matches no row.
var ErrTripNotFound = errors.New("trip not found")

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// ErrPaymentNotFound is returned when a payment reference is unknown.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrSeatConflict is returned when an atomic conditional write on a
// seat fails its precondition: the seat is already held, booked or
// paid by someone else. Handlers should translate this into an HTTP
// 409 response.
var ErrSeatConflict = errors.New("seat state conflict")

// ErrSeatAlreadyBooked is returned by the finalizer when a booking
// record already exists for a seat. This is the idempotency guard
// against duplicate gateway callbacks for the same reference.
var ErrSeatAlreadyBooked = errors.New("seat already booked")

// ErrInvalidSeatState is returned when a seat record is structurally
// unusable, such as a missing position.
var ErrInvalidSeatState = errors.New("invalid seat state")
