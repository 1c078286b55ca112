// Package queue defines message payloads exchanged over the message broker.
package queue

// Notice kinds published by the booking core.  Notification
// delivery is fire-and-forget: a failed publish is logged and never
// affects seat or booking state.
const (
	KindHoldReminder     = "hold_reminder"
	KindHoldReleased     = "hold_released"
	KindBookingConfirmed = "booking_confirmed"
)

// Notice is the message sent for every seat-lifecycle notification.
// It carries enough information for downstream consumers to notify
// the holder or log the event without querying the primary database.
type Notice struct {
	Kind        string   `json:"kind"`
	UserID      uint64   `json:"user_id"`
	Email       string   `json:"email,omitempty"`
	TripID      uint64   `json:"trip_id"`
	SeatID      uint64   `json:"seat_id,omitempty"`
	Position    uint32   `json:"position,omitempty"`
	MinutesLeft int      `json:"minutes_left,omitempty"`
	Codes       []string `json:"codes,omitempty"`
	AmountMinor int64    `json:"amount_minor,omitempty"`
	Reference   string   `json:"reference,omitempty"`
	OccurredAt  string   `json:"occurred_at"`
}
