package model

import "time"

// User is a passenger account.  Accounts are keyed by email; the
// booking finalizer looks users up by the email reported with the
// payment.  Account issuance lives outside this service.
type User struct {
	ID        uint64    `json:"id"`         // users.id
	Email     string    `json:"email"`      // users.email (unique)
	FirstName string    `json:"first_name"` // users.first_name
	LastName  string    `json:"last_name"`  // users.last_name
	Phone     string    `json:"phone"`      // users.phone
	CreatedAt time.Time `json:"created_at"` // users.created_at
	UpdatedAt time.Time `json:"updated_at"` // users.updated_at
}
