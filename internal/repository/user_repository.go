package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/orromotors/bus-seat-reservation/internal/model"
)

// UserRepo provides the user lookups the booking core needs.
// Account issuance (OTP delivery, tokens) lives outside this
// service; only the identity attached to payments is resolved here.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the provided database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// GetByEmail fetches a user by email.  Returns ErrUserNotFound when
// no account exists for the address.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name, phone, created_at, updated_at
         FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, first_name, last_name, phone, created_at, updated_at
         FROM users WHERE id = ?`, id)
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
