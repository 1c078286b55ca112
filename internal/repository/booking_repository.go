package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"math/big"
	"strings"

	"github.com/orromotors/bus-seat-reservation/internal/model"
)

const bookingColumns = `id, code, user_id, seat_id, trip_id, position, amount_minor, payment_reference, created_at`

// BookingRepo provides data access to bookings.  Bookings are
// write-once: they are created by the finalizer and never updated.
// The unique index on seat_id enforces one booking per seat at the
// storage layer, independent of the seat-flag guard.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// GetBySeat returns the booking covering a seat, or nil when the
// seat has never been booked.
func (r *BookingRepo) GetBySeat(ctx context.Context, seatID uint64) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE seat_id = ?`, seatID)
	var b model.Booking
	err := row.Scan(&b.ID, &b.Code, &b.UserID, &b.SeatID, &b.TripID, &b.Position,
		&b.AmountMinor, &b.PaymentReference, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateTx inserts a booking inside the finalizer's per-seat
// transaction so the booking record and the seat's flag flip commit
// together.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (code, user_id, seat_id, trip_id, position, amount_minor, payment_reference)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Code, b.UserID, b.SeatID, b.TripID, b.Position, b.AmountMinor, b.PaymentReference)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// ListByUser returns all bookings made by a user, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.Code, &b.UserID, &b.SeatID, &b.TripID, &b.Position,
			&b.AmountMinor, &b.PaymentReference, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// NewBookingCode generates an 8-character upper-case alphanumeric
// booking code.  Uniqueness is backed by the unique index on
// bookings.code; the keyspace makes collisions negligible for this
// inventory size.
func NewBookingCode() (string, error) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	var b strings.Builder
	for i := 0; i < 8; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}
