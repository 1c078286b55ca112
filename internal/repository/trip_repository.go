package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	mrand "math/rand"
	"strings"
	"time"

	"github.com/orromotors/bus-seat-reservation/internal/model"
)

const tripColumns = `id, code, name, bus, status, pickup_city, pickup_location, dropoff_city, dropoff_location, takeoff_date, takeoff_time, seat_count, price_minor, created_at, updated_at`

// TripRepo provides data access to trips and owns the bulk seat
// generation performed at trip creation.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo returns a TripRepo bound to the provided database.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *TripRepo) DB() *sql.DB { return r.db }

// Create inserts the trip and generates its seats in one
// transaction.  Exactly SeatCount seats are created and their
// positions are a shuffled permutation of 1..SeatCount, so no two
// seats of a trip share a position and no position is skipped.
func (r *TripRepo) Create(ctx context.Context, t *model.Trip) error {
	if t.SeatCount == 0 {
		return fmt.Errorf("trip must have at least one seat")
	}
	if t.Status == "" {
		t.Status = model.TripStatusScheduled
	}
	if t.Code == "" {
		code, err := NewTripCode(time.Now().UTC())
		if err != nil {
			return err
		}
		t.Code = code
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO trips (code, name, bus, status, pickup_city, pickup_location, dropoff_city, dropoff_location, takeoff_date, takeoff_time, seat_count, price_minor)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Code, t.Name, t.Bus, t.Status, t.PickupCity, t.PickupLocation,
		t.DropoffCity, t.DropoffLocation, t.TakeoffDate.UTC(), t.TakeoffTime,
		t.SeatCount, t.PriceMinor)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)

	if err := createSeatsBulkTx(ctx, tx, t.ID, ShuffledPositions(int(t.SeatCount))); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// createSeatsBulkTx inserts one seat row per position in a single
// multi-VALUES statement.  All flag columns default to FALSE.
func createSeatsBulkTx(ctx context.Context, tx *sql.Tx, tripID uint64, positions []uint32) error {
	if len(positions) == 0 {
		return nil
	}
	query := `INSERT INTO seats (trip_id, position) VALUES `
	args := make([]interface{}, 0, len(positions)*2)
	for i, pos := range positions {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, tripID, pos)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ShuffledPositions returns the positions 1..n in random order, the
// order in which seat rows are generated for a new trip.
func ShuffledPositions(n int) []uint32 {
	positions := make([]uint32, n)
	for i, p := range mrand.Perm(n) {
		positions[i] = uint32(p + 1)
	}
	return positions
}

// NewTripCode builds a trip code of the form
// TRIP-YYYYMMDDHHMMSS-XXXX with a random 4-character suffix.
func NewTripCode(now time.Time) (string, error) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	var b strings.Builder
	for i := 0; i < 4; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return fmt.Sprintf("TRIP-%s-%s", now.Format("20060102150405"), b.String()), nil
}

// GetByID fetches a trip without its seats.  Returns ErrTripNotFound
// when the id matches no row.
func (r *TripRepo) GetByID(ctx context.Context, id uint64) (*model.Trip, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ?`, id)
	var t model.Trip
	err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Bus, &t.Status,
		&t.PickupCity, &t.PickupLocation, &t.DropoffCity, &t.DropoffLocation,
		&t.TakeoffDate, &t.TakeoffTime, &t.SeatCount, &t.PriceMinor,
		&t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListSeats returns every seat of a trip ordered by position.
func (r *TripRepo) ListSeats(ctx context.Context, tripID uint64) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+seatColumns+` FROM seats WHERE trip_id = ? ORDER BY position`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		s, err := scanSeatRows(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, *s)
	}
	return seats, rows.Err()
}

// Delete removes a trip together with its seats.  Returns
// ErrTripNotFound when the trip does not exist.
func (r *TripRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTripNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE trip_id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateStatus moves a trip to a new lifecycle status.
func (r *TripRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE trips SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTripNotFound
	}
	return nil
}
