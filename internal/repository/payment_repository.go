package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/orromotors/bus-seat-reservation/internal/model"
)

// PaymentRepo provides data access to payments.  A payment is
// created pending when a gateway transaction is initialized and
// settles exactly once to success or failed; settling an already
// settled payment again with the same status is harmless, which
// keeps replayed gateway callbacks idempotent.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the provided database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a pending payment record.  SeatIDs are stored as a
// JSON array so the covered seat set travels with the reference.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	seatIDs, err := json.Marshal(p.SeatIDs)
	if err != nil {
		return err
	}
	if p.Status == "" {
		p.Status = model.PaymentStatusPending
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (reference, email, amount_minor, trip_id, seat_ids, status, authorization_url)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Reference, p.Email, p.AmountMinor, p.TripID, seatIDs, p.Status, p.AuthorizationURL)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByReference fetches a payment by its gateway reference.
// Returns ErrPaymentNotFound when the reference is unknown.
func (r *PaymentRepo) GetByReference(ctx context.Context, reference string) (*model.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, reference, email, amount_minor, trip_id, seat_ids, status, reason, authorization_url, created_at, updated_at
         FROM payments WHERE reference = ?`, reference)
	var p model.Payment
	var seatIDs []byte
	err := row.Scan(&p.ID, &p.Reference, &p.Email, &p.AmountMinor, &p.TripID,
		&seatIDs, &p.Status, &p.Reason, &p.AuthorizationURL, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(seatIDs) > 0 {
		if err := json.Unmarshal(seatIDs, &p.SeatIDs); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// Settle records the final status of a payment along with an
// optional failure reason.  The pending guard in the WHERE clause
// makes the transition one-way: once a payment is success or failed
// it stays there, so a replayed callback whose seats are rejected
// cannot flip an already settled payment.
func (r *PaymentRepo) Settle(ctx context.Context, reference, status, reason string) error {
	// RowsAffected is not checked: a replay matches no pending row
	// and writes nothing, and that must not look like a missing
	// payment.
	_, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, reason = ? WHERE reference = ? AND status = ?`,
		status, reason, reference, model.PaymentStatusPending)
	return err
}
