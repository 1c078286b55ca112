package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/orromotors/bus-seat-reservation/internal/model"
)

// seatColumns is the canonical column list scanned into a model.Seat.
const seatColumns = `id, trip_id, position, is_booking, is_booked, is_paid, booked_by, paid_by, hold_expires_at, created_at, updated_at`

// SeatFlags is the triple of reservation flags used as the expected
// precondition of a compare-and-set write.  The zero value means
// FREE (no hold, not booked, not paid).
type SeatFlags struct {
	IsBooking bool
	IsBooked  bool
	IsPaid    bool
}

// SeatState is the full target state of a compare-and-set write:
// the new flags plus the owner references and hold deadline that go
// with them.  Nil pointers clear the corresponding column.
type SeatState struct {
	Flags         SeatFlags
	BookedBy      *uint64
	PaidBy        *uint64
	HoldExpiresAt *time.Time
}

// SeatStatusItem is the per-seat line of a status check.  Unknown
// seat ids are reported with Found=false rather than failing the
// whole request.
type SeatStatusItem struct {
	SeatID    uint64 `json:"seat_id"`
	Position  uint32 `json:"position"`
	IsBooking bool   `json:"is_booking"`
	IsBooked  bool   `json:"is_booked"`
	Found     bool   `json:"found"`
}

// SeatRef identifies a seat either directly by id or by trip and
// position.  Exactly one variant should be populated; Resolve picks
// the id when both are present.
type SeatRef struct {
	SeatID   uint64 `json:"seat_id"`
	TripID   uint64 `json:"trip_id"`
	Position uint32 `json:"position"`
}

// ByID reports whether the reference carries a direct seat id.
func (r SeatRef) ByID() bool { return r.SeatID != 0 }

// Valid reports whether the reference can be resolved at all.
func (r SeatRef) Valid() bool { return r.SeatID != 0 || (r.TripID != 0 && r.Position != 0) }

// SeatRepo is the seat ledger: the single durable source of truth
// for seat reservation state.  Every mutation goes through an atomic
// conditional UPDATE that re-asserts the expected flags in its WHERE
// clause, so concurrent writers cannot interleave into a double
// booking.  Seat state is never cached across the boundary of one
// such write.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a SeatRepo bound to the provided database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *SeatRepo) DB() *sql.DB { return r.db }

// GetByID fetches a single seat.  Returns ErrSeatNotFound when the
// id matches no row.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+seatColumns+` FROM seats WHERE id = ?`, id)
	return scanSeat(row)
}

// GetByTripPosition fetches the seat at a position within a trip.
func (r *SeatRepo) GetByTripPosition(ctx context.Context, tripID uint64, position uint32) (*model.Seat, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+seatColumns+` FROM seats WHERE trip_id = ? AND position = ?`, tripID, position)
	return scanSeat(row)
}

// Resolve turns a SeatRef into a concrete seat using whichever
// variant the reference carries.
func (r *SeatRepo) Resolve(ctx context.Context, ref SeatRef) (*model.Seat, error) {
	if ref.ByID() {
		return r.GetByID(ctx, ref.SeatID)
	}
	return r.GetByTripPosition(ctx, ref.TripID, ref.Position)
}

// ListAvailable returns the unbooked seats of a trip ordered by
// position.  Seats with an in-flight hold are included as long as
// the hold has not been confirmed, matching the availability view
// shown to browsing users.
func (r *SeatRepo) ListAvailable(ctx context.Context, tripID uint64) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+seatColumns+` FROM seats WHERE trip_id = ? AND is_booked = FALSE ORDER BY position`, tripID)
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

// StatusByIDs reports the hold/booked flags for each requested seat
// id.  Ids that match no seat are reported individually with
// Found=false; the call itself only fails on database errors.
func (r *SeatRepo) StatusByIDs(ctx context.Context, ids []uint64) ([]SeatStatusItem, error) {
	items := make([]SeatStatusItem, 0, len(ids))
	for _, id := range ids {
		row := r.db.QueryRowContext(ctx,
			`SELECT id, position, is_booking, is_booked FROM seats WHERE id = ?`, id)
		item := SeatStatusItem{SeatID: id}
		err := row.Scan(&item.SeatID, &item.Position, &item.IsBooking, &item.IsBooked)
		switch {
		case err == sql.ErrNoRows:
			// reported per-item, not a whole-request failure
		case err != nil:
			return nil, err
		default:
			item.Found = true
		}
		items = append(items, item)
	}
	return items, nil
}

// CompareAndSet applies next to the seat only if its stored flags
// still equal expect.  The check and the write are one UPDATE, so
// two racing callers cannot both observe the precondition and both
// claim the seat.  Returns ErrSeatConflict when the flags no longer
// match and ErrSeatNotFound when the seat does not exist.
func (r *SeatRepo) CompareAndSet(ctx context.Context, seatID uint64, expect SeatFlags, next SeatState) error {
	return r.compareAndSet(ctx, r.db, seatID, expect, next, nil)
}

// CompareAndSetOwned is CompareAndSet with an additional ownership
// precondition: the write only applies when booked_by equals owner.
// Used for transitions reserved to the flow that created the hold.
func (r *SeatRepo) CompareAndSetOwned(ctx context.Context, seatID uint64, expect SeatFlags, next SeatState, owner uint64) error {
	return r.compareAndSet(ctx, r.db, seatID, expect, next, &owner)
}

// CompareAndSetTx runs the same conditional write inside an existing
// transaction so a seat flip and its booking record commit together.
func (r *SeatRepo) CompareAndSetTx(ctx context.Context, tx *sql.Tx, seatID uint64, expect SeatFlags, next SeatState) error {
	return r.compareAndSet(ctx, tx, seatID, expect, next, nil)
}

// execer abstracts *sql.DB and *sql.Tx for the conditional write.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *SeatRepo) compareAndSet(ctx context.Context, ex execer, seatID uint64, expect SeatFlags, next SeatState, owner *uint64) error {
	query := `UPDATE seats
              SET is_booking = ?, is_booked = ?, is_paid = ?, booked_by = ?, paid_by = ?, hold_expires_at = ?
              WHERE id = ? AND is_booking = ? AND is_booked = ? AND is_paid = ?`
	args := []interface{}{
		next.Flags.IsBooking, next.Flags.IsBooked, next.Flags.IsPaid,
		next.BookedBy, next.PaidBy, next.HoldExpiresAt,
		seatID, expect.IsBooking, expect.IsBooked, expect.IsPaid,
	}
	if owner != nil {
		query += ` AND booked_by = ?`
		args = append(args, *owner)
	}
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	// Precondition failed or the seat does not exist; tell them apart.
	var one int
	if err := ex.QueryRowContext(ctx, `SELECT 1 FROM seats WHERE id = ?`, seatID).Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return ErrSeatNotFound
		}
		return err
	}
	return ErrSeatConflict
}

// Hold transitions a FREE seat to HOLDING for userID with the given
// deadline.  Fails with ErrSeatConflict when anyone already holds,
// booked or paid for the seat.
func (r *SeatRepo) Hold(ctx context.Context, seatID, userID uint64, expiresAt time.Time) error {
	return r.CompareAndSet(ctx, seatID, SeatFlags{}, SeatState{
		Flags:         SeatFlags{IsBooking: true},
		BookedBy:      &userID,
		HoldExpiresAt: &expiresAt,
	})
}

// ConfirmHold transitions HOLDING to BOOKED.  Only the user who
// created the hold may confirm it; the ownership check rides in the
// same conditional write.
func (r *SeatRepo) ConfirmHold(ctx context.Context, seatID, userID uint64) error {
	return r.CompareAndSetOwned(ctx, seatID, SeatFlags{IsBooking: true}, SeatState{
		Flags:    SeatFlags{IsBooked: true},
		BookedBy: &userID,
	}, userID)
}

// ReleaseHold returns a HOLDING seat to FREE, clearing the holder
// and the deadline.  The is_paid=false precondition makes this a
// no-op when payment completed between scheduling and firing; the
// caller sees ErrSeatConflict and drops the release.
func (r *SeatRepo) ReleaseHold(ctx context.Context, seatID uint64) error {
	return r.CompareAndSet(ctx, seatID, SeatFlags{IsBooking: true}, SeatState{})
}

// MarkPaidDirect is the legacy direct-pay transition to PAID outside
// the gateway flow.  A seat may be paid directly when it is FREE, or
// when the paying user already holds it; any other claim is a hard
// conflict and the seat is left untouched.
func (r *SeatRepo) MarkPaidDirect(ctx context.Context, seatID, userID uint64) error {
	paid := SeatState{
		Flags:    SeatFlags{IsBooking: true, IsBooked: true, IsPaid: true},
		BookedBy: &userID,
		PaidBy:   &userID,
	}
	err := r.CompareAndSet(ctx, seatID, SeatFlags{}, paid)
	if err != ErrSeatConflict {
		return err
	}
	return r.CompareAndSetOwned(ctx, seatID, SeatFlags{IsBooking: true}, paid, userID)
}

// FinalizeTx flips a seat to PAID inside the finalizer's per-seat
// transaction.  The finalizer only ever pays for seats it has just
// verified as unclaimed, so the expected state is strictly FREE.
func (r *SeatRepo) FinalizeTx(ctx context.Context, tx *sql.Tx, seatID, userID uint64) error {
	return r.CompareAndSetTx(ctx, tx, seatID, SeatFlags{}, SeatState{
		Flags:    SeatFlags{IsBooking: true, IsBooked: true, IsPaid: true},
		BookedBy: &userID,
		PaidBy:   &userID,
	})
}

// ListExpiredHolds returns seats whose hold deadline has passed and
// that are still HOLDING and unpaid.  The recovery sweep uses this
// to reclaim holds whose in-process watchdogs were lost to a
// restart.
func (r *SeatRepo) ListExpiredHolds(ctx context.Context, now time.Time) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+seatColumns+` FROM seats
         WHERE is_booking = TRUE AND is_booked = FALSE AND is_paid = FALSE AND hold_expires_at <= ?`,
		now.UTC())
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

func scanSeat(row *sql.Row) (*model.Seat, error) {
	var s model.Seat
	err := row.Scan(&s.ID, &s.TripID, &s.Position, &s.IsBooking, &s.IsBooked, &s.IsPaid,
		&s.BookedBy, &s.PaidBy, &s.HoldExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSeatNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSeatRows(rows *sql.Rows) (*model.Seat, error) {
	var s model.Seat
	err := rows.Scan(&s.ID, &s.TripID, &s.Position, &s.IsBooking, &s.IsBooked, &s.IsPaid,
		&s.BookedBy, &s.PaidBy, &s.HoldExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
