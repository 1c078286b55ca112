package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeatRepoMock(t *testing.T) (*SeatRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSeatRepo(db), mock
}

func seatRow(id, tripID uint64, position uint32, isBooking, isBooked, isPaid bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "trip_id", "position", "is_booking", "is_booked", "is_paid",
		"booked_by", "paid_by", "hold_expires_at", "created_at", "updated_at",
	}).AddRow(id, tripID, position, isBooking, isBooked, isPaid, nil, nil, nil, now, now)
}

func TestHoldClaimsFreeSeat(t *testing.T) {
	repo, mock := newSeatRepoMock(t)
	expiresAt := time.Now().UTC().Add(30 * time.Minute)

	mock.ExpectExec("UPDATE seats").
		WithArgs(true, false, false, uint64(7), nil, expiresAt,
			uint64(42), false, false, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Hold(context.Background(), 42, 7, expiresAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldConflictWhenSeatAlreadyHeld(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	// The conditional write matches nothing, and the follow-up
	// existence check finds the row, so the failure is a state
	// conflict.
	mock.ExpectExec("UPDATE seats").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM seats").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	err := repo.Hold(context.Background(), 42, 7, time.Now().UTC())
	assert.ErrorIs(t, err, ErrSeatConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldSeatNotFound(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	mock.ExpectExec("UPDATE seats").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM seats").
		WithArgs(uint64(999)).
		WillReturnError(sql.ErrNoRows)

	err := repo.Hold(context.Background(), 999, 7, time.Now().UTC())
	assert.ErrorIs(t, err, ErrSeatNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmHoldRequiresOwnership(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	// The write carries booked_by = owner in its WHERE clause; a seat
	// held by someone else matches nothing and reports a conflict.
	mock.ExpectExec("UPDATE seats").
		WithArgs(false, true, false, uint64(7), nil, nil,
			uint64(42), true, false, false, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM seats").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	err := repo.ConfirmHold(context.Background(), 42, 7)
	assert.ErrorIs(t, err, ErrSeatConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseHoldIsNoOpOnPaidSeat(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	// A seat paid between scheduling and firing no longer matches the
	// HOLDING precondition; the release must not clear anything.
	mock.ExpectExec("UPDATE seats").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM seats").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	err := repo.ReleaseHold(context.Background(), 42)
	assert.ErrorIs(t, err, ErrSeatConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkPaidDirectFallsBackToOwnedHold(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	// First attempt expects FREE and fails, second retries with the
	// holder-owned precondition and succeeds.
	mock.ExpectExec("UPDATE seats").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM seats").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("UPDATE seats").
		WithArgs(true, true, true, uint64(7), uint64(7), nil,
			uint64(42), true, false, false, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkPaidDirect(context.Background(), 42, 7)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	mock.ExpectQuery("SELECT (.+) FROM seats WHERE id").
		WithArgs(uint64(999)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrSeatNotFound)
}

func TestListAvailableSkipsBookedSeats(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	rows := seatRow(1, 10, 3, false, false, false)
	rows.AddRow(2, 10, 5, true, false, false, nil, nil, nil, time.Now().UTC(), time.Now().UTC())

	mock.ExpectQuery("SELECT (.+) FROM seats WHERE trip_id = \\? AND is_booked = FALSE").
		WithArgs(uint64(10)).
		WillReturnRows(rows)

	seats, err := repo.ListAvailable(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, uint32(3), seats[0].Position)
	// Held but unconfirmed seats stay visible to browsers.
	assert.True(t, seats[1].IsBooking)
}

func TestStatusByIDsReportsMissingSeatsPerItem(t *testing.T) {
	repo, mock := newSeatRepoMock(t)

	mock.ExpectQuery("SELECT id, position, is_booking, is_booked FROM seats").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "position", "is_booking", "is_booked"}).
			AddRow(1, 4, true, false))
	mock.ExpectQuery("SELECT id, position, is_booking, is_booked FROM seats").
		WithArgs(uint64(999)).
		WillReturnError(sql.ErrNoRows)

	items, err := repo.StatusByIDs(context.Background(), []uint64{1, 999})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].Found)
	assert.True(t, items[0].IsBooking)
	assert.False(t, items[1].Found)
	assert.Equal(t, uint64(999), items[1].SeatID)
}

func TestSeatRefValid(t *testing.T) {
	assert.True(t, SeatRef{SeatID: 1}.Valid())
	assert.True(t, SeatRef{TripID: 1, Position: 2}.Valid())
	assert.False(t, SeatRef{TripID: 1}.Valid())
	assert.False(t, SeatRef{}.Valid())
}
