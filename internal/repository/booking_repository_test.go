package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBySeatReturnsNilWhenUnbooked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewBookingRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE seat_id").
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	b, err := repo.GetBySeat(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestGetBySeatReturnsExistingBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewBookingRepo(db)

	rows := sqlmock.NewRows([]string{
		"id", "code", "user_id", "seat_id", "trip_id", "position",
		"amount_minor", "payment_reference", "created_at",
	}).AddRow(3, "A1B2C3D4", 7, 42, 10, 5, 250000, "ref-001", time.Now().UTC())

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE seat_id").
		WithArgs(uint64(42)).
		WillReturnRows(rows)

	b, err := repo.GetBySeat(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "A1B2C3D4", b.Code)
	assert.Equal(t, uint64(7), b.UserID)
	assert.Equal(t, int64(250000), b.AmountMinor)
}

func TestNewBookingCodeShape(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z0-9]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := NewBookingCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	// 50 draws from a 36^8 keyspace should not collide.
	assert.Len(t, seen, 50)
}

func TestSettleOnlyTouchesPendingPayments(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPaymentRepo(db)

	// The status transition is guarded on pending in the same write,
	// so a settled payment can never be flipped afterwards.
	mock.ExpectExec(`UPDATE payments SET status = ?, reason = ? WHERE reference = ? AND status = ?`).
		WithArgs("success", "", "ref-001", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Settle(context.Background(), "ref-001", "success", "")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleReplayLeavesSettledPaymentUntouched(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPaymentRepo(db)

	// A replayed callback for an already settled payment matches no
	// pending row; zero rows written is a clean no-op, not an error.
	mock.ExpectExec("UPDATE payments SET status").
		WithArgs("failed", "seat already booked", "ref-001", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Settle(context.Background(), "ref-001", "failed", "seat already booked")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
