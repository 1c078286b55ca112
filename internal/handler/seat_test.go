package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orromotors/bus-seat-reservation/internal/repository"
	"github.com/orromotors/bus-seat-reservation/internal/scheduler"
)

// nopNotifier discards notices; watchdog behaviour is covered in the
// scheduler package.
type nopNotifier struct{}

func (nopNotifier) HoldReminder(context.Context, uint64, uint64, uint64, uint32, int) error {
	return nil
}
func (nopNotifier) HoldReleased(context.Context, uint64, uint64, uint64, uint32) error {
	return nil
}

func newSeatHandlerMock(t *testing.T) (*SeatHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	seatRepo := repository.NewSeatRepo(db)
	wd := scheduler.New(seatRepo, nopNotifier{}, 30*time.Minute,
		[]time.Duration{10 * time.Minute, 20 * time.Minute}, time.Minute)
	h := NewSeatHandler(seatRepo, repository.NewTripRepo(db), repository.NewPaymentRepo(db), wd)
	return h, mock
}

// authedPost runs a handler with an authenticated user in context.
func authedPost(t *testing.T, h echo.HandlerFunc, userID uint64, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", userID)
	require.NoError(t, h(c))
	return rec
}

func freeSeatRows(id, tripID uint64, position uint32) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "trip_id", "position", "is_booking", "is_booked", "is_paid",
		"booked_by", "paid_by", "hold_expires_at", "created_at", "updated_at",
	}).AddRow(id, tripID, position, false, false, false, nil, nil, nil, now, now)
}

func TestHoldRejectsDuplicateSeatBatch(t *testing.T) {
	h, mock := newSeatHandlerMock(t)

	rec := authedPost(t, h.Hold, 7, `{"seat_ids":[41,42,41]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(41), resp["seat_id"])
	// Nothing was held.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldSucceedsOnFreeSeat(t *testing.T) {
	h, mock := newSeatHandlerMock(t)

	mock.ExpectQuery("SELECT (.+) FROM seats WHERE id").
		WithArgs(uint64(41)).
		WillReturnRows(freeSeatRows(41, 10, 3))
	mock.ExpectExec("UPDATE seats").WillReturnResult(sqlmock.NewResult(0, 1))

	rec := authedPost(t, h.Hold, 7, `{"seat_ids":[41]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ExpiresAt string `json:"expires_at"`
		Results   []struct {
			SeatID uint64 `json:"seat_id"`
			Held   bool   `json:"held"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.True(t, resp.Results[0].Held)
	expires, err := time.Parse(time.RFC3339, resp.ExpiresAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(30*time.Minute), expires, time.Minute)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldLoserSeesConflict(t *testing.T) {
	h, mock := newSeatHandlerMock(t)

	mock.ExpectQuery("SELECT (.+) FROM seats WHERE id").
		WithArgs(uint64(41)).
		WillReturnRows(freeSeatRows(41, 10, 3))
	// Another request claimed the seat between the read and the write.
	mock.ExpectExec("UPDATE seats").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM seats").
		WithArgs(uint64(41)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	rec := authedPost(t, h.Hold, 7, `{"seat_ids":[41]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Results []struct {
			Held  bool   `json:"held"`
			Error string `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.False(t, resp.Results[0].Held)
	assert.Equal(t, "seat is already held", resp.Results[0].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldByTripAndPosition(t *testing.T) {
	h, mock := newSeatHandlerMock(t)

	mock.ExpectQuery("SELECT (.+) FROM seats WHERE trip_id = \\? AND position").
		WithArgs(uint64(10), uint32(3)).
		WillReturnRows(freeSeatRows(41, 10, 3))
	mock.ExpectExec("UPDATE seats").WillReturnResult(sqlmock.NewResult(0, 1))

	rec := authedPost(t, h.Hold, 7, `{"trip_id":10,"position":3}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldUnknownSeatReportsNotFound(t *testing.T) {
	h, mock := newSeatHandlerMock(t)

	mock.ExpectQuery("SELECT (.+) FROM seats WHERE id").
		WithArgs(uint64(999)).
		WillReturnError(sql.ErrNoRows)

	rec := authedPost(t, h.Hold, 7, `{"seat_ids":[999]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldUnknownTripPositionEchoesRequest(t *testing.T) {
	h, mock := newSeatHandlerMock(t)

	mock.ExpectQuery("SELECT (.+) FROM seats WHERE trip_id = \\? AND position").
		WithArgs(uint64(10), uint32(99)).
		WillReturnError(sql.ErrNoRows)

	rec := authedPost(t, h.Hold, 7, `{"trip_id":10,"position":99}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp struct {
		Results []struct {
			TripID   uint64 `json:"trip_id"`
			Position uint32 `json:"position"`
			Error    string `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	// The failing line names the reference the caller sent.
	assert.Equal(t, uint64(10), resp.Results[0].TripID)
	assert.Equal(t, uint32(99), resp.Results[0].Position)
	assert.Equal(t, "seat not found", resp.Results[0].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmRejectsForeignHold(t *testing.T) {
	h, mock := newSeatHandlerMock(t)

	now := time.Now().UTC()
	holder := uint64(8)
	deadline := now.Add(20 * time.Minute)
	mock.ExpectQuery("SELECT (.+) FROM seats WHERE id").
		WithArgs(uint64(41)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "trip_id", "position", "is_booking", "is_booked", "is_paid",
			"booked_by", "paid_by", "hold_expires_at", "created_at", "updated_at",
		}).AddRow(41, 10, 3, true, false, false, holder, nil, deadline, now, now))
	// The ownership precondition matches nothing for user 7.
	mock.ExpectExec("UPDATE seats").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM seats").
		WithArgs(uint64(41)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	rec := authedPost(t, h.Confirm, 7, `{"seat_id":41}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "not held by you")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusToleratesUnknownSeats(t *testing.T) {
	h, mock := newSeatHandlerMock(t)

	mock.ExpectQuery("SELECT id, position, is_booking, is_booked FROM seats").
		WithArgs(uint64(41)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "position", "is_booking", "is_booked"}).
			AddRow(41, 3, false, true))
	mock.ExpectQuery("SELECT id, position, is_booking, is_booked FROM seats").
		WithArgs(uint64(999)).
		WillReturnError(sql.ErrNoRows)

	rec := authedPost(t, h.Status, 7, `{"seat_ids":[41,999]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []struct {
			SeatID   uint64 `json:"seat_id"`
			IsBooked bool   `json:"is_booked"`
			Found    bool   `json:"found"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 2)
	assert.True(t, resp.Items[0].Found)
	assert.True(t, resp.Items[0].IsBooked)
	assert.False(t, resp.Items[1].Found)
	assert.NoError(t, mock.ExpectationsWereMet())
}
