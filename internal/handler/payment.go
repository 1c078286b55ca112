package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/orromotors/bus-seat-reservation/internal/gateway"
	"github.com/orromotors/bus-seat-reservation/internal/model"
	"github.com/orromotors/bus-seat-reservation/internal/repository"
	"github.com/orromotors/bus-seat-reservation/internal/scheduler"
)

// BookingNotifier announces finalized bookings.  Delivery is best
// effort; a failure is logged and never rolls back a booking.
type BookingNotifier interface {
	BookingConfirmed(ctx context.Context, userID uint64, email string, tripID uint64, reference string, codes []string, amountMinor int64) error
}

// PaymentHandler owns payment initialization and the booking
// finalizer invoked by the gateway verification callback.
type PaymentHandler struct {
	SeatRepo    *repository.SeatRepo
	BookingRepo *repository.BookingRepo
	PaymentRepo *repository.PaymentRepo
	UserRepo    *repository.UserRepo
	TripRepo    *repository.TripRepo
	Gateway     gateway.Client
	Watchdog    *scheduler.Watchdog
	Notifier    BookingNotifier
}

// NewPaymentHandler constructs a PaymentHandler.  All dependencies
// must be non-nil.
func NewPaymentHandler(seatRepo *repository.SeatRepo, bookingRepo *repository.BookingRepo, paymentRepo *repository.PaymentRepo, userRepo *repository.UserRepo, tripRepo *repository.TripRepo, gw gateway.Client, wd *scheduler.Watchdog, notifier BookingNotifier) *PaymentHandler {
	if seatRepo == nil || bookingRepo == nil || paymentRepo == nil || userRepo == nil || tripRepo == nil || gw == nil {
		panic("nil dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{
		SeatRepo:    seatRepo,
		BookingRepo: bookingRepo,
		PaymentRepo: paymentRepo,
		UserRepo:    userRepo,
		TripRepo:    tripRepo,
		Gateway:     gw,
		Watchdog:    wd,
		Notifier:    notifier,
	}
}

// errDuplicateSeat marks a finalization batch carrying the same seat
// id twice; the whole request is rejected before any mutation.
var errDuplicateSeat = errors.New("duplicate seat id in request")

// Initialize handles POST /v1/payments/initialize.  It creates a
// gateway transaction covering the requested seats and records a
// pending Payment under the returned reference.
func (h *PaymentHandler) Initialize(c echo.Context) error {
	var body struct {
		Email       string   `json:"email"`
		AmountMinor int64    `json:"amount_minor"`
		SeatIDs     []uint64 `json:"seat_ids"`
		TripID      uint64   `json:"trip_id"`
		CallbackURL string   `json:"callback_url"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Email == "" || body.AmountMinor <= 0 || body.TripID == 0 || len(body.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, amount_minor, trip_id and seat_ids are required"})
	}
	if dup, ok := dedupe(body.SeatIDs); ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate seat id in request", "seat_id": dup})
	}
	ctx := c.Request().Context()
	if _, err := h.TripRepo.GetByID(ctx, body.TripID); err != nil {
		if err == repository.ErrTripNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.Gateway.Initialize(ctx, body.Email, body.AmountMinor, body.TripID, body.SeatIDs, body.CallbackURL)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}

	payment := &model.Payment{
		Reference:        tx.Reference,
		Email:            body.Email,
		AmountMinor:      body.AmountMinor,
		TripID:           body.TripID,
		SeatIDs:          body.SeatIDs,
		AuthorizationURL: tx.AuthorizationURL,
	}
	if err := h.PaymentRepo.Create(ctx, payment); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record payment"})
	}

	resp := echo.Map{
		"message":           "payment initialized successfully",
		"authorization_url": tx.AuthorizationURL,
		"reference":         tx.Reference,
	}
	if body.CallbackURL != "" {
		resp["callback_url"] = fmt.Sprintf("%s&reference=%s", body.CallbackURL, tx.Reference)
	}
	return c.JSON(http.StatusOK, resp)
}

// Verify handles POST /v1/payments/verify, the payment-callback
// entry point.  The reference is verified with the gateway (a
// trusted oracle) and, on success, the finalizer converts the charge
// into durable bookings.  Replayed callbacks are idempotent: each
// seat's booking-existence check fails them without mutating
// anything.
func (h *PaymentHandler) Verify(c echo.Context) error {
	var body struct {
		Email     string `json:"email"`
		Reference string `json:"reference"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Email == "" || body.Reference == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and reference are required"})
	}
	ctx := c.Request().Context()

	vt, err := h.Gateway.Verify(ctx, body.Reference)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}
	if !vt.Succeeded() {
		_ = h.PaymentRepo.Settle(ctx, body.Reference, model.PaymentStatusFailed, "gateway reported "+vt.Status)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment failed"})
	}
	if len(vt.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no seats selected"})
	}

	user, err := h.UserRepo.GetByEmail(ctx, body.Email)
	if err != nil {
		if err == repository.ErrUserNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	trip, err := h.TripRepo.GetByID(ctx, vt.TripID)
	if err != nil {
		if err == repository.ErrTripNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	bookings, err := h.finalize(ctx, body.Reference, user, trip, vt.SeatIDs, vt.AmountMinor)
	if err != nil {
		_ = h.PaymentRepo.Settle(ctx, body.Reference, model.PaymentStatusFailed, err.Error())
		return c.JSON(finalizeStatus(err), echo.Map{"error": err.Error()})
	}

	if err := h.PaymentRepo.Settle(ctx, body.Reference, model.PaymentStatusSuccess, ""); err != nil {
		c.Logger().Errorf("settle payment %s: %v", body.Reference, err)
	}
	if h.Notifier != nil {
		codes := make([]string, 0, len(bookings))
		for _, b := range bookings {
			codes = append(codes, b.Code)
		}
		if err := h.Notifier.BookingConfirmed(ctx, user.ID, user.Email, trip.ID, body.Reference, codes, vt.AmountMinor); err != nil {
			c.Logger().Errorf("booking confirmation notice for %s: %v", body.Reference, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "payment verified and bookings created",
		"bookings": bookings,
	})
}

// finalize converts a verified payment into bookings, one seat at a
// time and in request order.  Each seat is re-validated against live
// state and flipped to PAID together with its booking record in one
// transaction.  A failing seat stops processing of it and every seat
// after it; seats already finalized in this call stay finalized, by
// design, and the error names the offending seat so the caller can
// reconcile.
func (h *PaymentHandler) finalize(ctx context.Context, reference string, user *model.User, trip *model.Trip, seatIDs []uint64, totalMinor int64) ([]model.Booking, error) {
	if dup, ok := dedupe(seatIDs); ok {
		return nil, fmt.Errorf("%w: seat %d", errDuplicateSeat, dup)
	}

	// Currency-minor division: the remainder rides on the first seat
	// so the recorded amounts sum to the charged total.
	n := int64(len(seatIDs))
	share := totalMinor / n
	remainder := totalMinor % n

	bookings := make([]model.Booking, 0, len(seatIDs))
	for i, seatID := range seatIDs {
		seat, err := h.SeatRepo.GetByID(ctx, seatID)
		if err != nil {
			if err == repository.ErrSeatNotFound {
				return bookings, fmt.Errorf("%w: seat %d", repository.ErrSeatNotFound, seatID)
			}
			return bookings, err
		}
		existing, err := h.BookingRepo.GetBySeat(ctx, seatID)
		if err != nil {
			return bookings, err
		}
		if existing != nil {
			return bookings, fmt.Errorf("%w: seat %d (code %s)", repository.ErrSeatAlreadyBooked, seat.Position, existing.Code)
		}
		if seat.Position == 0 {
			return bookings, fmt.Errorf("%w: seat %d is missing a position", repository.ErrInvalidSeatState, seatID)
		}
		if seat.IsPaid || seat.IsBooked || seat.IsBooking {
			return bookings, fmt.Errorf("%w: seat %d is no longer available", repository.ErrSeatConflict, seat.Position)
		}

		code, err := repository.NewBookingCode()
		if err != nil {
			return bookings, err
		}
		amount := share
		if i == 0 {
			amount += remainder
		}

		tx, err := h.SeatRepo.DB().BeginTx(ctx, nil)
		if err != nil {
			return bookings, err
		}
		committed := false
		func() {
			defer func() {
				if !committed {
					_ = tx.Rollback()
				}
			}()
			// Precondition re-asserted inside the write: the seat
			// must still be unclaimed at the moment of transition.
			if err = h.SeatRepo.FinalizeTx(ctx, tx, seatID, user.ID); err != nil {
				return
			}
			booking := model.Booking{
				Code:             code,
				UserID:           user.ID,
				SeatID:           seatID,
				TripID:           trip.ID,
				Position:         seat.Position,
				AmountMinor:      amount,
				PaymentReference: reference,
			}
			if err = h.BookingRepo.CreateTx(ctx, tx, &booking); err != nil {
				return
			}
			if err = tx.Commit(); err != nil {
				return
			}
			committed = true
			bookings = append(bookings, booking)
		}()
		if err != nil {
			if errors.Is(err, repository.ErrSeatConflict) {
				return bookings, fmt.Errorf("%w: seat %d is no longer available", repository.ErrSeatConflict, seat.Position)
			}
			return bookings, err
		}
		if h.Watchdog != nil {
			h.Watchdog.Cancel(seatID)
		}
	}
	return bookings, nil
}

// finalizeStatus maps a finalizer error to its HTTP status.
func finalizeStatus(err error) int {
	switch {
	case errors.Is(err, errDuplicateSeat), errors.Is(err, repository.ErrInvalidSeatState):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrSeatNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrSeatAlreadyBooked), errors.Is(err, repository.ErrSeatConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
