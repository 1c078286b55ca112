package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/orromotors/bus-seat-reservation/internal/model"
	"github.com/orromotors/bus-seat-reservation/internal/repository"
	"github.com/orromotors/bus-seat-reservation/internal/scheduler"
)

// SeatHandler groups the dependencies for the seat lifecycle
// endpoints: browsing availability, placing and confirming holds,
// the legacy direct-pay path and the status check.  JWT
// authentication is performed by middleware; methods return 401 when
// the user id cannot be extracted from the context.
type SeatHandler struct {
	SeatRepo    *repository.SeatRepo
	TripRepo    *repository.TripRepo
	PaymentRepo *repository.PaymentRepo
	Watchdog    *scheduler.Watchdog
}

// NewSeatHandler constructs a SeatHandler.  All dependencies must be
// non-nil.
func NewSeatHandler(seatRepo *repository.SeatRepo, tripRepo *repository.TripRepo, paymentRepo *repository.PaymentRepo, wd *scheduler.Watchdog) *SeatHandler {
	if seatRepo == nil || tripRepo == nil || paymentRepo == nil || wd == nil {
		panic("nil dependency passed to NewSeatHandler")
	}
	return &SeatHandler{SeatRepo: seatRepo, TripRepo: tripRepo, PaymentRepo: paymentRepo, Watchdog: wd}
}

// seatRefReq is the request shape accepted wherever a single seat is
// addressed: either a direct seat id or a trip id plus position.
type seatRefReq struct {
	SeatID   uint64 `json:"seat_id"`
	TripID   uint64 `json:"trip_id"`
	Position uint32 `json:"position"`
}

func (r seatRefReq) ref() repository.SeatRef {
	return repository.SeatRef{SeatID: r.SeatID, TripID: r.TripID, Position: r.Position}
}

// holdReq is the request body for POST /v1/seats/hold.  A batch of
// seat ids takes precedence; otherwise the single trip+position
// variant is used.
type holdReq struct {
	SeatIDs  []uint64 `json:"seat_ids"`
	TripID   uint64   `json:"trip_id"`
	Position uint32   `json:"position"`
}

// holdResult is the per-seat outcome of a hold request.  Failures
// echo whichever reference the caller used, so a not-found line can
// be matched back to its request.
type holdResult struct {
	SeatID   uint64 `json:"seat_id,omitempty"`
	TripID   uint64 `json:"trip_id,omitempty"`
	Position uint32 `json:"position,omitempty"`
	Held     bool   `json:"held"`
	Error    string `json:"error,omitempty"`
}

// ListAvailable handles GET /v1/trips/:id/seats/available.  It
// returns the trip's unbooked seats ordered by position.
func (h *SeatHandler) ListAvailable(c echo.Context) error {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	ctx := c.Request().Context()
	if _, err := h.TripRepo.GetByID(ctx, tripID); err != nil {
		if err == repository.ErrTripNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.SeatRepo.ListAvailable(ctx, tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	if seats == nil {
		seats = []model.Seat{}
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": seats})
}

// Hold handles POST /v1/seats/hold.  Each requested seat is moved
// FREE→HOLDING through a precondition-guarded write; of N concurrent
// holds on the same seat exactly one wins and the rest see a
// conflict.  A batch containing the same seat id twice is rejected
// wholesale before any mutation.  Successful holds get their expiry
// watchdogs scheduled.
func (h *SeatHandler) Hold(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body holdReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	var refs []repository.SeatRef
	if len(body.SeatIDs) > 0 {
		if dup, ok := dedupe(body.SeatIDs); ok {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":   "duplicate seat id in request",
				"seat_id": dup,
			})
		}
		for _, id := range body.SeatIDs {
			refs = append(refs, repository.SeatRef{SeatID: id})
		}
	} else {
		ref := repository.SeatRef{TripID: body.TripID, Position: body.Position}
		if !ref.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids or trip_id with position is required"})
		}
		refs = append(refs, ref)
	}

	ctx := c.Request().Context()
	expiresAt := time.Now().UTC().Add(h.Watchdog.HoldTTL())
	results := make([]holdResult, 0, len(refs))
	status := http.StatusOK
	for _, ref := range refs {
		seat, err := h.SeatRepo.Resolve(ctx, ref)
		if err != nil {
			if err == repository.ErrSeatNotFound {
				results = append(results, holdResult{
					SeatID:   ref.SeatID,
					TripID:   ref.TripID,
					Position: ref.Position,
					Error:    "seat not found",
				})
				if status == http.StatusOK {
					status = http.StatusNotFound
				}
				continue
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		switch err := h.SeatRepo.Hold(ctx, seat.ID, userID, expiresAt); err {
		case nil:
			h.Watchdog.Schedule(seat.ID)
			results = append(results, holdResult{SeatID: seat.ID, Position: seat.Position, Held: true})
		case repository.ErrSeatConflict:
			results = append(results, holdResult{SeatID: seat.ID, Position: seat.Position, Error: "seat is already held"})
			if status == http.StatusOK {
				status = http.StatusConflict
			}
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to hold seat"})
		}
	}
	return c.JSON(status, echo.Map{
		"expires_at": expiresAt.Format(time.RFC3339),
		"results":    results,
	})
}

// Confirm handles POST /v1/seats/confirm.  It moves a HOLDING seat
// to BOOKED; only the user who placed the hold may confirm it, and
// the ownership check travels inside the same conditional write.
func (h *SeatHandler) Confirm(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body seatRefReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !body.ref().Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id or trip_id with position is required"})
	}
	ctx := c.Request().Context()
	seat, err := h.SeatRepo.Resolve(ctx, body.ref())
	if err != nil {
		if err == repository.ErrSeatNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	switch err := h.SeatRepo.ConfirmHold(ctx, seat.ID, userID); err {
	case nil:
	case repository.ErrSeatConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat is not held by you"})
	case repository.ErrSeatNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to confirm seat"})
	}
	updated, err := h.SeatRepo.GetByID(ctx, seat.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "seat booked successfully", "seat": updated})
}

// Pay handles POST /v1/seats/pay, the legacy direct-pay path outside
// the gateway flow.  The seat may be paid when it is FREE or when
// the caller already holds it; any other claim is a conflict and the
// seat is left untouched.  A uuid-referenced Payment record tracks
// the charge.
func (h *SeatHandler) Pay(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body seatRefReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !body.ref().Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_id or trip_id with position is required"})
	}
	ctx := c.Request().Context()
	seat, err := h.SeatRepo.Resolve(ctx, body.ref())
	if err != nil {
		if err == repository.ErrSeatNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	trip, err := h.TripRepo.GetByID(ctx, seat.TripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	switch err := h.SeatRepo.MarkPaidDirect(ctx, seat.ID, userID); err {
	case nil:
	case repository.ErrSeatConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat is no longer available"})
	case repository.ErrSeatNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to mark seat paid"})
	}
	h.Watchdog.Cancel(seat.ID)

	payment := &model.Payment{
		Reference:   uuid.NewString(),
		AmountMinor: trip.PriceMinor,
		TripID:      trip.ID,
		SeatIDs:     []uint64{seat.ID},
		Status:      model.PaymentStatusSuccess,
	}
	if err := h.PaymentRepo.Create(ctx, payment); err != nil {
		// The seat transition stands; the tracking record is best effort.
		c.Logger().Errorf("direct-pay payment record for seat %d: %v", seat.ID, err)
	}
	updated, err := h.SeatRepo.GetByID(ctx, seat.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":   "seat payment confirmed",
		"seat":      updated,
		"reference": payment.Reference,
	})
}

// Status handles POST /v1/seats/status.  It reports the hold/booked
// flags of each requested seat; unknown ids are reported per item
// instead of failing the whole request.
func (h *SeatHandler) Status(c echo.Context) error {
	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}
	items, err := h.SeatRepo.StatusByIDs(c.Request().Context(), body.SeatIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
