package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/orromotors/bus-seat-reservation/internal/model"
	"github.com/orromotors/bus-seat-reservation/internal/repository"
)

// TripHandler owns the trip management endpoints.  Create and Delete
// are admin-only; Get is public so customers can browse seat maps.
type TripHandler struct {
	TripRepo *repository.TripRepo
}

func NewTripHandler(tripRepo *repository.TripRepo) *TripHandler {
	if tripRepo == nil {
		panic("nil TripRepo passed to NewTripHandler")
	}
	return &TripHandler{TripRepo: tripRepo}
}

type createTripReq struct {
	Name            string `json:"name"`
	Bus             string `json:"bus"`
	PickupCity      string `json:"pickup_city"`
	PickupLocation  string `json:"pickup_location"`
	DropoffCity     string `json:"dropoff_city"`
	DropoffLocation string `json:"dropoff_location"`
	TakeoffDate     string `json:"takeoff_date"` // YYYY-MM-DD
	TakeoffTime     string `json:"takeoff_time"` // HH:MM
	SeatCount       uint32 `json:"seat_count"`
	PriceMinor      int64  `json:"price_minor"`
}

// Create handles POST /v1/trips.  The trip row and its full seat
// inventory are created together; seat positions are a shuffled
// permutation of 1..seat_count.
func (h *TripHandler) Create(c echo.Context) error {
	var body createTripReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name == "" || body.PickupCity == "" || body.DropoffCity == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, pickup_city and dropoff_city are required"})
	}
	if body.SeatCount == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_count must be at least 1"})
	}
	if body.PriceMinor < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_minor must not be negative"})
	}
	takeoffDate, err := time.Parse("2006-01-02", body.TakeoffDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "takeoff_date must be YYYY-MM-DD"})
	}
	if _, err := time.Parse("15:04", body.TakeoffTime); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "takeoff_time must be HH:MM"})
	}

	trip := &model.Trip{
		Name:            body.Name,
		Bus:             body.Bus,
		PickupCity:      body.PickupCity,
		PickupLocation:  body.PickupLocation,
		DropoffCity:     body.DropoffCity,
		DropoffLocation: body.DropoffLocation,
		TakeoffDate:     takeoffDate,
		TakeoffTime:     body.TakeoffTime,
		SeatCount:       body.SeatCount,
		PriceMinor:      body.PriceMinor,
	}
	if err := h.TripRepo.Create(c.Request().Context(), trip); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create trip"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "trip created successfully",
		"trip":    trip,
	})
}

// Get handles GET /v1/trips/:id and returns the trip with its seats.
func (h *TripHandler) Get(c echo.Context) error {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	ctx := c.Request().Context()
	trip, err := h.TripRepo.GetByID(ctx, tripID)
	if err != nil {
		if err == repository.ErrTripNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.TripRepo.ListSeats(ctx, tripID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"trip":  trip,
		"seats": seats,
	})
}

// Delete handles DELETE /v1/trips/:id.  The trip and its seats are
// removed in one transaction.
func (h *TripHandler) Delete(c echo.Context) error {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	if err := h.TripRepo.Delete(c.Request().Context(), tripID); err != nil {
		if err == repository.ErrTripNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete trip"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "trip deleted successfully"})
}

// UpdateStatus handles PATCH /v1/trips/:id/status.
func (h *TripHandler) UpdateStatus(c echo.Context) error {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	switch body.Status {
	case model.TripStatusScheduled, model.TripStatusOngoing, model.TripStatusCompleted, model.TripStatusCancelled:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown trip status"})
	}
	if err := h.TripRepo.UpdateStatus(c.Request().Context(), tripID, body.Status); err != nil {
		if err == repository.ErrTripNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update trip"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "trip status updated"})
}
