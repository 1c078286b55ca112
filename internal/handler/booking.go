package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/orromotors/bus-seat-reservation/internal/repository"
)

// BookingHandler serves the booking history of the authenticated
// customer.
type BookingHandler struct {
	BookingRepo *repository.BookingRepo
}

func NewBookingHandler(bookingRepo *repository.BookingRepo) *BookingHandler {
	if bookingRepo == nil {
		panic("nil BookingRepo passed to NewBookingHandler")
	}
	return &BookingHandler{BookingRepo: bookingRepo}
}

// ListMine handles GET /v1/my-bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.BookingRepo.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}
