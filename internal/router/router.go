package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/orromotors/bus-seat-reservation/internal/config"
	"github.com/orromotors/bus-seat-reservation/internal/handler"
	"github.com/orromotors/bus-seat-reservation/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers unauthenticated browse endpoints so guests
// can inspect a trip and its seat map before signing in.
func RegisterPublic(e *echo.Echo, t *handler.TripHandler, s *handler.SeatHandler) {
	e.GET("/v1/trips/:id", t.Get)
	e.GET("/v1/trips/:id/seats/available", s.ListAvailable)
	e.POST("/v1/seats/status", s.Status)
}

// RegisterAPI registers the authenticated seat, payment, booking and
// trip-management routes.  All of them sit behind JWTAuth; trip
// management additionally requires the ADMIN role.  The Redis-backed
// token bucket throttles the hold and payment routes, the ones a
// polling frontend hammers during seat selection.
func RegisterAPI(e *echo.Echo, s *handler.SeatHandler, p *handler.PaymentHandler, b *handler.BookingHandler, t *handler.TripHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))

	limited := middleware.NewTokenBucket(rlCfg, rdb)

	auth.POST("/seats/hold", s.Hold, limited)
	auth.POST("/seats/confirm", s.Confirm)
	auth.POST("/seats/pay", s.Pay)

	auth.POST("/payments/initialize", p.Initialize, limited)
	auth.POST("/payments/verify", p.Verify, limited)

	auth.GET("/my-bookings", b.ListMine)

	admin := e.Group("/v1/trips")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.POST("", t.Create)
	admin.DELETE("/:id", t.Delete)
	admin.PATCH("/:id/status", t.UpdateStatus)
}
