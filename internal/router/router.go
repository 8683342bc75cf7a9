// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/stagepass/seat-reservation/internal/config"
	"github.com/stagepass/seat-reservation/internal/handler"
	"github.com/stagepass/seat-reservation/internal/middleware"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Health      *handler.HealthHandler
	Browse      *handler.BrowseHandler
	Reservation *handler.ReservationHandler
	Manage      *handler.ManagementHandler
	JWTSecret   string
	Redis       *redis.Client
}

// Register mounts all routes on the echo instance. Read endpoints sit
// behind the Redis response cache; the checkout endpoint sits behind
// the token-bucket rate limiter so a single client cannot hammer the
// seat-locking path.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", d.Health.Healthz)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis)
	auth := middleware.JWTAuth(d.JWTSecret)

	v1 := e.Group("/v1", auth)

	// Browse (read side). Seat maps change on every booking, so the
	// cache TTL stays short; see CACHE_TTL.
	v1.GET("/posts/:postID/schedules", d.Browse.GetSchedules, cache)
	v1.GET("/posts/:postID/ticket-options", d.Browse.GetTicketOptions, cache)
	v1.GET("/posts/:postID/availability", d.Browse.CheckAvailability)
	v1.GET("/schedules/:scheduleID/seats", d.Browse.GetSeatMap, cache)

	// Shopper reservations.
	v1.POST("/reservations", d.Reservation.Create, limiter)
	v1.GET("/reservations", d.Reservation.List)
	v1.GET("/reservations/:reservationID", d.Reservation.Get)
	v1.GET("/schedules/:scheduleID/reservations", d.Reservation.ListForSchedule)
	v1.POST("/reservations/:reservationID/payment", d.Reservation.ConfirmPayment)
	v1.DELETE("/reservations/:reservationID", d.Reservation.Cancel)
	v1.POST("/reservations/:reservationID/refund", d.Reservation.RequestRefund)

	// Organizer management. Ownership of the post is enforced in the
	// service; the role gate keeps shoppers off the surface entirely.
	manage := v1.Group("/manage", middleware.RequireRole("organizer", "admin"))
	manage.PATCH("/reservations/:reservationID", d.Manage.UpdateStatus)
	manage.POST("/reservations/:reservationID/refund", d.Manage.ProcessRefund)
	manage.GET("/posts/:postID/reservations", d.Manage.ListRequests)
	manage.GET("/posts/:postID/refunds", d.Manage.ListRefundRequests)
	manage.POST("/schedules/:scheduleID/blocked-seats", d.Manage.BlockSeats)
}
