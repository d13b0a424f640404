// Package router registers every HTTP route on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-reservation/internal/authz"
	"github.com/iliyamo/event-reservation/internal/config"
	"github.com/iliyamo/event-reservation/internal/handler"
	"github.com/iliyamo/event-reservation/internal/middleware"
)

// Deps bundles what the routes need.
type Deps struct {
	JWTSecret string
	Policy    authz.Policy
	DB        handler.Pinger
	Redis     *redis.Client // nil disables cache and rate limiting
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig

	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Events       *handler.EventHandler
	Reservations *handler.ReservationHandler
	Reviews      *handler.ReviewHandler
}

// Register mounts all routes.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.DB))

	cache := middleware.NewResponseCache(d.Cache, d.Redis)
	jwt := middleware.JWTAuth(d.JWTSecret)
	// can authenticates the caller and checks the role grant.
	can := func(res authz.Resource, act authz.Action) []echo.MiddlewareFunc {
		return []echo.MiddlewareFunc{jwt, middleware.Authorize(d.Policy, res, act)}
	}

	registerAuth(e, d, jwt)
	registerUsers(e, d, can)
	registerEvents(e, d, can, cache)
	registerReservations(e, d, can)
	registerReviews(e, d, can)
}

type gate func(authz.Resource, authz.Action) []echo.MiddlewareFunc

func registerAuth(e *echo.Echo, d Deps, jwt echo.MiddlewareFunc) {
	g := e.Group("/auth", middleware.RateLimit(d.RateLimit, d.Redis))
	g.POST("/login", d.Auth.Login)
	g.POST("/refresh-token", d.Auth.RefreshToken)
	g.POST("/rotate", d.Auth.Rotate)
	g.POST("/logout", d.Auth.Logout, jwt)
	g.GET("/me", d.Auth.Me, jwt)
}

func registerUsers(e *echo.Echo, d Deps, can gate) {
	e.POST("/users", d.Users.Register)

	g := e.Group("/users")
	g.GET("", d.Users.List, can(authz.ResourceUser, authz.ActionList)...)
	g.POST("/find-by-email", d.Users.FindByEmail, can(authz.ResourceUser, authz.ActionManageAny)...)
	g.GET("/:id", d.Users.Get, can(authz.ResourceUser, authz.ActionRead)...)
	g.PUT("/:id", d.Users.Update, can(authz.ResourceUser, authz.ActionUpdate)...)
	g.DELETE("/:id", d.Users.Delete, can(authz.ResourceUser, authz.ActionDelete)...)
}

func registerEvents(e *echo.Echo, d Deps, can gate, cache *middleware.ResponseCache) {
	e.GET("/events/public/sorted", d.Events.PublicSorted, cache.Cache())

	g := e.Group("/events")
	g.GET("", d.Events.List, can(authz.ResourceEvent, authz.ActionList)...)
	g.GET("/:id", d.Events.Get, can(authz.ResourceEvent, authz.ActionRead)...)
	g.POST("", d.Events.Create, append(can(authz.ResourceEvent, authz.ActionCreate), cache.Invalidate())...)
	g.PUT("/:id", d.Events.Update, append(can(authz.ResourceEvent, authz.ActionUpdate), cache.Invalidate())...)
	g.DELETE("/:id", d.Events.Delete, append(can(authz.ResourceEvent, authz.ActionDelete), cache.Invalidate())...)
}

func registerReservations(e *echo.Echo, d Deps, can gate) {
	g := e.Group("/reservations")
	g.POST("", d.Reservations.Create, can(authz.ResourceReservation, authz.ActionCreate)...)
	g.GET("/user/:userId", d.Reservations.ListByUser, can(authz.ResourceReservation, authz.ActionList)...)
	g.GET("/event/:eventId", d.Reservations.ListByEvent, can(authz.ResourceReservation, authz.ActionManageAny)...)
	g.GET("/:id", d.Reservations.Get, can(authz.ResourceReservation, authz.ActionRead)...)
	g.GET("/:id/ticket", d.Reservations.Ticket, can(authz.ResourceReservation, authz.ActionRead)...)
	g.PUT("/:id/cancel", d.Reservations.Cancel, can(authz.ResourceReservation, authz.ActionUpdate)...)
}

func registerReviews(e *echo.Echo, d Deps, can gate) {
	g := e.Group("/reviews")
	g.POST("", d.Reviews.Create, can(authz.ResourceReview, authz.ActionCreate)...)
	g.DELETE("/:id", d.Reviews.Delete, can(authz.ResourceReview, authz.ActionDelete)...)
	g.GET("/event/:eventId", d.Reviews.ListByEvent, can(authz.ResourceReview, authz.ActionList)...)
}
