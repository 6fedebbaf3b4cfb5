// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/ecovolt/ecovolt-backend/internal/handler"
	"github.com/ecovolt/ecovolt-backend/internal/metrics"
	"github.com/ecovolt/ecovolt-backend/internal/middleware"
	"github.com/ecovolt/ecovolt-backend/internal/model"
)

// Deps carries everything the route table needs.  RateLimit and Cache may be
// nil (both degrade to pass-through when Redis is not configured).
type Deps struct {
	Auth      *handler.AuthHandler
	Stations  *handler.StationHandler
	Geo       *handler.GeoHandler
	Health    *handler.HealthHandler
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// RegisterRoutes registers the full route table.  Admin-only collection
// routes (/pending, /deletion-requests, ...) are declared before /:id so the
// literal segments win over the parameter match.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.Use(metrics.HTTPMiddleware())

	// Infra endpoints outside the /api prefix.
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	jwtAuth := middleware.JWTAuth(d.JWTSecret)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	// Auth.  Credential endpoints carry the rate limiter so password
	// guessing burns through the bucket, not the user table.
	auth := e.Group("/api/auth")
	if d.RateLimit != nil {
		auth.Use(d.RateLimit)
	}
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout, jwtAuth)
	auth.GET("/me", d.Auth.Me, jwtAuth)
	auth.PUT("/password", d.Auth.ChangePassword, jwtAuth)

	// Chargers.
	chargers := e.Group("/api/chargers")
	chargers.GET("/health", d.Health.DBHealth)
	if d.Cache != nil {
		chargers.GET("", d.Stations.List, d.Cache)
	} else {
		chargers.GET("", d.Stations.List)
	}

	// Admin review queues, before the /:id routes.
	chargers.GET("/pending", d.Stations.ListPending, jwtAuth, adminOnly)
	chargers.GET("/pending-counts", d.Stations.PendingCounts, jwtAuth, adminOnly)
	chargers.GET("/deletion-requests", d.Stations.ListDeletionRequests, jwtAuth, adminOnly)
	chargers.POST("/deletion-requests/:id/approve", d.Stations.ApproveDeletion, jwtAuth, adminOnly)
	chargers.POST("/deletion-requests/:id/reject", d.Stations.RejectDeletion, jwtAuth, adminOnly)

	chargers.POST("", d.Stations.Create, jwtAuth)
	chargers.GET("/:id", d.Stations.Get)
	chargers.PUT("/:id", d.Stations.Update, jwtAuth)
	chargers.DELETE("/:id", d.Stations.Delete, jwtAuth)
	chargers.POST("/:id/approve", d.Stations.Approve, jwtAuth, adminOnly)
	chargers.POST("/:id/reject", d.Stations.Reject, jwtAuth, adminOnly)

	// Geocoding proxy, authenticated.
	geo := e.Group("/api/geocoding", jwtAuth)
	geo.GET("/search", d.Geo.Search)
	geo.GET("/coordinates", d.Geo.Coordinates)
	geo.GET("/reverse", d.Geo.Reverse)
	geo.GET("/validate", d.Geo.Validate)
}
