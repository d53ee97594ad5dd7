// Package router registers the HTTP routes and their middleware chains.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/chenzhe/smart-parking/internal/config"
	"github.com/chenzhe/smart-parking/internal/handler"
	"github.com/chenzhe/smart-parking/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication or
// dependencies beyond Echo itself.
func RegisterRoutes(e *echo.Echo) {
	// Liveness probe for load balancers and monitoring.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the auth endpoints. Register, login and refresh are
// open; /v1/me sits behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterParking wires the parking endpoints. The status view is public
// and sits behind the Redis response cache; reserve/cancel/list require a
// valid access token.
func RegisterParking(e *echo.Echo, sh *handler.StatusHandler, rh *handler.ReservationHandler,
	jwtSecret string, cacheCfg config.CacheConfig, rdb *redis.Client) {

	e.GET("/v1/parking/status", sh.GetStatus, middleware.NewResponseCache(cacheCfg, rdb))

	g := e.Group("/v1/reservations")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.POST("", rh.Reserve)
	g.DELETE("", rh.Cancel)
	g.GET("", rh.List)
}
