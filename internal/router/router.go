// Package router wires HTTP paths to handlers and decides which groups sit
// behind the auth gate.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/amtorres/mindmap-api/internal/auth"
	"github.com/amtorres/mindmap-api/internal/config"
	"github.com/amtorres/mindmap-api/internal/handler"
	"github.com/amtorres/mindmap-api/internal/middleware"
)

// Register sets up the full route table. /api/auth/* and /api/logout are
// open; /api/mindmaps and /api/users require a verified session cookie.
func Register(e *echo.Echo, codec *auth.TokenCodec, a *handler.AuthHandler, m *handler.MindMapHandler, u *handler.UserHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Authentication endpoints. Static routes win over the wildcard, so
	// unknown sub-paths fall through to NotFound (404) and a bare POST to
	// the group root reports the missing action segment (400).
	ag := e.Group("/api/auth")
	ag.POST("/login", a.Login)
	ag.POST("/register", a.Register)
	ag.POST("/verify", a.Verify)
	ag.POST("", a.NotSpecified)
	ag.POST("/", a.NotSpecified)
	ag.POST("/*", a.NotFound)

	// Logout clears the cookie without consulting the gate: it must succeed
	// even when no valid session exists.
	e.POST("/api/logout", a.Logout)

	gate := middleware.AuthGate(codec)

	mg := e.Group("/api/mindmaps", gate, middleware.ResponseCache(cacheCfg, rdb))
	mg.GET("", m.List)
	mg.GET("/", m.List)
	mg.GET("/all", m.List)
	mg.GET("/:id", m.Get)
	mg.POST("", m.Create)
	mg.POST("/", m.Create)
	mg.PUT("", m.Update)
	mg.PUT("/", m.Update)
	mg.DELETE("/:id", m.Delete)
	mg.DELETE("", m.DeleteMissingID)
	mg.DELETE("/", m.DeleteMissingID)

	ug := e.Group("/api/users", gate)
	ug.GET("", u.Get)
	ug.PUT("", u.Update)
	ug.DELETE("", u.Delete)
}
