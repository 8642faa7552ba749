// Package handler implements the HTTP endpoints of the mind-map API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/amtorres/mindmap-api/internal/auth"
	mw "github.com/amtorres/mindmap-api/internal/middleware"
	"github.com/amtorres/mindmap-api/internal/repository"
)

// dbTimeout bounds every store call made from a handler.
const dbTimeout = 5 * time.Second

// timeLayout is the timestamp format the frontend already parses.
const timeLayout = "2006-01-02 15:04:05"

// UserStore is the credential store as seen by the auth and user endpoints.
// *repository.UserRepo satisfies it; tests substitute in-memory fakes.
type UserStore interface {
	Create(ctx context.Context, name, email, password string) (uint64, error)
	Authenticate(ctx context.Context, email, password string) (repository.User, error)
	GetByID(ctx context.Context, id uint64) (repository.User, error)
	Update(ctx context.Context, id uint64, name, password string) error
	Delete(ctx context.Context, id uint64) error
}

// MindMapStore is the resource store as seen by the mind-map endpoints.
type MindMapStore interface {
	Create(ctx context.Context, userID uint64, title, data string) (uint64, error)
	GetByIDAndOwner(ctx context.Context, id, userID uint64) (repository.MindMap, error)
	ListByOwner(ctx context.Context, userID uint64) ([]repository.MindMap, error)
	Update(ctx context.Context, id, userID uint64, title, data string) error
	Delete(ctx context.Context, id, userID uint64) error
}

// errorJSON writes the uniform error body {"error": ..., "status": ...}.
// Messages stay generic: no field names, no internal detail.
func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg, "status": status})
}

// identityFrom returns the principal injected by the auth gate. Gated
// routes always have one; a miss means a wiring bug, reported as 401 by the
// caller.
func identityFrom(c echo.Context) (auth.Identity, bool) {
	return mw.Identity(c)
}

// userJSON shapes a user record for responses. The password hash is never
// included.
func userJSON(u repository.User) echo.Map {
	return echo.Map{"id": u.ID, "nombre": u.Name, "email": u.Email}
}

// reqContext derives the bounded context used for store calls.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// Health is the liveness endpoint used by load balancers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
