package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amtorres/mindmap-api/internal/auth"
	"github.com/amtorres/mindmap-api/internal/repository"
)

// UserHandler serves the profile endpoints under /api/users. Both sit
// behind the auth gate; the target user is always the caller.
type UserHandler struct {
	Users UserStore
}

func NewUserHandler(users UserStore) *UserHandler {
	return &UserHandler{Users: users}
}

type updateUserReq struct {
	Name     string `json:"nombre"`
	Password string `json:"password"`
}

// Get handles GET /api/users: the profile is read back from the store so a
// rename since token issuance is reflected immediately.
func (h *UserHandler) Get(c echo.Context) error {
	id, ok := identityFrom(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
		}
		log.Printf("user: get %d failed: %v", id.UserID, err)
		return errorJSON(c, http.StatusInternalServerError, "Error getting user data")
	}
	return c.JSON(http.StatusOK, userJSON(u))
}

// Update handles PUT /api/users. Name and password are both optional, but
// at least one must be present. A new password is bcrypt-hashed by the
// store; the raw value is never logged.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := identityFrom(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" && req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "Nothing to update")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.Update(ctx, id.UserID, req.Name, req.Password); err != nil {
		log.Printf("user: update %d failed: %v", id.UserID, err)
		return errorJSON(c, http.StatusInternalServerError, "Error updating user")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "User updated successfully"})
}

// Delete handles DELETE /api/users: it removes the caller's account (the
// store cascades to their maps) and clears the session cookie, since the
// token no longer identifies anyone.
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := identityFrom(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.Delete(ctx, id.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return errorJSON(c, http.StatusNotFound, "User not found")
		}
		log.Printf("user: delete %d failed: %v", id.UserID, err)
		return errorJSON(c, http.StatusInternalServerError, "Error deleting user")
	}
	c.SetCookie(auth.ClearCookie(c.IsTLS()))
	return c.JSON(http.StatusOK, echo.Map{"message": "User deleted successfully"})
}
