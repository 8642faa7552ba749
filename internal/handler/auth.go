package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amtorres/mindmap-api/internal/auth"
	"github.com/amtorres/mindmap-api/internal/repository"
)

// AuthHandler bundles the dependencies of the authentication endpoints: the
// credential store and the token codec carrying the per-process signing key.
type AuthHandler struct {
	Users UserStore
	Codec *auth.TokenCodec
}

func NewAuthHandler(users UserStore, codec *auth.TokenCodec) *AuthHandler {
	return &AuthHandler{Users: users, Codec: codec}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerReq struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// issueSession signs a token for the user and attaches the session cookie.
func (h *AuthHandler) issueSession(c echo.Context, u repository.User) (string, error) {
	token, err := h.Codec.Issue(auth.Identity{Email: u.Email, UserID: u.ID, Name: u.Name})
	if err != nil {
		return "", err
	}
	c.SetCookie(auth.AttachCookie(token, c.IsTLS()))
	return token, nil
}

// Login handles POST /api/auth/login. On success the token travels back
// twice: in the response body and in the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Email and password required")
	}
	if req.Email == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "Email and password required")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return errorJSON(c, http.StatusUnauthorized, "Invalid credentials")
		}
		log.Printf("auth: login query failed: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Internal server error")
	}

	token, err := h.issueSession(c, u)
	if err != nil {
		log.Printf("auth: token issue failed: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": userJSON(u), "token": token})
}

// Register handles POST /api/auth/register. After the insert the user is
// re-authenticated so the response carries the canonical stored record.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Name, email and password required")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "Name, email and password required")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, err := h.Users.Create(ctx, req.Name, req.Email, req.Password); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return errorJSON(c, http.StatusConflict, "Email already registered")
		}
		log.Printf("auth: register failed: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Internal server error")
	}

	u, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		log.Printf("auth: post-register authenticate failed: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Internal server error")
	}

	token, err := h.issueSession(c, u)
	if err != nil {
		log.Printf("auth: token issue failed: %v", err)
		return errorJSON(c, http.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"user":    userJSON(u),
		"token":   token,
		"message": "User registered successfully",
	})
}

// Verify handles POST /api/auth/verify: a pure probe that checks the
// session cookie without injecting an identity anywhere.
func (h *AuthHandler) Verify(c echo.Context) error {
	token, ok := auth.ExtractToken(c.Request())
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "No token provided")
	}
	if _, err := h.Codec.Verify(token); err != nil {
		return errorJSON(c, http.StatusUnauthorized, "Invalid token")
	}
	return c.JSON(http.StatusOK, echo.Map{"valid": true})
}

// Logout handles POST /api/logout. It clears the cookie unconditionally and
// succeeds even when no session existed; the token itself simply expires.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(auth.ClearCookie(c.IsTLS()))
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// NotSpecified answers POST /api/auth with no action segment.
func (h *AuthHandler) NotSpecified(c echo.Context) error {
	return errorJSON(c, http.StatusBadRequest, "Endpoint not specified")
}

// NotFound answers unknown /api/auth/* sub-paths.
func (h *AuthHandler) NotFound(c echo.Context) error {
	return errorJSON(c, http.StatusNotFound, "Endpoint not found")
}
