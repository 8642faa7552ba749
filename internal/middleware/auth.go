// Package middleware contains the reusable request-level checks applied to
// protected routes, most importantly the authorization gate.
package middleware

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/amtorres/mindmap-api/internal/auth"
)

// identityKey is the context key under which the gate stores the verified
// principal. Handlers read it back through Identity().
const identityKey = "identity"

// unauthorizedBody is the one response every gate failure produces. Missing
// cookie, bad signature and expiry are indistinguishable to the client; the
// cause is only logged server-side.
var unauthorizedBody = echo.Map{
	"error":   "Unauthorized",
	"message": "Invalid or expired token",
}

// AuthGate returns the middleware that protects resource routes. It pulls
// the token out of the session cookie, verifies it with the codec and makes
// the resulting Identity available to the handler chain. The check has no
// side effects and may run any number of times per request.
func AuthGate(codec *auth.TokenCodec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := auth.ExtractToken(c.Request())
			if !ok {
				log.Printf("auth: %s %s rejected: no session cookie", c.Request().Method, c.Path())
				return c.JSON(http.StatusUnauthorized, unauthorizedBody)
			}
			id, err := codec.Verify(token)
			if err != nil {
				log.Printf("auth: %s %s rejected: %v", c.Request().Method, c.Path(), err)
				return c.JSON(http.StatusUnauthorized, unauthorizedBody)
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}

// Identity returns the principal stored by AuthGate, or false when the
// request never passed the gate.
func Identity(c echo.Context) (auth.Identity, bool) {
	id, ok := c.Get(identityKey).(auth.Identity)
	return id, ok
}
