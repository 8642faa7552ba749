package auth

import (
	"net/http"
	"time"
)

// CookieName is the reserved cookie that carries the session token.
const CookieName = "jwt"

// AttachCookie builds the Set-Cookie directive for a freshly issued token.
// HttpOnly keeps the token away from scripts; Secure mirrors whether the
// inbound request itself was secured so the cookie works in plain-HTTP dev
// setups while staying TLS-only in production.
func AttachCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenTTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
	}
}

// ExtractToken scans the request cookies for the session token. A missing
// cookie is reported as absent, not as an error; callers decide whether
// that is fatal.
func ExtractToken(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// ClearCookie builds the directive that instructs the client to drop the
// session cookie.
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
	}
}
