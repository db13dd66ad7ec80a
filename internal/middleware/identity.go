package middleware

// identity.go holds the context keys JWTAuth fills and the accessors
// handlers and other middleware use to read them.

import "github.com/labstack/echo/v4"

const (
	ctxAccountID = "user_id"
	ctxRole      = "role"
	ctxEmail     = "email"
)

// AccountID returns the authenticated account id, or "" for anonymous
// requests.
func AccountID(c echo.Context) string {
	s, _ := c.Get(ctxAccountID).(string)
	return s
}

// Role returns the role claim of the access token.
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}

// Email returns the email claim of the access token, if it carried one.
func Email(c echo.Context) string {
	s, _ := c.Get(ctxEmail).(string)
	return s
}

// currentUserID is the identity used in rate-limit keys.
func currentUserID(c echo.Context) string {
	if id := AccountID(c); id != "" {
		return id
	}
	return "anon"
}
