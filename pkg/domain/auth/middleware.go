package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
	apierr "github.com/savr-app/savr/pkg/api/types/errors"
)

const userIdContextKey = "savr/userId"

// Middleware authenticates requests by their Bearer access token and
// stores the user id in the echo context.
func Middleware(issuer *Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				return apierr.Unauthorized(`set "Authorization: Bearer <access token>"`, nil)
			}

			userId, err := issuer.VerifyAccess(token)
			if err != nil {
				return apierr.Unauthorized("access token is expired or invalid", err)
			}

			SetUserId(c, userId)
			return next(c)
		}
	}
}

// SetUserId stores the authenticated user id in the echo context.
func SetUserId(c echo.Context, userId int64) {
	c.Set(userIdContextKey, userId)
}

// UserId returns the authenticated user id set by Middleware.
// The second value is false for unauthenticated requests.
func UserId(c echo.Context) (int64, bool) {
	userId, ok := c.Get(userIdContextKey).(int64)
	return userId, ok
}
