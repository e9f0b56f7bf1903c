package middlewares

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lorepo/lorepo/internal/lrerror"
)

// CurrentTokenContextKey is the key to retrieve the current_token from echo.Context.
const CurrentTokenContextKey = "current_token"

// A TokenConfig defines how the ownership token is found.
type TokenConfig struct {
	// NoAuth allows requests without Authorization header,
	// they are served with FallbackToken.
	NoAuth        bool
	FallbackToken string
}

// Token returns a middleware that extracts the ownership token from the Authorization header.
// It stores current_token into echo.Context.
func Token(config TokenConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := token(c.Request().Header.Get(echo.HeaderAuthorization))

			if token == "" {
				if !config.NoAuth {
					return lrerror.MissingAuthorization()
				}
				token = config.FallbackToken
			}

			c.Set(CurrentTokenContextKey, token)
			return next(c)
		}
	}
}

// token accepts both `Bearer <token>` and raw token values.
func token(authorization string) string {
	authorization = strings.TrimSpace(authorization)

	parts := strings.SplitN(authorization, " ", 2)
	if !strings.EqualFold(parts[0], "bearer") {
		return authorization
	}

	// The scheme alone carries no credential.
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
