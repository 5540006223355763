package middleware // middleware contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth returns an Echo middleware that validates a Bearer season
// token and injects its claims into the request context.  The
// provided secret must match the one used when issuing tokens.
// Handlers and downstream middleware read the values via
// c.Get("user_id"), c.Get("role"), c.Get("season_id"),
// c.Get("season_role") and c.Get("sid").
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the
			// JWT; anything else is a 401.
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with HS256 and our secret; reject any other
			// signing method.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			// Expose the scope claims to handlers.  Numeric claims
			// arrive as float64; type normalization is left to the
			// claimUint helper used downstream.
			c.Set("user_id", claims["sub"])
			c.Set("role", claims["role"])
			c.Set("season_id", claims["season_id"])
			c.Set("season_role", claims["season_role"])
			c.Set("sid", claims["sid"])
			return next(c)
		}
	}
}
