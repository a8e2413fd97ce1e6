package httpapi

import (
	"github.com/labstack/echo/v4"

	"horse.fit/meetups/internal/auth"
)

const adminKeyHeader = "X-Admin-Key"

// requireAdminKey guards mutating endpoints when an admin key hash is configured.
func (s *Server) requireAdminKey() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.opts.AdminAPIKeyHash == "" {
				return next(c)
			}
			if !auth.VerifyAPIKey(c.Request().Header.Get(adminKeyHeader), s.opts.AdminAPIKeyHash) {
				return failUnauthorized(c)
			}
			return next(c)
		}
	}
}
