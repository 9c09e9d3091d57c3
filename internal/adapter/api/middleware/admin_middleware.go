package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"hitrank/internal/domain/repository"
	"hitrank/pkg/errors"
)

type AdminMiddleware struct {
	store repository.Store
}

func NewAdminMiddleware(store repository.Store) *AdminMiddleware {
	return &AdminMiddleware{
		store: store,
	}
}

// AdminOnly admits callers holding the admin custom claim, or whose profile
// has the admin role.
func (m *AdminMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid := UID(c)
		if uid == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}

		if admin, _ := c.Get(ContextAdmin).(bool); admin {
			return next(c)
		}

		user, err := m.store.GetUser(c.Request().Context(), uid)
		if errors.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusForbidden, "Admin privileges required")
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to verify admin privileges")
		}

		if !user.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "Admin privileges required")
		}

		return next(c)
	}
}
