package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"hitrank/pkg/errors"
)

// LimitParam reads a positive "limit" query parameter. Zero means absent and
// leaves the default to the use case.
func LimitParam(c echo.Context) (int, error) {
	raw := c.QueryParam("limit")
	if raw == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errors.BadRequest("limit must be a positive integer", err)
	}
	return limit, nil
}
