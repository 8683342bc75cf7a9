// Package handler exposes the reservation system over HTTP. Handlers
// bind and validate request shapes, delegate to the service layer, and
// translate domain errors into status codes.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/stagepass/seat-reservation/internal/model"
)

// currentUser extracts the authenticated user ID placed in the context
// by the JWT middleware. The claim arrives as whatever type the token
// encoder used, so several numeric shapes are accepted.
func currentUser(c echo.Context) (uint64, bool) {
	switch v := c.Get("user_id").(type) {
	case uint64:
		return v, true
	case float64:
		return uint64(v), true
	case int:
		return uint64(v), true
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			return id, true
		}
	}
	return 0, false
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, model.Validationf("invalid %s", name)
	}
	return id, nil
}

// writeError maps a domain error onto an HTTP response. Conflicts and
// lifecycle violations are 409, validation failures 400, lock-wait
// timeouts 503 with a Retry-After hint.
func writeError(c echo.Context, err error) error {
	var ve *model.ValidationError
	var sc *model.SeatConflictError
	var it *model.InvalidTransitionError

	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_failed", "message": ve.Reason})
	case errors.As(err, &sc):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "seat_conflict",
			"message":   sc.Error(),
			"seat_code": sc.Code,
			"status":    string(sc.Status),
		})
	case errors.As(err, &it):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_transition", "message": it.Error()})
	case errors.Is(err, model.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid_state", "message": err.Error()})
	case errors.Is(err, model.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	case errors.Is(err, model.ErrLockTimeout):
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "lock_timeout", "message": "please retry your booking"})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}
