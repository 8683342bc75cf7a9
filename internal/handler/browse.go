package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagepass/seat-reservation/internal/service"
)

// BrowseHandler serves the read-side endpoints shoppers use before
// booking: schedules, seat maps, ticket options and availability.
type BrowseHandler struct {
	svc *service.ReservationService
}

func NewBrowseHandler(svc *service.ReservationService) *BrowseHandler {
	return &BrowseHandler{svc: svc}
}

// GetSchedules handles GET /v1/posts/:postID/schedules.
func (h *BrowseHandler) GetSchedules(c echo.Context) error {
	postID, err := pathID(c, "postID")
	if err != nil {
		return writeError(c, err)
	}
	scheds, err := h.svc.GetSchedules(c.Request().Context(), postID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"schedules": scheds})
}

// GetSeatMap handles GET /v1/schedules/:scheduleID/seats. Codes missing
// from the response are available.
func (h *BrowseHandler) GetSeatMap(c echo.Context) error {
	scheduleID, err := pathID(c, "scheduleID")
	if err != nil {
		return writeError(c, err)
	}
	seats, err := h.svc.GetSeatMap(c.Request().Context(), scheduleID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": seats})
}

// GetTicketOptions handles GET /v1/posts/:postID/ticket-options.
func (h *BrowseHandler) GetTicketOptions(c echo.Context) error {
	postID, err := pathID(c, "postID")
	if err != nil {
		return writeError(c, err)
	}
	opts, err := h.svc.GetTicketOptions(c.Request().Context(), postID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket_options": opts})
}

// CheckAvailability handles GET /v1/posts/:postID/availability for the
// authenticated user.
func (h *BrowseHandler) CheckAvailability(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	postID, err := pathID(c, "postID")
	if err != nil {
		return writeError(c, err)
	}
	avail, err := h.svc.CheckAvailability(c.Request().Context(), userID, postID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, avail)
}
