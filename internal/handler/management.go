package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagepass/seat-reservation/internal/model"
	"github.com/stagepass/seat-reservation/internal/service"
)

// ManagementHandler serves the organizer endpoints: decision making on
// reservations, refund settlement and administrative seat blocks.
type ManagementHandler struct {
	svc    *service.ReservationService
	locker *service.SeatLocker
}

func NewManagementHandler(svc *service.ReservationService, locker *service.SeatLocker) *ManagementHandler {
	return &ManagementHandler{svc: svc, locker: locker}
}

type decisionRequest struct {
	Decision string `json:"decision"` // APPROVED or REJECTED
}

// UpdateStatus handles PATCH /v1/manage/reservations/:reservationID.
func (h *ManagementHandler) UpdateStatus(c echo.Context) error {
	actorID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	reservationID, err := pathID(c, "reservationID")
	if err != nil {
		return writeError(c, err)
	}
	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body"})
	}
	if err := h.svc.UpdateReservationStatus(c.Request().Context(), actorID, reservationID, req.Decision); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation_id": reservationID, "status": req.Decision})
}

type refundDecisionRequest struct {
	Approve bool `json:"approve"`
}

// ProcessRefund handles POST /v1/manage/reservations/:reservationID/refund.
func (h *ManagementHandler) ProcessRefund(c echo.Context) error {
	actorID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	reservationID, err := pathID(c, "reservationID")
	if err != nil {
		return writeError(c, err)
	}
	var req refundDecisionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body"})
	}
	if err := h.svc.ProcessRefund(c.Request().Context(), actorID, reservationID, req.Approve); err != nil {
		return writeError(c, err)
	}
	status := string(model.ReservationApproved)
	if req.Approve {
		status = string(model.ReservationRefunded)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation_id": reservationID, "status": status})
}

// ListRequests handles GET /v1/manage/posts/:postID/reservations.
func (h *ManagementHandler) ListRequests(c echo.Context) error {
	actorID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	postID, err := pathID(c, "postID")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.ListRequestsForPost(c.Request().Context(), actorID, postID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// ListRefundRequests handles GET /v1/manage/posts/:postID/refunds.
func (h *ManagementHandler) ListRefundRequests(c echo.Context) error {
	actorID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	postID, err := pathID(c, "postID")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.ListRefundRequests(c.Request().Context(), actorID, postID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"refund_requests": out})
}

type blockSeatsRequest struct {
	SeatCodes []string `json:"seat_codes"`
}

// BlockSeats handles POST /v1/manage/schedules/:scheduleID/blocked-seats,
// withholding seats from sale.
func (h *ManagementHandler) BlockSeats(c echo.Context) error {
	if _, ok := currentUser(c); !ok {
		return unauthorized(c)
	}
	scheduleID, err := pathID(c, "scheduleID")
	if err != nil {
		return writeError(c, err)
	}
	var req blockSeatsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body"})
	}
	if len(req.SeatCodes) == 0 {
		return writeError(c, model.Validationf("no seat codes given"))
	}
	for _, code := range req.SeatCodes {
		if !model.ValidSeatCode(code) {
			return writeError(c, model.Validationf("malformed seat code %q", code))
		}
	}
	if err := h.locker.MarkUnavailable(c.Request().Context(), scheduleID, req.SeatCodes); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"blocked": len(req.SeatCodes)})
}
