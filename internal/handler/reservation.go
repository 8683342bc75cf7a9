package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagepass/seat-reservation/internal/service"
)

// ReservationHandler serves the shopper-facing reservation endpoints:
// checkout, listing, cancellation and refund requests.
type ReservationHandler struct {
	svc *service.ReservationService
}

func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

type createReservationRequest struct {
	PostID           uint64                `json:"post_id"`
	ScheduleID       uint64                `json:"schedule_id"`
	SeatCodes        []string              `json:"seat_codes"`
	Orders           []service.TicketOrder `json:"orders"`
	PaymentCompleted bool                  `json:"is_payment_completed"`
}

// Create handles POST /v1/reservations. Validation, seat locking and
// persistence all live in the service; a seat conflict surfaces as 409
// with the contested code.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	var req createReservationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body"})
	}
	summary, err := h.svc.CreateReservation(c.Request().Context(), userID, req.PostID, req.ScheduleID, req.SeatCodes, req.Orders, req.PaymentCompleted)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, summary)
}

// List handles GET /v1/reservations for the authenticated user.
func (h *ReservationHandler) List(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	out, err := h.svc.ListUserReservations(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// Get handles GET /v1/reservations/:reservationID.
func (h *ReservationHandler) Get(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	reservationID, err := pathID(c, "reservationID")
	if err != nil {
		return writeError(c, err)
	}
	summary, err := h.svc.GetReservation(c.Request().Context(), userID, reservationID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// ListForSchedule handles GET /v1/schedules/:scheduleID/reservations,
// the caller's reservations for one sitting.
func (h *ReservationHandler) ListForSchedule(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	scheduleID, err := pathID(c, "scheduleID")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.svc.ListUserReservationsForSchedule(c.Request().Context(), userID, scheduleID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// ConfirmPayment handles POST /v1/reservations/:reservationID/payment,
// called once the payment collaborator reports settlement.
func (h *ReservationHandler) ConfirmPayment(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	reservationID, err := pathID(c, "reservationID")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.svc.ConfirmPayment(c.Request().Context(), userID, reservationID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation_id": reservationID, "payment_completed": true})
}

// Cancel handles DELETE /v1/reservations/:reservationID. Only PENDING
// reservations owned by the caller can be withdrawn.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	reservationID, err := pathID(c, "reservationID")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.svc.CancelReservation(c.Request().Context(), userID, reservationID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RequestRefund handles POST /v1/reservations/:reservationID/refund.
func (h *ReservationHandler) RequestRefund(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	reservationID, err := pathID(c, "reservationID")
	if err != nil {
		return writeError(c, err)
	}
	summary, err := h.svc.RequestRefund(c.Request().Context(), userID, reservationID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
