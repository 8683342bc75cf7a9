package model

import "time"

// ReservationStatus enumerates the lifecycle of a reservation request.
// REJECTED and REFUNDED are terminal; a row is never updated after
// reaching either.
type ReservationStatus string

const (
	ReservationPending         ReservationStatus = "PENDING"
	ReservationApproved        ReservationStatus = "APPROVED"
	ReservationRejected        ReservationStatus = "REJECTED"
	ReservationRefundRequested ReservationStatus = "REFUND_REQUESTED"
	ReservationRefunded        ReservationStatus = "REFUNDED"
)

// ParseReservationDecision maps an organizer's decision string onto a
// target status. Only APPROVED and REJECTED are valid decisions.
func ParseReservationDecision(s string) (ReservationStatus, bool) {
	switch ReservationStatus(s) {
	case ReservationApproved, ReservationRejected:
		return ReservationStatus(s), true
	}
	return "", false
}

// ReservationRequest is one line of a checkout: a count of tickets
// ordered against a single ticket option for a schedule. A checkout
// with several ticket options produces several rows sharing the same
// status; selected seats are linked to the first ("primary") row.
type ReservationRequest struct {
	ID               uint64            // reservation_requests.id
	ScheduleID       uint64            // reservation_requests.schedule_id
	TicketOptionID   uint64            // reservation_requests.ticket_option_id
	UserID           uint64            // reservation_requests.user_id
	Count            int               // number of tickets on this line
	Status           ReservationStatus // lifecycle state
	PaymentCompleted bool              // set by the payment collaborator
	CreatedAt        time.Time         // reservation_requests.created_at (UTC)
}

// Approve moves PENDING -> APPROVED. Approval additionally requires the
// payment to have been confirmed; an unpaid reservation stays PENDING.
func (r *ReservationRequest) Approve() error {
	if r.Status != ReservationPending || !r.PaymentCompleted {
		return ErrInvalidState
	}
	r.Status = ReservationApproved
	return nil
}

// Reject moves PENDING -> REJECTED (terminal).
func (r *ReservationRequest) Reject() error {
	if r.Status != ReservationPending {
		return ErrInvalidState
	}
	r.Status = ReservationRejected
	return nil
}

// RequestRefund moves APPROVED -> REFUND_REQUESTED.
func (r *ReservationRequest) RequestRefund() error {
	if r.Status != ReservationApproved {
		return ErrInvalidState
	}
	r.Status = ReservationRefundRequested
	return nil
}

// CompleteRefund moves REFUND_REQUESTED -> REFUNDED (terminal).
func (r *ReservationRequest) CompleteRefund() error {
	if r.Status != ReservationRefundRequested {
		return ErrInvalidState
	}
	r.Status = ReservationRefunded
	return nil
}

// DenyRefund restores REFUND_REQUESTED -> APPROVED when the organizer
// declines the refund.
func (r *ReservationRequest) DenyRefund() error {
	if r.Status != ReservationRefundRequested {
		return ErrInvalidState
	}
	r.Status = ReservationApproved
	return nil
}

// ReservationSeatLink joins a reservation request to a locked seat. A
// seat may be linked to at most one active reservation at a time; the
// link row must always be deleted before the seat row it references.
type ReservationSeatLink struct {
	ReservationID uint64 // reservation_seats.reservation_request_id
	SeatID        uint64 // reservation_seats.seat_id
}
