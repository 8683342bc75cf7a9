package model

import (
	"regexp"
	"time"
)

// SeatStatus enumerates the materialized states of a seat row. AVAILABLE
// is special: an available seat has no row at all, so the value only
// appears transiently in memory (and in API responses that synthesize
// availability). PENDING, RESERVED and UNAVAILABLE are persisted.
type SeatStatus string

const (
	SeatAvailable   SeatStatus = "AVAILABLE"
	SeatPending     SeatStatus = "PENDING"
	SeatReserved    SeatStatus = "RESERVED"
	SeatUnavailable SeatStatus = "UNAVAILABLE"
)

// Seat is one bookable unit of a performance schedule. At most one row
// per (schedule_id, seat_code) may exist in the database; the unique
// constraint on that pair is the serialization point for concurrent
// booking attempts.
//
// All status changes must go through the transition methods below.
// Nothing else may assign Status directly.
type Seat struct {
	ID         uint64     // schedule_seats.id
	ScheduleID uint64     // schedule_seats.schedule_id
	Code       string     // schedule_seats.seat_code, e.g. "A1", "VIP3"
	Status     SeatStatus // schedule_seats.status
	CreatedAt  time.Time  // schedule_seats.created_at (UTC)
}

// NewPendingSeat builds a seat claimed by an in-flight booking attempt.
// The insert-first locking path persists it directly in PENDING state.
func NewPendingSeat(scheduleID uint64, code string) Seat {
	return Seat{ScheduleID: scheduleID, Code: code, Status: SeatPending, CreatedAt: time.Now().UTC()}
}

// Lock claims the seat for a booking attempt. Only an AVAILABLE seat can
// be locked; every materialized state is a conflict because a row only
// exists when some other attempt or an organizer already owns the seat.
func (s *Seat) Lock() error {
	if s.Status != SeatAvailable {
		return &SeatConflictError{Code: s.Code, Status: s.Status}
	}
	s.Status = SeatPending
	return nil
}

// Confirm finalises a claimed seat once its reservation is approved.
func (s *Seat) Confirm() error {
	if s.Status != SeatPending {
		return &InvalidTransitionError{Code: s.Code, From: s.Status, Op: "confirm"}
	}
	s.Status = SeatReserved
	return nil
}

// Release returns the seat to availability. Releasing an AVAILABLE seat
// is a no-op; releasing an UNAVAILABLE seat is rejected because
// organizer-blocked seats are never freed by booking flows. Callers are
// responsible for deleting the row afterwards: availability is the
// absence of a row.
func (s *Seat) Release() error {
	switch s.Status {
	case SeatPending, SeatReserved:
		s.Status = SeatAvailable
		return nil
	case SeatAvailable:
		return nil
	default:
		return &InvalidTransitionError{Code: s.Code, From: s.Status, Op: "release"}
	}
}

// MarkUnavailable blocks the seat administratively. There is no guard:
// organizers may block a seat in any state.
func (s *Seat) MarkUnavailable() {
	s.Status = SeatUnavailable
}

// seatCodeRe matches 1-3 uppercase letters followed by 1-3 digits.
var seatCodeRe = regexp.MustCompile(`^[A-Z]{1,3}[0-9]{1,3}$`)

// ValidSeatCode reports whether code is a well-formed seat code such as
// "A1", "B12" or "VIP3".
func ValidSeatCode(code string) bool {
	return seatCodeRe.MatchString(code)
}
