// Package queue defines message payloads exchanged over the message
// broker and the background consumer that records them.
package queue

// ReservationApprovedEvent is published when an organizer approves a
// reservation. It carries enough information for downstream consumers
// to log or notify without querying the primary database.
type ReservationApprovedEvent struct {
	ReservationID uint64   `json:"reservation_id"`
	UserID        uint64   `json:"user_id"`
	ScheduleID    uint64   `json:"schedule_id"`
	PostTitle     string   `json:"post_title"`
	SeatCodes     []string `json:"seats"`
	ApprovedAt    string   `json:"approved_at"`
}

// ReservationRefundedEvent is published when a refund request is
// approved and the reservation's seats are released.
type ReservationRefundedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	ScheduleID    uint64 `json:"schedule_id"`
	PostTitle     string `json:"post_title"`
	RefundedAt    string `json:"refunded_at"`
}
