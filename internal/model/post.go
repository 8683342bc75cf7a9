package model

import "time"

// PerformancePost is an organizer's event listing. Only the fields the
// reservation flow depends on are modelled here: ownership for
// authorization, the booking window, and the per-user ticket quota.
type PerformancePost struct {
	ID                 uint64    // performance_posts.id
	UserID             uint64    // organizer who registered the post
	Title              string    // display title
	MaxTicketsPerUser  int       // per-user quota across PENDING+APPROVED
	ReservationStartAt time.Time // booking window open (UTC)
	ReservationEndAt   time.Time // booking window close (UTC)
}

// BookingOpenAt reports whether the post accepts reservations at t.
func (p *PerformancePost) BookingOpenAt(t time.Time) bool {
	return !t.Before(p.ReservationStartAt) && !t.After(p.ReservationEndAt)
}

// Schedule is a single sitting of a performance post.
type Schedule struct {
	ID        uint64    // performance_schedules.id
	PostID    uint64    // performance_schedules.post_id
	StartTime time.Time // performance start (UTC)
}

// TicketOption is a priced category reservations are ordered against,
// e.g. general admission or student discount.
type TicketOption struct {
	ID     uint64 // ticket_options.id
	PostID uint64 // ticket_options.post_id
	Name   string // display name
	Price  int    // unit price in the smallest currency unit
}

// User carries the identity fields the reservation flow needs. Account
// management lives in an external identity service.
type User struct {
	ID       uint64 // users.id
	Email    string // users.email
	NickName string // users.nick_name
}
