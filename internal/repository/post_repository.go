package repository

import (
	"context"
	"database/sql"

	"github.com/stagepass/seat-reservation/internal/model"
)

// PostRepo provides read access to performance posts. Posts are created
// and edited through the organizer content surface, which is outside
// this service; the reservation flow only needs lookups for validation
// and ownership checks.
type PostRepo struct {
	db *sql.DB
}

// NewPostRepo returns a PostRepo bound to the database.
func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{db: db} }

// GetByID loads a post, returning model.ErrNotFound when absent.
func (r *PostRepo) GetByID(ctx context.Context, id uint64) (*model.PerformancePost, error) {
	const q = `SELECT id, user_id, title, max_tickets_per_user, reservation_start_at, reservation_end_at
	           FROM performance_posts WHERE id = ?`
	var p model.PerformancePost
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.UserID, &p.Title, &p.MaxTicketsPerUser, &p.ReservationStartAt, &p.ReservationEndAt)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ScheduleRepo provides read access to performance schedules.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo returns a ScheduleRepo bound to the database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// GetByID loads a schedule, returning model.ErrNotFound when absent.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uint64) (*model.Schedule, error) {
	const q = `SELECT id, post_id, start_time FROM performance_schedules WHERE id = ?`
	var s model.Schedule
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.PostID, &s.StartTime)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByPost returns a post's schedules ordered by start time.
func (r *ScheduleRepo) ListByPost(ctx context.Context, postID uint64) ([]model.Schedule, error) {
	const q = `SELECT id, post_id, start_time FROM performance_schedules
	           WHERE post_id = ? ORDER BY start_time`
	rows, err := r.db.QueryContext(ctx, q, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	scheds := make([]model.Schedule, 0)
	for rows.Next() {
		var s model.Schedule
		if err := rows.Scan(&s.ID, &s.PostID, &s.StartTime); err != nil {
			return nil, err
		}
		scheds = append(scheds, s)
	}
	return scheds, rows.Err()
}

// TicketOptionRepo provides read access to ticket options.
type TicketOptionRepo struct {
	db *sql.DB
}

// NewTicketOptionRepo returns a TicketOptionRepo bound to the database.
func NewTicketOptionRepo(db *sql.DB) *TicketOptionRepo { return &TicketOptionRepo{db: db} }

// GetByID loads a ticket option, returning model.ErrNotFound when absent.
func (r *TicketOptionRepo) GetByID(ctx context.Context, id uint64) (*model.TicketOption, error) {
	const q = `SELECT id, post_id, name, price FROM ticket_options WHERE id = ?`
	var o model.TicketOption
	err := r.db.QueryRowContext(ctx, q, id).Scan(&o.ID, &o.PostID, &o.Name, &o.Price)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByPost returns all ticket options of a post.
func (r *TicketOptionRepo) ListByPost(ctx context.Context, postID uint64) ([]model.TicketOption, error) {
	const q = `SELECT id, post_id, name, price FROM ticket_options WHERE post_id = ? ORDER BY price`
	rows, err := r.db.QueryContext(ctx, q, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	opts := make([]model.TicketOption, 0)
	for rows.Next() {
		var o model.TicketOption
		if err := rows.Scan(&o.ID, &o.PostID, &o.Name, &o.Price); err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, rows.Err()
}
