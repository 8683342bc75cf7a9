package repository

import (
	"context"
	"database/sql"

	"github.com/stagepass/seat-reservation/internal/model"
)

// ReservationRepo provides persistence for reservation_requests. One
// row exists per distinct ticket option ordered in a checkout; rows from
// the same checkout share status and move through the lifecycle
// together only by explicit service calls, never implicitly.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying handle so services can open transactions.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a reservation request row and populates its ID.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, req *model.ReservationRequest) error {
	const q = `INSERT INTO reservation_requests
	           (schedule_id, ticket_option_id, user_id, count, status, payment_completed, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, UTC_TIMESTAMP())`
	res, err := tx.ExecContext(ctx, q,
		req.ScheduleID, req.TicketOptionID, req.UserID, req.Count, string(req.Status), req.PaymentCompleted)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	return nil
}

// GetByID loads a single reservation request.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.ReservationRequest, error) {
	const q = `SELECT id, schedule_id, ticket_option_id, user_id, count, status, payment_completed, created_at
	           FROM reservation_requests WHERE id = ?`
	var req model.ReservationRequest
	var status string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&req.ID, &req.ScheduleID, &req.TicketOptionID, &req.UserID,
		&req.Count, &status, &req.PaymentCompleted, &req.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	req.Status = model.ReservationStatus(status)
	return &req, nil
}

// UpdateStatusTx persists a lifecycle transition already validated by
// the aggregate's guard methods.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.ReservationStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE reservation_requests SET status = ? WHERE id = ?`, string(status), id)
	return err
}

// DeleteTx removes a reservation request row. Seat links referencing it
// must already be gone.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM reservation_requests WHERE id = ?`, id)
	return err
}

// ActiveCountByUserAndPost sums the ticket counts of a user's PENDING
// and APPROVED reservations across every schedule of a post. This feeds
// the per-user quota check.
func (r *ReservationRepo) ActiveCountByUserAndPost(ctx context.Context, userID, postID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(r.count), 0)
	           FROM reservation_requests r
	           JOIN performance_schedules s ON s.id = r.schedule_id
	           WHERE r.user_id = ? AND s.post_id = ?
	             AND r.status IN ('PENDING', 'APPROVED')`
	var n int
	if err := r.db.QueryRowContext(ctx, q, userID, postID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ActiveCountBySchedule sums the ticket counts of PENDING and APPROVED
// reservations on one schedule, used to derive remaining capacity.
func (r *ReservationRepo) ActiveCountBySchedule(ctx context.Context, scheduleID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(count), 0)
	           FROM reservation_requests
	           WHERE schedule_id = ? AND status IN ('PENDING', 'APPROVED')`
	var n int
	if err := r.db.QueryRowContext(ctx, q, scheduleID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListByUser returns a user's reservation requests, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.ReservationRequest, error) {
	const q = `SELECT id, schedule_id, ticket_option_id, user_id, count, status, payment_completed, created_at
	           FROM reservation_requests
	           WHERE user_id = ?
	           ORDER BY created_at DESC`
	return r.list(ctx, q, userID)
}

// ListByPost returns every reservation request across all schedules of
// a post, newest first. Organizer management surface.
func (r *ReservationRepo) ListByPost(ctx context.Context, postID uint64) ([]model.ReservationRequest, error) {
	const q = `SELECT r.id, r.schedule_id, r.ticket_option_id, r.user_id, r.count, r.status, r.payment_completed, r.created_at
	           FROM reservation_requests r
	           JOIN performance_schedules s ON s.id = r.schedule_id
	           WHERE s.post_id = ?
	           ORDER BY r.created_at DESC`
	return r.list(ctx, q, postID)
}

// ListByPostAndStatus filters ListByPost by lifecycle state, e.g. the
// organizer's refund-request inbox.
func (r *ReservationRepo) ListByPostAndStatus(ctx context.Context, postID uint64, status model.ReservationStatus) ([]model.ReservationRequest, error) {
	const q = `SELECT r.id, r.schedule_id, r.ticket_option_id, r.user_id, r.count, r.status, r.payment_completed, r.created_at
	           FROM reservation_requests r
	           JOIN performance_schedules s ON s.id = r.schedule_id
	           WHERE s.post_id = ? AND r.status = ?
	           ORDER BY r.created_at DESC`
	return r.list(ctx, q, postID, string(status))
}

// ListByUserAndSchedule returns all of one user's requests for a single
// schedule, i.e. every line of the same checkout plus later checkouts.
func (r *ReservationRepo) ListByUserAndSchedule(ctx context.Context, userID, scheduleID uint64) ([]model.ReservationRequest, error) {
	const q = `SELECT id, schedule_id, ticket_option_id, user_id, count, status, payment_completed, created_at
	           FROM reservation_requests
	           WHERE user_id = ? AND schedule_id = ?
	           ORDER BY created_at DESC`
	return r.list(ctx, q, userID, scheduleID)
}

// SetPaymentCompleted records the payment collaborator's confirmation.
func (r *ReservationRepo) SetPaymentCompleted(ctx context.Context, id uint64, done bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE reservation_requests SET payment_completed = ? WHERE id = ?`, done, id)
	return err
}

func (r *ReservationRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.ReservationRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	reqs := make([]model.ReservationRequest, 0)
	for rows.Next() {
		var req model.ReservationRequest
		var status string
		if err := rows.Scan(&req.ID, &req.ScheduleID, &req.TicketOptionID, &req.UserID,
			&req.Count, &status, &req.PaymentCompleted, &req.CreatedAt); err != nil {
			return nil, err
		}
		req.Status = model.ReservationStatus(status)
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}
