package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/stagepass/seat-reservation/internal/model"
)

// SeatRepo provides persistence for schedule_seats, the materialized
// seat rows of each schedule. An AVAILABLE seat has no row; only
// PENDING, RESERVED and UNAVAILABLE seats are stored. The table carries
// a unique constraint on (schedule_id, seat_code) which serializes
// concurrent booking attempts on the same seat.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a SeatRepo bound to the provided database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// DB exposes the underlying handle so services can open transactions.
func (r *SeatRepo) DB() *sql.DB { return r.db }

// TryInsertPendingTx attempts to create a brand-new seat row directly in
// PENDING state. An insert into a fresh key only ever takes a point
// lock, never a gap lock, which keeps concurrent booking attempts from
// deadlocking each other. When the (schedule_id, seat_code) unique
// constraint rejects the insert, ErrSeatExists is returned and the
// caller should fall back to GetForUpdateTx.
func (r *SeatRepo) TryInsertPendingTx(ctx context.Context, tx *sql.Tx, seat *model.Seat) error {
	const q = `INSERT INTO schedule_seats (schedule_id, seat_code, status, created_at)
	           VALUES (?, ?, ?, UTC_TIMESTAMP())`
	res, err := tx.ExecContext(ctx, q, seat.ScheduleID, seat.Code, string(seat.Status))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrSeatExists
		}
		if isLockWaitTimeout(err) {
			return model.ErrLockTimeout
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	seat.ID = uint64(id)
	return nil
}

// GetForUpdateTx reads a seat row under a pessimistic exclusive lock.
// The wait is bounded by the database's lock-wait timeout, which is
// surfaced as model.ErrLockTimeout so callers can distinguish a
// transient contention failure from a seat conflict. ErrSeatNotFound
// means a concurrent release deleted the row between the failed insert
// and this read.
func (r *SeatRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, scheduleID uint64, code string) (*model.Seat, error) {
	const q = `SELECT id, schedule_id, seat_code, status, created_at
	           FROM schedule_seats
	           WHERE schedule_id = ? AND seat_code = ?
	           FOR UPDATE`
	seat, err := scanSeat(tx.QueryRowContext(ctx, q, scheduleID, code))
	if err == sql.ErrNoRows {
		return nil, ErrSeatNotFound
	}
	if isLockWaitTimeout(err) {
		return nil, model.ErrLockTimeout
	}
	return seat, err
}

// UpdateStatusTx persists a status change produced by one of the seat
// state machine transitions.
func (r *SeatRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, seatID uint64, status model.SeatStatus) error {
	const q = `UPDATE schedule_seats SET status = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, string(status), seatID)
	if isLockWaitTimeout(err) {
		return model.ErrLockTimeout
	}
	return err
}

// DeleteTx removes a seat row, restoring the seat to AVAILABLE.
func (r *SeatRepo) DeleteTx(ctx context.Context, tx *sql.Tx, seatID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM schedule_seats WHERE id = ?`, seatID)
	if isLockWaitTimeout(err) {
		return model.ErrLockTimeout
	}
	return err
}

// DeleteByID removes a seat row outside any caller transaction. Used by
// the orphan reclaimer, which owns no surrounding unit of work.
func (r *SeatRepo) DeleteByID(ctx context.Context, seatID uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM schedule_seats WHERE id = ?`, seatID)
	return err
}

// GetByIDs loads seat rows by primary key. Seats deleted concurrently
// are simply absent from the result.
func (r *SeatRepo) GetByIDs(ctx context.Context, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return []model.Seat{}, nil
	}
	query := `SELECT id, schedule_id, seat_code, status, created_at FROM schedule_seats WHERE id IN (`
	args := make([]interface{}, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += `)`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		var status string
		if err := rows.Scan(&s.ID, &s.ScheduleID, &s.Code, &status, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Status = model.SeatStatus(status)
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// ListBySchedule returns every materialized seat row for a schedule.
// Seats with no row are AVAILABLE; callers synthesize availability for
// the rest of the seat map.
func (r *SeatRepo) ListBySchedule(ctx context.Context, scheduleID uint64) ([]model.Seat, error) {
	const q = `SELECT id, schedule_id, seat_code, status, created_at
	           FROM schedule_seats
	           WHERE schedule_id = ?
	           ORDER BY seat_code`
	rows, err := r.db.QueryContext(ctx, q, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		var status string
		if err := rows.Scan(&s.ID, &s.ScheduleID, &s.Code, &status, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Status = model.SeatStatus(status)
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// FindOrphans returns PENDING seats created before cutoff that no
// reservation_seats row references. These are claims left behind by
// abandoned checkouts; seats with a link are owned by a reservation and
// are never returned regardless of age.
func (r *SeatRepo) FindOrphans(ctx context.Context, cutoff time.Time) ([]model.Seat, error) {
	const q = `SELECT s.id, s.schedule_id, s.seat_code, s.status, s.created_at
	           FROM schedule_seats s
	           WHERE s.status = ?
	             AND s.created_at < ?
	             AND NOT EXISTS (
	                 SELECT 1 FROM reservation_seats rs WHERE rs.seat_id = s.id
	             )`
	rows, err := r.db.QueryContext(ctx, q, string(model.SeatPending), cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		var status string
		if err := rows.Scan(&s.ID, &s.ScheduleID, &s.Code, &status, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Status = model.SeatStatus(status)
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// UpsertTx writes a seat row with its current status, creating the row
// if the seat had none. Used by the organizer block flow, where the
// status has already been set through the seat's transition methods.
func (r *SeatRepo) UpsertTx(ctx context.Context, tx *sql.Tx, seat *model.Seat) error {
	const q = `INSERT INTO schedule_seats (schedule_id, seat_code, status, created_at)
	           VALUES (?, ?, ?, UTC_TIMESTAMP())
	           ON DUPLICATE KEY UPDATE status = VALUES(status)`
	_, err := tx.ExecContext(ctx, q, seat.ScheduleID, seat.Code, string(seat.Status))
	if isLockWaitTimeout(err) {
		return model.ErrLockTimeout
	}
	return err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSeat(row rowScanner) (*model.Seat, error) {
	var s model.Seat
	var status string
	if err := row.Scan(&s.ID, &s.ScheduleID, &s.Code, &status, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Status = model.SeatStatus(status)
	return &s, nil
}
