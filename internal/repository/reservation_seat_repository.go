package repository

import (
	"context"
	"database/sql"
)

// ReservationSeatRepo manages the reservation_seats join table linking
// reservation requests to locked seats. A seat may be linked to at most
// one active reservation; the link is the unit that must be removed
// before the seat row itself, so every delete here runs before the
// corresponding schedule_seats delete in the calling service.
type ReservationSeatRepo struct {
	db *sql.DB
}

// NewReservationSeatRepo returns a ReservationSeatRepo bound to the database.
func NewReservationSeatRepo(db *sql.DB) *ReservationSeatRepo { return &ReservationSeatRepo{db: db} }

// LinkBulkTx attaches locked seats to a reservation request in a single
// statement. Passing an empty slice has no effect.
func (r *ReservationSeatRepo) LinkBulkTx(ctx context.Context, tx *sql.Tx, reservationID uint64, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `INSERT INTO reservation_seats (reservation_request_id, seat_id) VALUES `
	args := make([]interface{}, 0, len(seatIDs)*2)
	for i, sid := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, reservationID, sid)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// SeatIDsByReservation returns the IDs of all seats linked to a
// reservation request.
func (r *ReservationSeatRepo) SeatIDsByReservation(ctx context.Context, reservationID uint64) ([]uint64, error) {
	const q = `SELECT seat_id FROM reservation_seats WHERE reservation_request_id = ?`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SeatCodesByReservation resolves the seat codes linked to a
// reservation, used when rendering reservation summaries.
func (r *ReservationSeatRepo) SeatCodesByReservation(ctx context.Context, reservationID uint64) ([]string, error) {
	const q = `SELECT s.seat_code
	           FROM reservation_seats rs
	           JOIN schedule_seats s ON s.id = rs.seat_id
	           WHERE rs.reservation_request_id = ?
	           ORDER BY s.seat_code`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	codes := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

// DeleteByReservationTx removes every link row for a reservation. Must
// run before the linked schedule_seats rows are deleted.
func (r *ReservationSeatRepo) DeleteByReservationTx(ctx context.Context, tx *sql.Tx, reservationID uint64) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM reservation_seats WHERE reservation_request_id = ?`, reservationID)
	return err
}
