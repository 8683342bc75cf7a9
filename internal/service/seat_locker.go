// Package service implements the business flows of the reservation
// system: concurrent seat acquisition, the reservation aggregate
// lifecycle, and event publication. Services are composed explicitly
// from repository handles; there are no ambient singletons.
package service

import (
	"context"
	"database/sql"
	"log"

	"github.com/stagepass/seat-reservation/internal/model"
	"github.com/stagepass/seat-reservation/internal/repository"
)

// SeatLocker acquires and releases seats on behalf of booking attempts.
//
// Each acquisition commits in its own transaction, so a claimed seat is
// visible to every other shopper the instant the claim completes,
// before the overall booking finishes. The trade-off is deliberate:
// holding multi-row locks for the whole checkout would reintroduce
// gap-lock deadlocks under load, so cross-seat atomicity is given up
// and partial-failure compensation is pushed to the caller, with the
// orphan reclaimer as a safety net for abandoned claims.
type SeatLocker struct {
	db    *sql.DB
	seats *repository.SeatRepo
}

// NewSeatLocker constructs a SeatLocker over the given seat repository.
func NewSeatLocker(seats *repository.SeatRepo) *SeatLocker {
	if seats == nil {
		panic("nil seat repository passed to NewSeatLocker")
	}
	return &SeatLocker{db: seats.DB(), seats: seats}
}

// LockSeats claims every code for the schedule, committing each claim
// independently. On failure it returns the seats locked so far together
// with the error, so the caller can compensate by releasing them. It
// performs no retry: a SeatConflictError means the shopper must pick
// different seats, and model.ErrLockTimeout is a transient outcome the
// caller may retry as a whole.
func (l *SeatLocker) LockSeats(ctx context.Context, scheduleID uint64, codes []string) ([]model.Seat, error) {
	locked := make([]model.Seat, 0, len(codes))
	for _, code := range codes {
		seat, err := l.lockOne(ctx, scheduleID, code)
		if err != nil {
			return locked, err
		}
		locked = append(locked, *seat)
	}
	return locked, nil
}

// lockOne claims a single seat inside its own committed transaction.
//
// Insert-first: creating a fresh (schedule_id, seat_code) row takes a
// point lock only, never a gap lock, so concurrent claims on different
// seats cannot deadlock. When the unique constraint rejects the insert
// the row already exists, and a pessimistic locked read tells us which
// state it is in. A row only exists when the seat is PENDING, RESERVED
// or UNAVAILABLE, so that path ends in a SeatConflictError unless a
// concurrent release deleted the row between the two statements; that
// race is also surfaced as a conflict rather than silently retried.
func (l *SeatLocker) lockOne(ctx context.Context, scheduleID uint64, code string) (*model.Seat, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	seat := model.NewPendingSeat(scheduleID, code)
	err = l.seats.TryInsertPendingTx(ctx, tx, &seat)
	switch err {
	case nil:
		// fresh claim
	case repository.ErrSeatExists:
		existing, lockErr := l.seats.GetForUpdateTx(ctx, tx, scheduleID, code)
		if lockErr == repository.ErrSeatNotFound {
			return nil, &model.SeatConflictError{Code: code, Status: model.SeatAvailable}
		}
		if lockErr != nil {
			return nil, lockErr
		}
		if lockErr := existing.Lock(); lockErr != nil {
			return nil, lockErr
		}
		if upErr := l.seats.UpdateStatusTx(ctx, tx, existing.ID, existing.Status); upErr != nil {
			return nil, upErr
		}
		seat = *existing
	default:
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &seat, nil
}

// ReleaseSeatsTx returns seats to availability inside the caller's
// transaction. PENDING and RESERVED rows are deleted (no row means
// available); releasing an UNAVAILABLE seat fails because organizer
// blocks are never undone by booking flows. The operation is
// idempotent: a seat whose row is already gone releases cleanly.
func (l *SeatLocker) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	for i := range seats {
		seat := &seats[i]
		if err := seat.Release(); err != nil {
			return err
		}
		if err := l.seats.DeleteTx(ctx, tx, seat.ID); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseSeats is the standalone form of ReleaseSeatsTx, used to
// compensate a partially failed multi-seat lock where no enclosing
// transaction exists.
func (l *SeatLocker) ReleaseSeats(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := l.ReleaseSeatsTx(ctx, tx, seats); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ConfirmSeatsTx finalises claimed seats (PENDING -> RESERVED) inside
// the caller's transaction. Any seat outside PENDING aborts the batch.
func (l *SeatLocker) ConfirmSeatsTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	for i := range seats {
		seat := &seats[i]
		if err := seat.Confirm(); err != nil {
			return err
		}
		if err := l.seats.UpdateStatusTx(ctx, tx, seat.ID, seat.Status); err != nil {
			return err
		}
	}
	return nil
}

// MarkUnavailable blocks seats administratively, creating rows for
// seats that had none. Used by organizers to withhold seats from sale.
func (l *SeatLocker) MarkUnavailable(ctx context.Context, scheduleID uint64, codes []string) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, code := range codes {
		seat := model.Seat{ScheduleID: scheduleID, Code: code}
		seat.MarkUnavailable()
		if err := l.seats.UpsertTx(ctx, tx, &seat); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("seats: marked %d seats unavailable on schedule %d", len(codes), scheduleID)
	return nil
}
