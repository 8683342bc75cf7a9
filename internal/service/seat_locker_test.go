package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/stagepass/seat-reservation/internal/model"
	"github.com/stagepass/seat-reservation/internal/repository"
)

func newLockerMock(t *testing.T) (*SeatLocker, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSeatLocker(repository.NewSeatRepo(db)), mock
}

var seatCols = []string{"id", "schedule_id", "seat_code", "status", "created_at"}

func TestLockSeatsFreshClaims(t *testing.T) {
	locker, mock := newLockerMock(t)

	// Each claim runs in its own committed transaction.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_seats").
		WithArgs(uint64(7), "A1", "PENDING").
		WillReturnResult(sqlmock.NewResult(41, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_seats").
		WithArgs(uint64(7), "A2", "PENDING").
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	locked, err := locker.LockSeats(context.Background(), 7, []string{"A1", "A2"})
	if err != nil {
		t.Fatalf("LockSeats: %v", err)
	}
	if len(locked) != 2 || locked[0].ID != 41 || locked[1].ID != 42 {
		t.Fatalf("locked = %+v", locked)
	}
	for _, s := range locked {
		if s.Status != model.SeatPending {
			t.Errorf("seat %s status = %s, want PENDING", s.Code, s.Status)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestLockSeatsConflictOnHeldSeat(t *testing.T) {
	locker, mock := newLockerMock(t)

	// The unique constraint rejects the insert, and the locked read
	// finds the row held by another booking attempt.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_seats").
		WithArgs(uint64(7), "B1", "PENDING").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '7-B1'"))
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(uint64(7), "B1").
		WillReturnRows(sqlmock.NewRows(seatCols).
			AddRow(11, 7, "B1", "RESERVED", time.Now().UTC()))
	mock.ExpectRollback()

	locked, err := locker.LockSeats(context.Background(), 7, []string{"B1"})
	var conflict *model.SeatConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want SeatConflictError", err)
	}
	if conflict.Code != "B1" || conflict.Status != model.SeatReserved {
		t.Fatalf("conflict = %+v", conflict)
	}
	if len(locked) != 0 {
		t.Fatalf("locked = %+v, want none", locked)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestLockSeatsReturnsEarlierClaimsOnConflict(t *testing.T) {
	locker, mock := newLockerMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_seats").
		WithArgs(uint64(7), "C1", "PENDING").
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_seats").
		WithArgs(uint64(7), "C2", "PENDING").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '7-C2'"))
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(uint64(7), "C2").
		WillReturnRows(sqlmock.NewRows(seatCols).
			AddRow(22, 7, "C2", "PENDING", time.Now().UTC()))
	mock.ExpectRollback()

	locked, err := locker.LockSeats(context.Background(), 7, []string{"C1", "C2"})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	// C1 committed before C2 failed; the caller needs it back to
	// compensate.
	if len(locked) != 1 || locked[0].Code != "C1" {
		t.Fatalf("locked = %+v, want [C1]", locked)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestLockSeatsRowVanishedBetweenInsertAndRead(t *testing.T) {
	locker, mock := newLockerMock(t)

	// A concurrent release deleted the row between the failed insert
	// and the locked read. Surfaced as a conflict, not retried.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_seats").
		WithArgs(uint64(7), "D1", "PENDING").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '7-D1'"))
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(uint64(7), "D1").
		WillReturnRows(sqlmock.NewRows(seatCols))
	mock.ExpectRollback()

	_, err := locker.LockSeats(context.Background(), 7, []string{"D1"})
	var conflict *model.SeatConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("got %v, want SeatConflictError", err)
	}
	if conflict.Status != model.SeatAvailable {
		t.Fatalf("conflict status = %s, want AVAILABLE", conflict.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestLockSeatsLockWaitTimeout(t *testing.T) {
	locker, mock := newLockerMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO schedule_seats").
		WithArgs(uint64(7), "E1", "PENDING").
		WillReturnError(errors.New("Error 1205 (HY000): Lock wait timeout exceeded; try restarting transaction"))
	mock.ExpectRollback()

	_, err := locker.LockSeats(context.Background(), 7, []string{"E1"})
	if !errors.Is(err, model.ErrLockTimeout) {
		t.Fatalf("got %v, want ErrLockTimeout", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestReleaseSeatsDeletesRows(t *testing.T) {
	locker, mock := newLockerMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM schedule_seats").
		WithArgs(uint64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM schedule_seats").
		WithArgs(uint64(32)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	seats := []model.Seat{
		{ID: 31, ScheduleID: 7, Code: "F1", Status: model.SeatPending},
		{ID: 32, ScheduleID: 7, Code: "F2", Status: model.SeatReserved},
	}
	if err := locker.ReleaseSeats(context.Background(), seats); err != nil {
		t.Fatalf("ReleaseSeats: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestReleaseSeatsRejectsUnavailable(t *testing.T) {
	locker, mock := newLockerMock(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	seats := []model.Seat{{ID: 33, Code: "G1", Status: model.SeatUnavailable}}
	err := locker.ReleaseSeats(context.Background(), seats)
	var bad *model.InvalidTransitionError
	if !errors.As(err, &bad) {
		t.Fatalf("got %v, want InvalidTransitionError", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMarkUnavailableBlocksSeats(t *testing.T) {
	locker, mock := newLockerMock(t)

	// The rows are written with the status the transition method set.
	mock.ExpectBegin()
	mock.ExpectExec("ON DUPLICATE KEY UPDATE").
		WithArgs(uint64(7), "J1", "UNAVAILABLE").
		WillReturnResult(sqlmock.NewResult(71, 1))
	mock.ExpectExec("ON DUPLICATE KEY UPDATE").
		WithArgs(uint64(7), "J2", "UNAVAILABLE").
		WillReturnResult(sqlmock.NewResult(72, 1))
	mock.ExpectCommit()

	if err := locker.MarkUnavailable(context.Background(), 7, []string{"J1", "J2"}); err != nil {
		t.Fatalf("MarkUnavailable: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestConfirmSeatsTx(t *testing.T) {
	locker, mock := newLockerMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE schedule_seats SET status").
		WithArgs("RESERVED", uint64(51)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := locker.db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	seats := []model.Seat{{ID: 51, Code: "H1", Status: model.SeatPending}}
	if err := locker.ConfirmSeatsTx(context.Background(), tx, seats); err != nil {
		t.Fatalf("ConfirmSeatsTx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if seats[0].Status != model.SeatReserved {
		t.Fatalf("seat status = %s, want RESERVED", seats[0].Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
