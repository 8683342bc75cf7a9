package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/stagepass/seat-reservation/internal/repository"
)

func newReclaimerMock(t *testing.T) (*Reclaimer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewReclaimer(repository.NewSeatRepo(db), time.Minute, 10*time.Minute), mock
}

var seatCols = []string{"id", "schedule_id", "seat_code", "status", "created_at"}

func TestSweepReclaimsOrphans(t *testing.T) {
	r, mock := newReclaimerMock(t)

	old := time.Now().UTC().Add(-30 * time.Minute)
	mock.ExpectQuery("NOT EXISTS").
		WillReturnRows(sqlmock.NewRows(seatCols).
			AddRow(61, 2, "A1", "PENDING", old).
			AddRow(62, 2, "A2", "PENDING", old))
	mock.ExpectExec("DELETE FROM schedule_seats").
		WithArgs(uint64(61)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM schedule_seats").
		WithArgs(uint64(62)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if got := r.Sweep(context.Background()); got != 2 {
		t.Fatalf("Sweep() = %d, want 2", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSweepNothingToReclaim(t *testing.T) {
	r, mock := newReclaimerMock(t)

	mock.ExpectQuery("NOT EXISTS").
		WillReturnRows(sqlmock.NewRows(seatCols))

	if got := r.Sweep(context.Background()); got != 0 {
		t.Fatalf("Sweep() = %d, want 0", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSweepSwallowsQueryErrors(t *testing.T) {
	r, mock := newReclaimerMock(t)

	// A failed tick must not panic or propagate; the schedule keeps
	// running.
	mock.ExpectQuery("NOT EXISTS").
		WillReturnError(errors.New("connection reset"))

	if got := r.Sweep(context.Background()); got != 0 {
		t.Fatalf("Sweep() = %d, want 0", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSweepContinuesPastDeleteFailure(t *testing.T) {
	r, mock := newReclaimerMock(t)

	old := time.Now().UTC().Add(-30 * time.Minute)
	mock.ExpectQuery("NOT EXISTS").
		WillReturnRows(sqlmock.NewRows(seatCols).
			AddRow(61, 2, "A1", "PENDING", old).
			AddRow(62, 2, "A2", "PENDING", old))
	mock.ExpectExec("DELETE FROM schedule_seats").
		WithArgs(uint64(61)).
		WillReturnError(errors.New("deadlock found"))
	mock.ExpectExec("DELETE FROM schedule_seats").
		WithArgs(uint64(62)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if got := r.Sweep(context.Background()); got != 1 {
		t.Fatalf("Sweep() = %d, want 1", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestDefaultsAppliedForNonPositiveSettings(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	r := NewReclaimer(repository.NewSeatRepo(db), 0, -time.Second)
	if r.interval != DefaultSweepInterval {
		t.Errorf("interval = %s, want %s", r.interval, DefaultSweepInterval)
	}
	if r.grace != DefaultOrphanGrace {
		t.Errorf("grace = %s, want %s", r.grace, DefaultOrphanGrace)
	}
}
