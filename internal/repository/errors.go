// Package repository implements raw-SQL data access for the reservation
// system. Repositories are bound to a *sql.DB; methods with a Tx suffix
// run inside a caller-supplied *sql.Tx, and the caller is responsible
// for committing or rolling back. All timestamps are stored in UTC.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stagepass/seat-reservation/internal/model"
)

// ErrSeatExists is returned by the insert-first locking path when the
// (schedule_id, seat_code) unique constraint rejects the insert. The
// row already exists, so the caller should fall back to a locked read.
var ErrSeatExists = errors.New("seat row already exists")

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// ErrReservationNotFound is returned when a reservation lookup yields
// no rows. It wraps model.ErrNotFound so handlers map it to a 404.
var ErrReservationNotFound = fmt.Errorf("reservation %w", model.ErrNotFound)

// isDuplicateKey reports whether err is a MySQL duplicate entry error
// (code 1062), i.e. a unique constraint violation on insert.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// isLockWaitTimeout reports whether err is a MySQL lock wait timeout
// (code 1205): the row lock could not be granted within
// innodb_lock_wait_timeout.
func isLockWaitTimeout(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1205")
}
