package model

import (
	"errors"
	"testing"
)

func TestSeatLock(t *testing.T) {
	cases := []struct {
		name     string
		from     SeatStatus
		wantErr  bool
		wantStat SeatStatus
	}{
		{"available seat locks", SeatAvailable, false, SeatPending},
		{"pending seat conflicts", SeatPending, true, SeatPending},
		{"reserved seat conflicts", SeatReserved, true, SeatReserved},
		{"unavailable seat conflicts", SeatUnavailable, true, SeatUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Seat{Code: "A1", Status: tc.from}
			err := s.Lock()
			if tc.wantErr {
				var conflict *SeatConflictError
				if !errors.As(err, &conflict) {
					t.Fatalf("Lock() from %s: got %v, want SeatConflictError", tc.from, err)
				}
				if conflict.Status != tc.from {
					t.Errorf("conflict status = %s, want %s", conflict.Status, tc.from)
				}
			} else if err != nil {
				t.Fatalf("Lock() from %s: unexpected error %v", tc.from, err)
			}
			if s.Status != tc.wantStat {
				t.Errorf("status after Lock() = %s, want %s", s.Status, tc.wantStat)
			}
		})
	}
}

func TestSeatConfirm(t *testing.T) {
	s := Seat{Code: "B2", Status: SeatPending}
	if err := s.Confirm(); err != nil {
		t.Fatalf("Confirm() from PENDING: %v", err)
	}
	if s.Status != SeatReserved {
		t.Fatalf("status = %s, want RESERVED", s.Status)
	}

	for _, from := range []SeatStatus{SeatAvailable, SeatReserved, SeatUnavailable} {
		s := Seat{Code: "B2", Status: from}
		var bad *InvalidTransitionError
		if err := s.Confirm(); !errors.As(err, &bad) {
			t.Errorf("Confirm() from %s: got %v, want InvalidTransitionError", from, err)
		}
	}
}

func TestSeatRelease(t *testing.T) {
	for _, from := range []SeatStatus{SeatPending, SeatReserved} {
		s := Seat{Code: "C3", Status: from}
		if err := s.Release(); err != nil {
			t.Fatalf("Release() from %s: %v", from, err)
		}
		if s.Status != SeatAvailable {
			t.Errorf("status after Release() from %s = %s", from, s.Status)
		}
	}

	// Releasing an already-available seat is idempotent.
	s := Seat{Code: "C3", Status: SeatAvailable}
	if err := s.Release(); err != nil {
		t.Fatalf("Release() from AVAILABLE: %v", err)
	}

	// Organizer blocks are never undone by booking flows.
	s = Seat{Code: "C3", Status: SeatUnavailable}
	var bad *InvalidTransitionError
	if err := s.Release(); !errors.As(err, &bad) {
		t.Fatalf("Release() from UNAVAILABLE: got %v, want InvalidTransitionError", err)
	}
}

func TestMarkUnavailableIgnoresState(t *testing.T) {
	for _, from := range []SeatStatus{SeatAvailable, SeatPending, SeatReserved, SeatUnavailable} {
		s := Seat{Code: "D4", Status: from}
		s.MarkUnavailable()
		if s.Status != SeatUnavailable {
			t.Errorf("MarkUnavailable() from %s left status %s", from, s.Status)
		}
	}
}

func TestValidSeatCode(t *testing.T) {
	valid := []string{"A1", "B12", "VIP3", "ZZ999", "ABC123"}
	for _, code := range valid {
		if !ValidSeatCode(code) {
			t.Errorf("ValidSeatCode(%q) = false, want true", code)
		}
	}
	invalid := []string{"", "a1", "A", "1A", "ABCD1", "A1234", "A 1", "A-1", "vip3"}
	for _, code := range invalid {
		if ValidSeatCode(code) {
			t.Errorf("ValidSeatCode(%q) = true, want false", code)
		}
	}
}
