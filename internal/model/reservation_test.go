package model

import "testing"

func TestReservationLifecycle(t *testing.T) {
	r := ReservationRequest{Status: ReservationPending, PaymentCompleted: true}

	if err := r.Approve(); err != nil {
		t.Fatalf("Approve(): %v", err)
	}
	if err := r.RequestRefund(); err != nil {
		t.Fatalf("RequestRefund(): %v", err)
	}
	if err := r.CompleteRefund(); err != nil {
		t.Fatalf("CompleteRefund(): %v", err)
	}
	if r.Status != ReservationRefunded {
		t.Fatalf("status = %s, want REFUNDED", r.Status)
	}
	// REFUNDED is terminal.
	if err := r.RequestRefund(); err != ErrInvalidState {
		t.Fatalf("RequestRefund() after refund: got %v, want ErrInvalidState", err)
	}
}

func TestApproveRequiresPayment(t *testing.T) {
	r := ReservationRequest{Status: ReservationPending, PaymentCompleted: false}
	if err := r.Approve(); err != ErrInvalidState {
		t.Fatalf("Approve() without payment: got %v, want ErrInvalidState", err)
	}
	if r.Status != ReservationPending {
		t.Fatalf("status changed to %s on failed approval", r.Status)
	}
}

func TestGuardsRejectWrongStates(t *testing.T) {
	cases := []struct {
		name string
		from ReservationStatus
		call func(*ReservationRequest) error
	}{
		{"approve non-pending", ReservationApproved, (*ReservationRequest).Approve},
		{"reject non-pending", ReservationRejected, (*ReservationRequest).Reject},
		{"refund non-approved", ReservationPending, (*ReservationRequest).RequestRefund},
		{"complete refund without request", ReservationApproved, (*ReservationRequest).CompleteRefund},
		{"deny refund without request", ReservationApproved, (*ReservationRequest).DenyRefund},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := ReservationRequest{Status: tc.from, PaymentCompleted: true}
			if err := tc.call(&r); err != ErrInvalidState {
				t.Fatalf("got %v, want ErrInvalidState", err)
			}
			if r.Status != tc.from {
				t.Fatalf("status mutated to %s on rejected transition", r.Status)
			}
		})
	}
}

func TestDenyRefundRestoresApproved(t *testing.T) {
	r := ReservationRequest{Status: ReservationRefundRequested}
	if err := r.DenyRefund(); err != nil {
		t.Fatalf("DenyRefund(): %v", err)
	}
	if r.Status != ReservationApproved {
		t.Fatalf("status = %s, want APPROVED", r.Status)
	}
	// A denied refund can be requested again later.
	if err := r.RequestRefund(); err != nil {
		t.Fatalf("RequestRefund() after denial: %v", err)
	}
}

func TestParseReservationDecision(t *testing.T) {
	if got, ok := ParseReservationDecision("APPROVED"); !ok || got != ReservationApproved {
		t.Fatalf("ParseReservationDecision(APPROVED) = %s, %v", got, ok)
	}
	if got, ok := ParseReservationDecision("REJECTED"); !ok || got != ReservationRejected {
		t.Fatalf("ParseReservationDecision(REJECTED) = %s, %v", got, ok)
	}
	for _, bad := range []string{"", "approved", "PENDING", "REFUNDED", "CANCELLED"} {
		if _, ok := ParseReservationDecision(bad); ok {
			t.Errorf("ParseReservationDecision(%q) accepted", bad)
		}
	}
}
