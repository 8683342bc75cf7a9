package service

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/stagepass/seat-reservation/internal/model"
	"github.com/stagepass/seat-reservation/internal/queue"
	"github.com/stagepass/seat-reservation/internal/repository"
)

// TicketOrder is one line of a checkout request: a count of tickets
// against a single ticket option. UnitPrice is the price the client
// displayed; it is validated against the stored price to defend against
// stale or tampered clients.
type TicketOrder struct {
	OptionID  uint64 `json:"ticket_option_id"`
	Count     int    `json:"count"`
	UnitPrice int    `json:"unit_price"`
}

// ReservationSummary is returned after a successful checkout.
type ReservationSummary struct {
	ReservationID uint64    `json:"reservation_id"`
	Title         string    `json:"performance_title"`
	StartTime     time.Time `json:"performance_date"`
	Count         int       `json:"count"`
	TotalPrice    int       `json:"total_price"`
	Status        string    `json:"status"`
	SeatCodes     []string  `json:"selected_seats"`
}

// RefundSummary is returned when a shopper files a refund request.
type RefundSummary struct {
	ReservationID uint64    `json:"reservation_id"`
	Title         string    `json:"performance_title"`
	StartTime     time.Time `json:"performance_date"`
	TotalPrice    int       `json:"total_price"`
	Status        string    `json:"status"`
	RequestedAt   time.Time `json:"request_date"`
}

// Availability reports whether a user may still book tickets for a post.
type Availability struct {
	Available      bool   `json:"available"`
	MaxPerUser     int    `json:"max_tickets_per_user"`
	UsedCount      int    `json:"used_count"`
	RemainingQuota int    `json:"remaining_quota"`
	Message        string `json:"message"`
}

// SeatInfo is one materialized seat row of a schedule's seat map. Codes
// absent from the list are AVAILABLE; clients synthesize availability
// for every in-range code with no entry.
type SeatInfo struct {
	Code   string `json:"seat_code"`
	Status string `json:"status"`
}

// ScheduleInfo is a schedule overview with derived occupancy counts.
type ScheduleInfo struct {
	ScheduleID  uint64    `json:"schedule_id"`
	StartTime   time.Time `json:"start_time"`
	ActiveCount int       `json:"reserved_count"`
}

// ReservationService owns the reservation aggregate lifecycle. It
// validates checkouts, orchestrates the seat locker, and drives the
// PENDING -> APPROVED/REJECTED -> REFUND_REQUESTED -> REFUNDED state
// machine under explicit ownership checks.
type ReservationService struct {
	db           *sql.DB
	posts        *repository.PostRepo
	schedules    *repository.ScheduleRepo
	options      *repository.TicketOptionRepo
	reservations *repository.ReservationRepo
	links        *repository.ReservationSeatRepo
	seats        *repository.SeatRepo
	locker       *SeatLocker
}

// NewReservationService wires the aggregate from its collaborators.
// All dependencies must be non-nil.
func NewReservationService(
	posts *repository.PostRepo,
	schedules *repository.ScheduleRepo,
	options *repository.TicketOptionRepo,
	reservations *repository.ReservationRepo,
	links *repository.ReservationSeatRepo,
	seats *repository.SeatRepo,
	locker *SeatLocker,
) *ReservationService {
	if posts == nil || schedules == nil || options == nil || reservations == nil || links == nil || seats == nil || locker == nil {
		panic("nil dependency passed to NewReservationService")
	}
	return &ReservationService{
		db:           reservations.DB(),
		posts:        posts,
		schedules:    schedules,
		options:      options,
		reservations: reservations,
		links:        links,
		seats:        seats,
		locker:       locker,
	}
}

// CheckAvailability reports whether the user can still book tickets for
// the post: the booking window must be open and the per-user quota not
// exhausted.
func (s *ReservationService) CheckAvailability(ctx context.Context, userID, postID uint64) (*Availability, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	used, err := s.reservations.ActiveCountByUserAndPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	remaining := post.MaxTicketsPerUser - used
	switch {
	case now.Before(post.ReservationStartAt):
		return &Availability{MaxPerUser: post.MaxTicketsPerUser, UsedCount: used, Message: "booking has not opened yet"}, nil
	case now.After(post.ReservationEndAt):
		return &Availability{MaxPerUser: post.MaxTicketsPerUser, UsedCount: used, Message: "booking has closed"}, nil
	case remaining <= 0:
		return &Availability{MaxPerUser: post.MaxTicketsPerUser, UsedCount: used, Message: "ticket quota exhausted"}, nil
	}
	return &Availability{
		Available:      true,
		MaxPerUser:     post.MaxTicketsPerUser,
		UsedCount:      used,
		RemainingQuota: remaining,
		Message:        "booking available",
	}, nil
}

// CreateReservation validates a checkout, locks the selected seats and
// persists the reservation rows. paymentCompleted records whether the
// payment settled during checkout; an unpaid reservation can still be
// created but stays unapprovable until ConfirmPayment.
//
// Validation runs strictly before locking: a request that fails price,
// window or quota checks never touches a seat. Seat locks commit one by
// one (see SeatLocker), so on any later failure every seat locked in
// this attempt is released before the error is surfaced; the orphan
// reclaimer is a backstop, not the primary defense.
func (s *ReservationService) CreateReservation(ctx context.Context, userID, postID, scheduleID uint64, seatCodes []string, orders []TicketOrder, paymentCompleted bool) (*ReservationSummary, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.PostID != postID {
		return nil, model.Validationf("schedule %d does not belong to post %d", scheduleID, postID)
	}
	if len(orders) == 0 {
		return nil, model.Validationf("no ticket orders given")
	}

	totalCount := 0
	totalPrice := 0
	opts := make([]*model.TicketOption, 0, len(orders))
	for _, ord := range orders {
		opt, err := s.options.GetByID(ctx, ord.OptionID)
		if err != nil {
			return nil, err
		}
		if opt.PostID != postID {
			return nil, model.Validationf("ticket option %d does not belong to post %d", ord.OptionID, postID)
		}
		if opt.Price != ord.UnitPrice {
			return nil, model.Validationf("price for %q has changed: current price is %d", opt.Name, opt.Price)
		}
		if ord.Count <= 0 {
			return nil, model.Validationf("ticket count must be positive")
		}
		totalCount += ord.Count
		totalPrice += opt.Price * ord.Count
		opts = append(opts, opt)
	}

	avail, err := s.CheckAvailability(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if !avail.Available {
		return nil, &model.ValidationError{Reason: avail.Message}
	}
	if totalCount > avail.RemainingQuota {
		return nil, model.Validationf("requested %d tickets but only %d remain in your quota", totalCount, avail.RemainingQuota)
	}

	if len(seatCodes) > 0 {
		if len(seatCodes) != totalCount {
			return nil, model.Validationf("selected %d seats for %d tickets", len(seatCodes), totalCount)
		}
		seen := make(map[string]struct{}, len(seatCodes))
		for _, code := range seatCodes {
			if !model.ValidSeatCode(code) {
				return nil, model.Validationf("malformed seat code %q", code)
			}
			if _, dup := seen[code]; dup {
				return nil, model.Validationf("duplicate seat code %q", code)
			}
			seen[code] = struct{}{}
		}
	}

	// Locking starts only after all validation has passed. Each claim
	// commits independently; on failure the claims made so far are
	// released before the error goes back to the caller.
	locked, err := s.locker.LockSeats(ctx, scheduleID, seatCodes)
	if err != nil {
		if relErr := s.locker.ReleaseSeats(ctx, locked); relErr != nil {
			log.Printf("reservation: compensating release failed on schedule %d: %v", scheduleID, relErr)
		}
		return nil, err
	}

	summary, err := s.persistReservation(ctx, userID, schedule, post, locked, orders, totalCount, totalPrice, paymentCompleted)
	if err != nil {
		if relErr := s.locker.ReleaseSeats(ctx, locked); relErr != nil {
			log.Printf("reservation: compensating release failed on schedule %d: %v", scheduleID, relErr)
		}
		return nil, err
	}
	return summary, nil
}

// persistReservation writes one request row per ticket order and links
// the locked seats to the first row, all in one transaction.
func (s *ReservationService) persistReservation(ctx context.Context, userID uint64, schedule *model.Schedule, post *model.PerformancePost, locked []model.Seat, orders []TicketOrder, totalCount, totalPrice int, paymentCompleted bool) (*ReservationSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var primary *model.ReservationRequest
	for _, ord := range orders {
		req := model.ReservationRequest{
			ScheduleID:       schedule.ID,
			TicketOptionID:   ord.OptionID,
			UserID:           userID,
			Count:            ord.Count,
			Status:           model.ReservationPending,
			PaymentCompleted: paymentCompleted,
		}
		if err := s.reservations.CreateTx(ctx, tx, &req); err != nil {
			return nil, err
		}
		if primary == nil {
			primary = &req
		}
	}

	if len(locked) > 0 {
		seatIDs := make([]uint64, len(locked))
		for i, seat := range locked {
			seatIDs[i] = seat.ID
		}
		if err := s.links.LinkBulkTx(ctx, tx, primary.ID, seatIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	codes := make([]string, len(locked))
	for i, seat := range locked {
		codes[i] = seat.Code
	}
	return &ReservationSummary{
		ReservationID: primary.ID,
		Title:         post.Title,
		StartTime:     schedule.StartTime,
		Count:         totalCount,
		TotalPrice:    totalPrice,
		Status:        string(model.ReservationPending),
		SeatCodes:     codes,
	}, nil
}

// UpdateReservationStatus lets the organizer who owns the parent post
// approve or reject a PENDING reservation. Approval confirms the linked
// seats (PENDING -> RESERVED); rejection removes the seat links and
// releases the seats back to availability.
func (s *ReservationService) UpdateReservationStatus(ctx context.Context, actorID, reservationID uint64, decision string) error {
	target, ok := model.ParseReservationDecision(decision)
	if !ok {
		return model.Validationf("invalid decision %q", decision)
	}
	res, post, _, err := s.loadWithPost(ctx, reservationID)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		return model.ErrForbidden
	}

	switch target {
	case model.ReservationApproved:
		if err := res.Approve(); err != nil {
			return err
		}
	case model.ReservationRejected:
		if err := res.Reject(); err != nil {
			return err
		}
	}

	linkedSeats, err := s.linkedSeats(ctx, reservationID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.reservations.UpdateStatusTx(ctx, tx, reservationID, res.Status); err != nil {
		return err
	}
	if target == model.ReservationApproved {
		if err := s.locker.ConfirmSeatsTx(ctx, tx, linkedSeats); err != nil {
			return err
		}
	} else {
		// Links must go before the seat rows they reference.
		if err := s.links.DeleteByReservationTx(ctx, tx, reservationID); err != nil {
			return err
		}
		if err := s.locker.ReleaseSeatsTx(ctx, tx, linkedSeats); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	if target == model.ReservationApproved {
		codes := make([]string, len(linkedSeats))
		for i, seat := range linkedSeats {
			codes[i] = seat.Code
		}
		// Best-effort event: failures are logged by the publisher and
		// never fail the approval.
		_ = PublishReservationApproved(ctx, queue.ReservationApprovedEvent{
			ReservationID: reservationID,
			UserID:        res.UserID,
			ScheduleID:    res.ScheduleID,
			PostTitle:     post.Title,
			SeatCodes:     codes,
			ApprovedAt:    time.Now().UTC().Format(time.RFC3339),
		})
	}
	return nil
}

// CancelReservation lets the requesting shopper withdraw a reservation
// that is still PENDING. The seat links are deleted first, then the
// seat rows, then the reservation row; the links reference both sides
// and must never dangle.
func (s *ReservationService) CancelReservation(ctx context.Context, userID, reservationID uint64) error {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if res.UserID != userID {
		return model.ErrForbidden
	}
	if res.Status != model.ReservationPending {
		return model.ErrInvalidState
	}

	linkedSeats, err := s.linkedSeats(ctx, reservationID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.links.DeleteByReservationTx(ctx, tx, reservationID); err != nil {
		return err
	}
	if err := s.locker.ReleaseSeatsTx(ctx, tx, linkedSeats); err != nil {
		return err
	}
	if err := s.reservations.DeleteTx(ctx, tx, reservationID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ConfirmPayment records the payment collaborator's confirmation on a
// PENDING reservation owned by the caller. A checkout created before
// payment settled stays unapprovable until this is called.
func (s *ReservationService) ConfirmPayment(ctx context.Context, userID, reservationID uint64) error {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if res.UserID != userID {
		return model.ErrForbidden
	}
	if res.Status != model.ReservationPending {
		return model.ErrInvalidState
	}
	return s.reservations.SetPaymentCompleted(ctx, reservationID, true)
}

// RequestRefund moves an APPROVED reservation owned by the caller into
// REFUND_REQUESTED. Refunds cannot be filed once the performance has
// started.
func (s *ReservationService) RequestRefund(ctx context.Context, userID, reservationID uint64) (*RefundSummary, error) {
	res, post, schedule, err := s.loadWithPost(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, model.ErrForbidden
	}
	if schedule.StartTime.Before(time.Now().UTC()) {
		return nil, model.Validationf("the performance has already started")
	}
	if err := res.RequestRefund(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	if err := s.reservations.UpdateStatusTx(ctx, tx, reservationID, res.Status); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	opt, err := s.options.GetByID(ctx, res.TicketOptionID)
	if err != nil {
		return nil, err
	}
	return &RefundSummary{
		ReservationID: reservationID,
		Title:         post.Title,
		StartTime:     schedule.StartTime,
		TotalPrice:    opt.Price * res.Count,
		Status:        string(res.Status),
		RequestedAt:   time.Now().UTC(),
	}, nil
}

// ProcessRefund lets the post owner settle a refund request. Approval
// moves the reservation to REFUNDED and frees the reserved seats, links
// first; denial restores APPROVED and leaves the seats reserved.
func (s *ReservationService) ProcessRefund(ctx context.Context, actorID, reservationID uint64, approve bool) error {
	res, post, _, err := s.loadWithPost(ctx, reservationID)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		return model.ErrForbidden
	}

	if !approve {
		if err := res.DenyRefund(); err != nil {
			return err
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := s.reservations.UpdateStatusTx(ctx, tx, reservationID, res.Status); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	}

	if err := res.CompleteRefund(); err != nil {
		return err
	}
	linkedSeats, err := s.linkedSeats(ctx, reservationID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.reservations.UpdateStatusTx(ctx, tx, reservationID, res.Status); err != nil {
		return err
	}
	if err := s.links.DeleteByReservationTx(ctx, tx, reservationID); err != nil {
		return err
	}
	if err := s.locker.ReleaseSeatsTx(ctx, tx, linkedSeats); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	_ = PublishReservationRefunded(ctx, queue.ReservationRefundedEvent{
		ReservationID: reservationID,
		UserID:        res.UserID,
		ScheduleID:    res.ScheduleID,
		PostTitle:     post.Title,
		RefundedAt:    time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// GetSchedules returns a post's schedules with active ticket counts.
func (s *ReservationService) GetSchedules(ctx context.Context, postID uint64) ([]ScheduleInfo, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	scheds, err := s.schedules.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	out := make([]ScheduleInfo, 0, len(scheds))
	for _, sch := range scheds {
		active, err := s.reservations.ActiveCountBySchedule(ctx, sch.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ScheduleInfo{ScheduleID: sch.ID, StartTime: sch.StartTime, ActiveCount: active})
	}
	return out, nil
}

// GetSeatMap returns the materialized seat rows of a schedule. Only
// exception states appear; every other code is AVAILABLE by absence.
func (s *ReservationService) GetSeatMap(ctx context.Context, scheduleID uint64) ([]SeatInfo, error) {
	if _, err := s.schedules.GetByID(ctx, scheduleID); err != nil {
		return nil, err
	}
	seats, err := s.seats.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	out := make([]SeatInfo, 0, len(seats))
	for _, seat := range seats {
		out = append(out, SeatInfo{Code: seat.Code, Status: string(seat.Status)})
	}
	return out, nil
}

// GetTicketOptions returns a post's ticket options.
func (s *ReservationService) GetTicketOptions(ctx context.Context, postID uint64) ([]model.TicketOption, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.options.ListByPost(ctx, postID)
}

// ListUserReservations returns the caller's reservations with resolved
// seat codes.
func (s *ReservationService) ListUserReservations(ctx context.Context, userID uint64) ([]ReservationSummary, error) {
	reqs, err := s.reservations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, reqs)
}

// ListUserReservationsForSchedule returns the caller's reservations
// on one schedule: every line of the same checkout plus any later
// checkouts for that sitting.
func (s *ReservationService) ListUserReservationsForSchedule(ctx context.Context, userID, scheduleID uint64) ([]ReservationSummary, error) {
	if _, err := s.schedules.GetByID(ctx, scheduleID); err != nil {
		return nil, err
	}
	reqs, err := s.reservations.ListByUserAndSchedule(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, reqs)
}

// GetReservation returns a single reservation owned by the caller.
func (s *ReservationService) GetReservation(ctx context.Context, userID, reservationID uint64) (*ReservationSummary, error) {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, model.ErrForbidden
	}
	out, err := s.summarize(ctx, []model.ReservationRequest{*res})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// ListRequestsForPost returns every reservation for the organizer's
// post. The caller must own the post.
func (s *ReservationService) ListRequestsForPost(ctx context.Context, actorID, postID uint64) ([]ReservationSummary, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actorID {
		return nil, model.ErrForbidden
	}
	reqs, err := s.reservations.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, reqs)
}

// ListRefundRequests returns the organizer's refund inbox for a post.
func (s *ReservationService) ListRefundRequests(ctx context.Context, actorID, postID uint64) ([]ReservationSummary, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != actorID {
		return nil, model.ErrForbidden
	}
	reqs, err := s.reservations.ListByPostAndStatus(ctx, postID, model.ReservationRefundRequested)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, reqs)
}

// loadWithPost resolves a reservation together with its schedule and
// parent post for ownership checks.
func (s *ReservationService) loadWithPost(ctx context.Context, reservationID uint64) (*model.ReservationRequest, *model.PerformancePost, *model.Schedule, error) {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, nil, nil, err
	}
	schedule, err := s.schedules.GetByID(ctx, res.ScheduleID)
	if err != nil {
		return nil, nil, nil, err
	}
	post, err := s.posts.GetByID(ctx, schedule.PostID)
	if err != nil {
		return nil, nil, nil, err
	}
	return res, post, schedule, nil
}

// linkedSeats loads the seat rows linked to a reservation.
func (s *ReservationService) linkedSeats(ctx context.Context, reservationID uint64) ([]model.Seat, error) {
	ids, err := s.links.SeatIDsByReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	return s.seats.GetByIDs(ctx, ids)
}

func (s *ReservationService) summarize(ctx context.Context, reqs []model.ReservationRequest) ([]ReservationSummary, error) {
	out := make([]ReservationSummary, 0, len(reqs))
	for _, req := range reqs {
		schedule, err := s.schedules.GetByID(ctx, req.ScheduleID)
		if err != nil {
			return nil, err
		}
		post, err := s.posts.GetByID(ctx, schedule.PostID)
		if err != nil {
			return nil, err
		}
		opt, err := s.options.GetByID(ctx, req.TicketOptionID)
		if err != nil {
			return nil, err
		}
		codes, err := s.links.SeatCodesByReservation(ctx, req.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ReservationSummary{
			ReservationID: req.ID,
			Title:         post.Title,
			StartTime:     schedule.StartTime,
			Count:         req.Count,
			TotalPrice:    opt.Price * req.Count,
			Status:        string(req.Status),
			SeatCodes:     codes,
		})
	}
	return out, nil
}
