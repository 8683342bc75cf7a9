// Package scheduler runs the background maintenance jobs of the
// reservation system. The only job today is the orphan seat reclaimer.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/stagepass/seat-reservation/internal/model"
	"github.com/stagepass/seat-reservation/internal/repository"
)

// Default sweep cadence and grace window. A shopper who claims seats
// and abandons checkout leaves PENDING rows behind; rows older than the
// grace window with no reservation link are reclaimed.
const (
	DefaultSweepInterval = time.Minute
	DefaultOrphanGrace   = 10 * time.Minute
)

// Reclaimer deletes orphaned PENDING seat rows on a fixed delay. Seats
// that have a reservation link are never touched, regardless of age;
// those belong to an in-flight or completed reservation and are only
// released through the aggregate's own lifecycle methods.
type Reclaimer struct {
	seats     *repository.SeatRepo
	interval  time.Duration
	grace     time.Duration
	scheduler gocron.Scheduler
}

// NewReclaimer builds a Reclaimer over the seat repository. A
// non-positive interval or grace falls back to the defaults.
func NewReclaimer(seats *repository.SeatRepo, interval, grace time.Duration) *Reclaimer {
	if seats == nil {
		panic("nil seat repository passed to NewReclaimer")
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if grace <= 0 {
		grace = DefaultOrphanGrace
	}
	return &Reclaimer{seats: seats, interval: interval, grace: grace}
}

// Start launches the recurring sweep. The job must keep running no
// matter what a single tick does, so Sweep traps its own errors and the
// scheduler only ever sees a nil return.
func (r *Reclaimer) Start() error {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return err
	}
	_, err = s.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() {
			r.Sweep(context.Background())
		}),
	)
	if err != nil {
		return err
	}
	r.scheduler = s
	s.Start()
	log.Printf("reclaimer: started (interval=%s grace=%s)", r.interval, r.grace)
	return nil
}

// Stop shuts the scheduler down, waiting for a running tick to finish.
func (r *Reclaimer) Stop() {
	if r.scheduler != nil {
		if err := r.scheduler.Shutdown(); err != nil {
			log.Printf("reclaimer: shutdown: %v", err)
		}
	}
}

// Sweep performs one reclamation pass: find PENDING seats older than
// the grace window with no reservation link, delete each, and report
// how many were reclaimed. Errors are logged and swallowed so the
// schedule keeps running.
func (r *Reclaimer) Sweep(ctx context.Context) int {
	cutoff := time.Now().UTC().Add(-r.grace)
	orphans, err := r.seats.FindOrphans(ctx, cutoff)
	if err != nil {
		log.Printf("reclaimer: orphan query failed: %v", err)
		return 0
	}
	if len(orphans) == 0 {
		return 0
	}

	reclaimed := 0
	for _, seat := range orphans {
		if seat.Status != model.SeatPending {
			// FindOrphans filters on status; a mismatch here means the
			// row changed under us, so leave it alone.
			continue
		}
		if err := r.seats.DeleteByID(ctx, seat.ID); err != nil {
			log.Printf("reclaimer: delete seat %d (schedule=%d code=%s) failed: %v",
				seat.ID, seat.ScheduleID, seat.Code, err)
			continue
		}
		log.Printf("reclaimer: released orphan seat [schedule=%d code=%s claimed=%s]",
			seat.ScheduleID, seat.Code, seat.CreatedAt.Format(time.RFC3339))
		reclaimed++
	}
	if reclaimed > 0 {
		log.Printf("reclaimer: released %d orphan seats", reclaimed)
	}
	return reclaimed
}
