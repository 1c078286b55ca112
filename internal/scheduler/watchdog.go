// Package scheduler reclaims abandoned seat holds.  Every hold gets
// a set of in-process watchdogs (staged reminders, then an
// auto-release), and a background sweep re-evaluates all HOLDING
// seats against their persisted deadline so expiries survive a
// process restart.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/orromotors/bus-seat-reservation/internal/model"
	"github.com/orromotors/bus-seat-reservation/internal/repository"
)

// Notifier is the fire-and-forget notification dispatch used for
// reminder and cancellation notices.  Failures are logged by the
// implementation and never affect seat state.
type Notifier interface {
	HoldReminder(ctx context.Context, userID, tripID, seatID uint64, position uint32, minutesLeft int) error
	HoldReleased(ctx context.Context, userID, tripID, seatID uint64, position uint32) error
}

// Watchdog schedules the deferred checks attached to every seat
// hold.  Each check re-reads the seat's live state at fire time, so
// a payment that lands between scheduling and firing turns the
// remaining checks into no-ops without any explicit cancellation.
type Watchdog struct {
	seats    *repository.SeatRepo
	notifier Notifier

	holdTTL    time.Duration
	reminders  []time.Duration
	sweepEvery time.Duration

	mu     sync.Mutex
	timers map[uint64][]*time.Timer
}

// New builds a Watchdog.  holdTTL is the auto-release deadline
// measured from hold start and reminders are the earlier offsets at
// which the holder is nudged.
func New(seats *repository.SeatRepo, notifier Notifier, holdTTL time.Duration, reminders []time.Duration, sweepEvery time.Duration) *Watchdog {
	return &Watchdog{
		seats:      seats,
		notifier:   notifier,
		holdTTL:    holdTTL,
		reminders:  reminders,
		sweepEvery: sweepEvery,
		timers:     make(map[uint64][]*time.Timer),
	}
}

// HoldTTL returns the hold window, which handlers persist as the
// seat's hold_expires_at deadline.
func (w *Watchdog) HoldTTL() time.Duration { return w.holdTTL }

// Schedule registers the deferred checks for a fresh hold on a
// seat: one reminder per configured offset and the final release at
// the hold deadline.  Watchdogs are per seat, so a batch hold
// schedules an independent set for every seat in the batch.
func (w *Watchdog) Schedule(seatID uint64) {
	w.Cancel(seatID)
	timers := make([]*time.Timer, 0, len(w.reminders)+1)
	for _, after := range w.reminders {
		timers = append(timers, time.AfterFunc(after, func() { w.remind(seatID) }))
	}
	timers = append(timers, time.AfterFunc(w.holdTTL, func() { w.release(seatID) }))
	w.mu.Lock()
	w.timers[seatID] = timers
	w.mu.Unlock()
}

// Cancel stops any pending timers for a seat.  Purely an
// optimization: the checks are already no-ops once the seat leaves
// HOLDING, because each one re-reads state before acting.
func (w *Watchdog) Cancel(seatID uint64) {
	w.mu.Lock()
	for _, t := range w.timers[seatID] {
		t.Stop()
	}
	delete(w.timers, seatID)
	w.mu.Unlock()
}

// Run drives the recovery sweep until ctx is cancelled.  Every tick
// it reclaims HOLDING seats whose persisted deadline has passed,
// covering holds whose in-process timers were lost to a restart.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Watchdog) sweep(ctx context.Context) {
	expired, err := w.seats.ListExpiredHolds(ctx, time.Now())
	if err != nil {
		log.Printf("watchdog: list expired holds: %v", err)
		return
	}
	for _, seat := range expired {
		w.releaseSeat(ctx, &seat)
	}
}

// remind fires a staged reminder.  The seat is re-read first: a
// seat that was paid, confirmed or already released since the hold
// started gets no reminder.
func (w *Watchdog) remind(seatID uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seat, err := w.seats.GetByID(ctx, seatID)
	if err != nil {
		if err != repository.ErrSeatNotFound {
			log.Printf("watchdog: reminder re-read seat %d: %v", seatID, err)
		}
		return
	}
	if !stillHolding(seat) || seat.BookedBy == nil {
		return
	}
	minutesLeft := 0
	if seat.HoldExpiresAt != nil {
		minutesLeft = int(time.Until(*seat.HoldExpiresAt).Round(time.Minute) / time.Minute)
	}
	if err := w.notifier.HoldReminder(ctx, *seat.BookedBy, seat.TripID, seat.ID, seat.Position, minutesLeft); err != nil {
		log.Printf("watchdog: reminder notice seat %d: %v", seatID, err)
	}
}

// release fires the final check: if the seat is still HOLDING and
// unpaid, it is returned to FREE and the holder notified.
func (w *Watchdog) release(seatID uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seat, err := w.seats.GetByID(ctx, seatID)
	if err != nil {
		if err != repository.ErrSeatNotFound {
			log.Printf("watchdog: release re-read seat %d: %v", seatID, err)
		}
		return
	}
	w.releaseSeat(ctx, seat)
}

func (w *Watchdog) releaseSeat(ctx context.Context, seat *model.Seat) {
	w.Cancel(seat.ID)
	if !stillHolding(seat) {
		return
	}
	holder := seat.BookedBy

	// The conditional write re-asserts HOLDING-and-unpaid; a payment
	// landing in the last instant makes this a conflict, not a
	// double release.
	switch err := w.seats.ReleaseHold(ctx, seat.ID); err {
	case nil:
	case repository.ErrSeatConflict, repository.ErrSeatNotFound:
		return
	default:
		log.Printf("watchdog: release seat %d: %v", seat.ID, err)
		return
	}
	if holder != nil {
		if err := w.notifier.HoldReleased(ctx, *holder, seat.TripID, seat.ID, seat.Position); err != nil {
			log.Printf("watchdog: release notice seat %d: %v", seat.ID, err)
		}
	}
}

// stillHolding reports whether the seat is in the HOLDING state the
// watchdog checks act on: a live hold, unconfirmed and unpaid.
func stillHolding(seat *model.Seat) bool {
	return seat.IsBooking && !seat.IsBooked && !seat.IsPaid
}
