package orchestrator

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type pendingTimer struct {
	timer    clockwork.Timer
	deadline time.Time
	done     chan struct{}
}

// scheduleAt arms the one-shot timer for a draft's current deadline. A
// deadline already armed is left alone, so replayed events are harmless. A
// deadline in the past is enqueued right away.
func (o *Orchestrator) scheduleAt(draftID uuid.UUID, deadline time.Time) {
	o.activeTimersMu.Lock()
	defer o.activeTimersMu.Unlock()

	if existing, ok := o.activeTimers[draftID]; ok {
		if existing.deadline.Equal(deadline) {
			log.Debug().
				Str("draft_id", draftID.String()).
				Time("deadline", deadline).
				Msg("skipping duplicate schedule - already scheduled for this deadline")
			return
		}
		existing.stop()
		delete(o.activeTimers, draftID)
	}

	duration := deadline.Sub(o.clock.Now())
	if duration <= 0 {
		o.enqueue(draftID)
		return
	}

	pt := &pendingTimer{
		timer:    o.clock.NewTimer(duration),
		deadline: deadline,
		done:     make(chan struct{}),
	}
	o.activeTimers[draftID] = pt

	go func(id uuid.UUID, pt *pendingTimer) {
		select {
		case <-pt.timer.Chan():
			o.removeTimer(id, pt)
			o.enqueue(id)
		case <-pt.done:
		}
	}(draftID, pt)

	log.Debug().
		Str("draft_id", draftID.String()).
		Time("deadline", deadline).
		Dur("duration", duration).
		Msg("scheduled one-shot timer")
}

func (pt *pendingTimer) stop() {
	stopAndDrainTimer(pt.timer)
	close(pt.done)
}

// stopAndDrainTimer stops a timer and drains its channel if it already fired.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

// cancelTimer cancels and removes an active timer for a draft
func (o *Orchestrator) cancelTimer(draftID uuid.UUID) {
	o.activeTimersMu.Lock()
	defer o.activeTimersMu.Unlock()

	if pt, ok := o.activeTimers[draftID]; ok {
		pt.stop()
		delete(o.activeTimers, draftID)
		log.Debug().Str("draft_id", draftID.String()).Msg("cancelled existing timer")
	}
}

// removeTimer forgets a fired timer unless it was already replaced.
func (o *Orchestrator) removeTimer(draftID uuid.UUID, pt *pendingTimer) {
	o.activeTimersMu.Lock()
	defer o.activeTimersMu.Unlock()
	if o.activeTimers[draftID] == pt {
		delete(o.activeTimers, draftID)
	}
}

func (o *Orchestrator) cancelAll() {
	o.activeTimersMu.Lock()
	defer o.activeTimersMu.Unlock()
	for draftID, pt := range o.activeTimers {
		pt.stop()
		log.Debug().Str("draft_id", draftID.String()).Msg("cancelled timer on shutdown")
	}
	o.activeTimers = make(map[uuid.UUID]*pendingTimer)
}

// ActiveTimers returns how many drafts have an armed timer.
func (o *Orchestrator) ActiveTimers() int {
	o.activeTimersMu.Lock()
	defer o.activeTimersMu.Unlock()
	return len(o.activeTimers)
}

// Deadline returns the armed deadline for a draft.
func (o *Orchestrator) Deadline(draftID uuid.UUID) (time.Time, bool) {
	o.activeTimersMu.Lock()
	defer o.activeTimersMu.Unlock()
	pt, ok := o.activeTimers[draftID]
	if !ok {
		return time.Time{}, false
	}
	return pt.deadline, true
}
