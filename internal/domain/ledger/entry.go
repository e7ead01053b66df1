package ledger

import (
	"fmt"
	"time"

	"cinema-reservation/internal/domain/seatmap"
	"cinema-reservation/internal/pkg/errs"

	"github.com/google/uuid"
)

type EventKind string

const (
	KindHoldCreated      EventKind = "hold-created"
	KindHoldConfirmed    EventKind = "hold-confirmed"
	KindHoldExpired      EventKind = "hold-expired"
	KindHoldReleased     EventKind = "hold-released"
	KindBookingCancelled EventKind = "booking-cancelled"
)

func (k EventKind) IsValid() bool {
	switch k {
	case KindHoldCreated, KindHoldConfirmed, KindHoldExpired, KindHoldReleased, KindBookingCancelled:
		return true
	default:
		return false
	}
}

// Entry is one immutable seat-state transition. Entries carry the seat set
// and the from/to states, which is enough to replay the showing's seat state
// at any past instant.
type Entry struct {
	ID         uuid.UUID
	ShowingID  uuid.UUID
	Kind       EventKind
	HoldID     *uuid.UUID
	BookingID  *uuid.UUID
	Seats      []seatmap.SeatID
	FromState  seatmap.State
	ToState    seatmap.State
	RecordedAt time.Time
}

func newEntry(showingID uuid.UUID, kind EventKind, seats []seatmap.SeatID, from, to seatmap.State, at time.Time) Entry {
	return Entry{
		ID:         uuid.New(),
		ShowingID:  showingID,
		Kind:       kind,
		Seats:      seatmap.Normalize(seats),
		FromState:  from,
		ToState:    to,
		RecordedAt: at,
	}
}

func HoldCreated(showingID, holdID uuid.UUID, seats []seatmap.SeatID, at time.Time) Entry {
	e := newEntry(showingID, KindHoldCreated, seats, seatmap.StateAvailable, seatmap.StateHeld, at)
	e.HoldID = &holdID
	return e
}

func HoldConfirmed(showingID, holdID, bookingID uuid.UUID, seats []seatmap.SeatID, at time.Time) Entry {
	e := newEntry(showingID, KindHoldConfirmed, seats, seatmap.StateHeld, seatmap.StateBooked, at)
	e.HoldID = &holdID
	e.BookingID = &bookingID
	return e
}

func HoldExpired(showingID, holdID uuid.UUID, seats []seatmap.SeatID, at time.Time) Entry {
	e := newEntry(showingID, KindHoldExpired, seats, seatmap.StateHeld, seatmap.StateAvailable, at)
	e.HoldID = &holdID
	return e
}

func HoldReleased(showingID, holdID uuid.UUID, seats []seatmap.SeatID, at time.Time) Entry {
	e := newEntry(showingID, KindHoldReleased, seats, seatmap.StateHeld, seatmap.StateAvailable, at)
	e.HoldID = &holdID
	return e
}

func BookingCancelled(showingID, bookingID uuid.UUID, seats []seatmap.SeatID, at time.Time) Entry {
	e := newEntry(showingID, KindBookingCancelled, seats, seatmap.StateBooked, seatmap.StateAvailable, at)
	e.BookingID = &bookingID
	return e
}

// Replay folds a showing's entries over its initial seat state and returns
// the resulting assignment. Entries must be in recorded order. Replay is how
// derived availability counters are recomputed and verified; it never trusts
// a counter, only transitions.
func Replay(seatIDs []seatmap.SeatID, blocked []seatmap.SeatID, entries []Entry) (map[seatmap.SeatID]seatmap.State, error) {
	states := make(map[seatmap.SeatID]seatmap.State, len(seatIDs))
	for _, id := range seatIDs {
		states[id] = seatmap.StateAvailable
	}
	for _, id := range blocked {
		if _, ok := states[id]; !ok {
			return nil, errs.New(fmt.Sprintf("blocked seat %q not in seat set", id))
		}
		states[id] = seatmap.StateBlocked
	}

	for _, e := range entries {
		if !e.Kind.IsValid() {
			return nil, errs.New(fmt.Sprintf("ledger entry %s has unknown kind %q", e.ID, e.Kind))
		}
		for _, id := range e.Seats {
			current, ok := states[id]
			if !ok {
				return nil, errs.New(fmt.Sprintf("ledger entry %s references unknown seat %q", e.ID, id))
			}
			if current != e.FromState {
				return nil, errs.New(fmt.Sprintf(
					"ledger divergence at entry %s: seat %q is %q, entry expects %q",
					e.ID, id, current, e.FromState,
				))
			}
			states[id] = e.ToState
		}
	}
	return states, nil
}

// AvailableCount replays entries and counts seats left available.
func AvailableCount(seatIDs []seatmap.SeatID, blocked []seatmap.SeatID, entries []Entry) (int, error) {
	states, err := Replay(seatIDs, blocked, entries)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range states {
		if s == seatmap.StateAvailable {
			n++
		}
	}
	return n, nil
}
