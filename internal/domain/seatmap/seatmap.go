package seatmap

import (
	"fmt"
	"sort"

	"cinema-reservation/internal/pkg/errs"

	"github.com/google/uuid"
)

type State string

const (
	StateAvailable State = "available"
	StateHeld      State = "held"
	StateBooked    State = "booked"
	StateBlocked   State = "blocked"
)

func (s State) IsValid() bool {
	switch s {
	case StateAvailable, StateHeld, StateBooked, StateBlocked:
		return true
	default:
		return false
	}
}

// SeatID is the stable row+column label of a seat within one showing, e.g. "A12".
type SeatID string

// Normalize sorts and deduplicates a seat set. All multi-seat operations work
// on normalized sets so processing order is canonical regardless of how the
// caller enumerated the seats.
func Normalize(ids []SeatID) []SeatID {
	seen := make(map[SeatID]struct{}, len(ids))
	out := make([]SeatID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type seat struct {
	state  State
	holdID uuid.UUID // owning hold while state == held, uuid.Nil otherwise
}

// SeatMap is the authoritative seat-state record for one showing. Every seat
// is in exactly one of the four states at any instant; all transitions are
// all-or-nothing over their seat set. SeatMap itself is not safe for
// concurrent use; callers serialize access per showing.
type SeatMap struct {
	showingID uuid.UUID
	seats     map[SeatID]*seat
}

func New(showingID uuid.UUID, seatIDs []SeatID, blocked []SeatID) (*SeatMap, error) {
	if len(seatIDs) == 0 {
		return nil, errs.New("seat map requires at least one seat")
	}
	m := &SeatMap{
		showingID: showingID,
		seats:     make(map[SeatID]*seat, len(seatIDs)),
	}
	for _, id := range seatIDs {
		if _, dup := m.seats[id]; dup {
			return nil, errs.New(fmt.Sprintf("duplicate seat label %q", id))
		}
		m.seats[id] = &seat{state: StateAvailable}
	}
	for _, id := range blocked {
		s, ok := m.seats[id]
		if !ok {
			return nil, errs.New(fmt.Sprintf("blocked seat %q is not part of the showing", id))
		}
		s.state = StateBlocked
	}
	return m, nil
}

func (m *SeatMap) ShowingID() uuid.UUID {
	return m.showingID
}

func (m *SeatMap) TotalSeats() int {
	return len(m.seats)
}

// UnavailableError reports which seats blocked an all-or-nothing hold attempt.
// It matches errs.ErrSeatUnavailable under errors.Is.
type UnavailableError struct {
	Conflicting []SeatID
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("seat unavailable: %v", e.Conflicting)
}

func (e *UnavailableError) Is(target error) bool {
	return target == errs.ErrSeatUnavailable
}

// UnknownSeatError reports seat labels that do not exist on the showing.
// It matches errs.ErrSeatDoesNotExist under errors.Is.
type UnknownSeatError struct {
	Unknown []SeatID
}

func (e *UnknownSeatError) Error() string {
	return fmt.Sprintf("seat does not exist: %v", e.Unknown)
}

func (e *UnknownSeatError) Is(target error) bool {
	return target == errs.ErrSeatDoesNotExist
}

// TryHold transitions every seat in ids from available to held, owned by
// holdID. If any seat is unknown or not available the whole operation fails
// with no mutation, naming the offending seats.
func (m *SeatMap) TryHold(ids []SeatID, holdID uuid.UUID) error {
	if len(ids) == 0 {
		return errs.ErrEmptySeatSet
	}
	ids = Normalize(ids)

	var unknown []SeatID
	var conflicting []SeatID
	for _, id := range ids {
		s, ok := m.seats[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		if s.state != StateAvailable {
			conflicting = append(conflicting, id)
		}
	}
	if len(unknown) > 0 {
		return &UnknownSeatError{Unknown: unknown}
	}
	if len(conflicting) > 0 {
		return &UnavailableError{Conflicting: conflicting}
	}

	for _, id := range ids {
		m.seats[id].state = StateHeld
		m.seats[id].holdID = holdID
	}
	return nil
}

// Commit transitions all seats owned by holdID from held to booked and
// returns them in canonical order.
func (m *SeatMap) Commit(holdID uuid.UUID) ([]SeatID, error) {
	owned := m.ownedBy(holdID)
	if len(owned) == 0 {
		return nil, errs.ErrHoldNotFound
	}
	for _, id := range owned {
		m.seats[id].state = StateBooked
		m.seats[id].holdID = uuid.Nil
	}
	return owned, nil
}

// Release transitions all seats owned by holdID from held back to available.
// Releasing a hold that owns no seats is a no-op, not an error: the lazy
// expiry path and the sweeper may both reclaim the same hold.
func (m *SeatMap) Release(holdID uuid.UUID) []SeatID {
	owned := m.ownedBy(holdID)
	for _, id := range owned {
		m.seats[id].state = StateAvailable
		m.seats[id].holdID = uuid.Nil
	}
	return owned
}

// Book transitions available seats directly to booked, bypassing the held
// stage. Used when rebuilding a seat map from persisted bookings and when
// rolling back a failed cancellation.
func (m *SeatMap) Book(ids []SeatID) error {
	ids = Normalize(ids)
	var unknown []SeatID
	var conflicting []SeatID
	for _, id := range ids {
		s, ok := m.seats[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		if s.state != StateAvailable {
			conflicting = append(conflicting, id)
		}
	}
	if len(unknown) > 0 {
		return &UnknownSeatError{Unknown: unknown}
	}
	if len(conflicting) > 0 {
		return &UnavailableError{Conflicting: conflicting}
	}
	for _, id := range ids {
		m.seats[id].state = StateBooked
	}
	return nil
}

// Unbook transitions booked seats back to available (cancellation path).
// Every seat in ids must currently be booked.
func (m *SeatMap) Unbook(ids []SeatID) error {
	ids = Normalize(ids)
	for _, id := range ids {
		s, ok := m.seats[id]
		if !ok {
			return &UnknownSeatError{Unknown: []SeatID{id}}
		}
		if s.state != StateBooked {
			return errs.New(fmt.Sprintf("cannot unbook seat %q in state %q", id, s.state))
		}
	}
	for _, id := range ids {
		m.seats[id].state = StateAvailable
	}
	return nil
}

func (m *SeatMap) ownedBy(holdID uuid.UUID) []SeatID {
	var owned []SeatID
	for id, s := range m.seats {
		if s.state == StateHeld && s.holdID == holdID {
			owned = append(owned, id)
		}
	}
	return Normalize(owned)
}

// State reports the current state of one seat.
func (m *SeatMap) State(id SeatID) (State, bool) {
	s, ok := m.seats[id]
	if !ok {
		return "", false
	}
	return s.state, true
}

// Snapshot returns a copy of the full seat-state assignment.
func (m *SeatMap) Snapshot() map[SeatID]State {
	snap := make(map[SeatID]State, len(m.seats))
	for id, s := range m.seats {
		snap[id] = s.state
	}
	return snap
}

type Counts struct {
	Available int
	Held      int
	Booked    int
	Blocked   int
}

func (c Counts) Total() int {
	return c.Available + c.Held + c.Booked + c.Blocked
}

func (m *SeatMap) Counts() Counts {
	var c Counts
	for _, s := range m.seats {
		switch s.state {
		case StateAvailable:
			c.Available++
		case StateHeld:
			c.Held++
		case StateBooked:
			c.Booked++
		case StateBlocked:
			c.Blocked++
		}
	}
	return c
}

// CheckInvariant verifies that the four state sets partition the seat set and
// that held seats carry a hold owner. The map representation makes the
// disjointness half of the invariant structural; the checks here catch state
// corruption.
func (m *SeatMap) CheckInvariant() error {
	c := m.Counts()
	if c.Total() != len(m.seats) {
		return errs.New(fmt.Sprintf("state counts %+v do not cover %d seats", c, len(m.seats)))
	}
	for id, s := range m.seats {
		if !s.state.IsValid() {
			return errs.New(fmt.Sprintf("seat %q has invalid state %q", id, s.state))
		}
		if s.state == StateHeld && s.holdID == uuid.Nil {
			return errs.New(fmt.Sprintf("held seat %q has no owning hold", id))
		}
		if s.state != StateHeld && s.holdID != uuid.Nil {
			return errs.New(fmt.Sprintf("seat %q in state %q still references hold %s", id, s.state, s.holdID))
		}
	}
	return nil
}
