package hold

import (
	"time"

	"cinema-reservation/internal/domain/seatmap"
	"cinema-reservation/internal/pkg/errs"

	"github.com/google/uuid"
)

// Hold is a time-bounded provisional claim on a set of seats within one
// showing. It exists from reserve until confirm, explicit release, or expiry;
// the owned seats are exactly the seats the showing's seat map has in state
// held under this hold's id.
type Hold struct {
	id          uuid.UUID
	showingID   uuid.UUID
	requesterID uuid.UUID
	seats       []seatmap.SeatID
	createdAt   time.Time
	expiresAt   time.Time
}

func New(showingID, requesterID uuid.UUID, seats []seatmap.SeatID, now time.Time, ttl time.Duration) (*Hold, error) {
	if len(seats) == 0 {
		return nil, errs.ErrEmptySeatSet
	}
	if ttl <= 0 {
		return nil, errs.New("hold ttl must be positive")
	}
	return &Hold{
		id:          uuid.New(),
		showingID:   showingID,
		requesterID: requesterID,
		seats:       seatmap.Normalize(seats),
		createdAt:   now,
		expiresAt:   now.Add(ttl),
	}, nil
}

func Reconstruct(id, showingID, requesterID uuid.UUID, seats []seatmap.SeatID, createdAt, expiresAt time.Time) *Hold {
	return &Hold{
		id:          id,
		showingID:   showingID,
		requesterID: requesterID,
		seats:       seatmap.Normalize(seats),
		createdAt:   createdAt,
		expiresAt:   expiresAt,
	}
}

func (h *Hold) ID() uuid.UUID            { return h.id }
func (h *Hold) ShowingID() uuid.UUID     { return h.showingID }
func (h *Hold) RequesterID() uuid.UUID   { return h.requesterID }
func (h *Hold) Seats() []seatmap.SeatID  { return h.seats }
func (h *Hold) CreatedAt() time.Time     { return h.createdAt }
func (h *Hold) ExpiresAt() time.Time     { return h.expiresAt }

// Expired reports whether the hold's TTL has elapsed. A hold counts as
// expired the instant now reaches expiresAt, whether or not reclamation ran.
func (h *Hold) Expired(now time.Time) bool {
	return !now.Before(h.expiresAt)
}
