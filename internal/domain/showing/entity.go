package showing

import (
	"time"

	"cinema-reservation/internal/domain/seatmap"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

type Format string

const (
	Format2D   Format = "2D"
	Format3D   Format = "3D"
	FormatIMAX Format = "IMAX"
	Format4DX  Format = "4DX"
)

type SeatType string

const (
	SeatRegular    SeatType = "regular"
	SeatPremium    SeatType = "premium"
	SeatVIP        SeatType = "vip"
	SeatRecliner   SeatType = "recliner"
	SeatWheelchair SeatType = "wheelchair"
)

// Seat is the catalog definition of one seat on a showing's screen. The
// engine never edits these; state lives in the seat map.
type Seat struct {
	ID         seatmap.SeatID
	Row        string
	Column     int
	Type       SeatType
	PriceCents int64
	Accessible bool
	Blocked    bool
}

// Showing is the immutable catalog definition the engine reserves seats
// against. Only Status changes after creation; seats, times and labels are
// fixed once tickets are sold.
type Showing struct {
	id        uuid.UUID
	movieID   uuid.UUID
	theaterID uuid.UUID
	screenID  uuid.UUID
	startTime time.Time
	endTime   time.Time
	language  string
	format    Format
	status    Status
	seats     []Seat
}

func Reconstruct(
	id, movieID, theaterID, screenID uuid.UUID,
	startTime, endTime time.Time,
	language string,
	format Format,
	status Status,
	seats []Seat,
) *Showing {
	return &Showing{
		id:        id,
		movieID:   movieID,
		theaterID: theaterID,
		screenID:  screenID,
		startTime: startTime,
		endTime:   endTime,
		language:  language,
		format:    format,
		status:    status,
		seats:     seats,
	}
}

func (s *Showing) ID() uuid.UUID        { return s.id }
func (s *Showing) MovieID() uuid.UUID   { return s.movieID }
func (s *Showing) TheaterID() uuid.UUID { return s.theaterID }
func (s *Showing) ScreenID() uuid.UUID  { return s.screenID }
func (s *Showing) StartTime() time.Time { return s.startTime }
func (s *Showing) EndTime() time.Time   { return s.endTime }
func (s *Showing) Language() string     { return s.language }
func (s *Showing) Format() Format       { return s.format }
func (s *Showing) Status() Status       { return s.status }
func (s *Showing) Seats() []Seat        { return s.seats }

// IsBookable reports whether new holds may be taken: the showing must still
// be scheduled and its start must be further out than the minimum lead time.
func (s *Showing) IsBookable(now time.Time, minLeadTime time.Duration) bool {
	return s.status == StatusScheduled && s.startTime.Sub(now) > minLeadTime
}

func (s *Showing) SeatIDs() []seatmap.SeatID {
	ids := make([]seatmap.SeatID, 0, len(s.seats))
	for _, seat := range s.seats {
		ids = append(ids, seat.ID)
	}
	return ids
}

func (s *Showing) BlockedSeatIDs() []seatmap.SeatID {
	var ids []seatmap.SeatID
	for _, seat := range s.seats {
		if seat.Blocked {
			ids = append(ids, seat.ID)
		}
	}
	return ids
}

// PriceCentsFor sums the catalog price of the given seats. Unknown labels
// contribute nothing; existence is validated by the seat map before pricing.
func (s *Showing) PriceCentsFor(ids []seatmap.SeatID) int64 {
	byID := make(map[seatmap.SeatID]int64, len(s.seats))
	for _, seat := range s.seats {
		byID[seat.ID] = seat.PriceCents
	}
	var total int64
	for _, id := range ids {
		total += byID[id]
	}
	return total
}

// NewSeatMap builds the initial seat-state map for this showing: every seat
// available except catalog-blocked ones.
func (s *Showing) NewSeatMap() (*seatmap.SeatMap, error) {
	return seatmap.New(s.id, s.SeatIDs(), s.BlockedSeatIDs())
}
