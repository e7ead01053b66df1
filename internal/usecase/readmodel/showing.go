package readmodel

import (
	"time"

	"github.com/google/uuid"
)

// Read-side views returned to adapters. Write-side code works on domain
// entities; these are flat, serialization-friendly projections.

type SeatRM struct {
	ID         string
	Row        string
	Column     int
	Type       string
	PriceCents int64
	Accessible bool
	State      string
}

type ShowingRM struct {
	ID        uuid.UUID
	MovieID   uuid.UUID
	TheaterID uuid.UUID
	ScreenID  uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	Language  string
	Format    string
	Status    string
	Seats     []SeatRM
}

// AvailabilityRM is a derived seat-count view. Source records whether the
// numbers came from the cache or were recomputed from seat truth.
type AvailabilityRM struct {
	ShowingID  uuid.UUID
	Available  int
	Held       int
	Booked     int
	Blocked    int
	TotalSeats int
	Source     string
}

const (
	AvailabilitySourceCache    = "cache"
	AvailabilitySourceComputed = "computed"
)
