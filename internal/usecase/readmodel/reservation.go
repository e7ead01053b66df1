package readmodel

import (
	"time"

	"github.com/google/uuid"
)

type HoldRM struct {
	ID          uuid.UUID
	ShowingID   uuid.UUID
	RequesterID uuid.UUID
	Seats       []string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

type BookingRM struct {
	ID           uuid.UUID
	ShowingID    uuid.UUID
	RequesterID  uuid.UUID
	Seats        []string
	PaymentRef   string
	AmountCents  int64
	CreatedAt    time.Time
	Cancelled    bool
	CancelledAt  *time.Time
	CancelReason string
}

type LedgerEntryRM struct {
	ID         uuid.UUID
	ShowingID  uuid.UUID
	Kind       string
	HoldID     *uuid.UUID
	BookingID  *uuid.UUID
	Seats      []string
	FromState  string
	ToState    string
	RecordedAt time.Time
}
