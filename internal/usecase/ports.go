package usecase

import (
	"context"
	"time"

	"cinema-reservation/internal/domain/booking"
	"cinema-reservation/internal/domain/hold"
	"cinema-reservation/internal/domain/ledger"
	"cinema-reservation/internal/domain/seatmap"
	"cinema-reservation/internal/domain/showing"

	"github.com/google/uuid"
)

// Store ports. The engine requires only atomic per-record semantics from its
// store; seat-state arbitration itself happens under the per-showing latch,
// not in the store.

// ShowingRepository supplies immutable showing definitions from the catalog.
// The engine never creates or edits catalog entities.
type ShowingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*showing.Showing, error)
}

// HoldStore is the durable registry of in-flight holds.
type HoldStore interface {
	Insert(ctx context.Context, h *hold.Hold) error
	FindByID(ctx context.Context, id uuid.UUID) (*hold.Hold, error)
	Delete(ctx context.Context, id uuid.UUID) error
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*hold.Hold, error)
	FindByShowing(ctx context.Context, showingID uuid.UUID) ([]*hold.Hold, error)
	FindByRequester(ctx context.Context, requesterID uuid.UUID) ([]*hold.Hold, error)
}

// BookingStore persists confirmed bookings. Bookings are never deleted;
// cancellation only flags them.
type BookingStore interface {
	Insert(ctx context.Context, b *booking.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time, reason string) error
	FindActiveByShowing(ctx context.Context, showingID uuid.UUID) ([]*booking.Booking, error)
	FindByRequester(ctx context.Context, requesterID uuid.UUID) ([]*booking.Booking, error)
}

// LedgerStore is the append-only transition log. Append never overwrites;
// ListByShowing returns entries in recorded order.
type LedgerStore interface {
	Append(ctx context.Context, e ledger.Entry) error
	ListByShowing(ctx context.Context, showingID uuid.UUID) ([]ledger.Entry, error)
}

// RefundIntent is handed to the payment collaborator when a booking is
// cancelled. Processing is asynchronous; the seat transition never waits for
// the refund.
type RefundIntent struct {
	BookingID   uuid.UUID
	PaymentRef  string
	AmountCents int64
	RequestedAt time.Time
}

type RefundQueue interface {
	Enqueue(ctx context.Context, intent RefundIntent) error
}

// AvailabilityCache holds derived seat counts for display. It is never the
// source of truth; a miss or divergence is healed from seat state.
type AvailabilityCache interface {
	Get(ctx context.Context, showingID uuid.UUID) (seatmap.Counts, bool, error)
	Set(ctx context.Context, showingID uuid.UUID, counts seatmap.Counts) error
	Invalidate(ctx context.Context, showingID uuid.UUID) error
}
