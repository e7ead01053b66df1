package booking

import (
	"time"

	"cinema-reservation/internal/domain/hold"
	"cinema-reservation/internal/domain/seatmap"
	"cinema-reservation/internal/pkg/errs"

	"github.com/google/uuid"
)

// Booking is a confirmed, paid-for claim on a seat set. It is immutable after
// creation except for the cancellation fields, and it is never deleted; the
// record stays for audit even after cancellation.
type Booking struct {
	id           uuid.UUID
	showingID    uuid.UUID
	requesterID  uuid.UUID
	seats        []seatmap.SeatID
	paymentRef   string
	amountCents  int64
	createdAt    time.Time
	cancelled    bool
	cancelledAt  *time.Time
	cancelReason string
}

// FromHold converts a confirmed hold into a booking. The payment reference is
// trusted to be authorized by the calling layer.
func FromHold(h *hold.Hold, paymentRef string, amountCents int64, now time.Time) (*Booking, error) {
	if paymentRef == "" {
		return nil, errs.New("payment reference must not be empty")
	}
	if amountCents < 0 {
		return nil, errs.New("booking amount cannot be negative")
	}
	return &Booking{
		id:          uuid.New(),
		showingID:   h.ShowingID(),
		requesterID: h.RequesterID(),
		seats:       h.Seats(),
		paymentRef:  paymentRef,
		amountCents: amountCents,
		createdAt:   now,
	}, nil
}

func Reconstruct(
	id, showingID, requesterID uuid.UUID,
	seats []seatmap.SeatID,
	paymentRef string,
	amountCents int64,
	createdAt time.Time,
	cancelled bool,
	cancelledAt *time.Time,
	cancelReason string,
) *Booking {
	return &Booking{
		id:           id,
		showingID:    showingID,
		requesterID:  requesterID,
		seats:        seatmap.Normalize(seats),
		paymentRef:   paymentRef,
		amountCents:  amountCents,
		createdAt:    createdAt,
		cancelled:    cancelled,
		cancelledAt:  cancelledAt,
		cancelReason: cancelReason,
	}
}

func (b *Booking) ID() uuid.UUID           { return b.id }
func (b *Booking) ShowingID() uuid.UUID    { return b.showingID }
func (b *Booking) RequesterID() uuid.UUID  { return b.requesterID }
func (b *Booking) Seats() []seatmap.SeatID { return b.seats }
func (b *Booking) PaymentRef() string      { return b.paymentRef }
func (b *Booking) AmountCents() int64      { return b.amountCents }
func (b *Booking) CreatedAt() time.Time    { return b.createdAt }
func (b *Booking) Cancelled() bool         { return b.cancelled }
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }
func (b *Booking) CancelReason() string    { return b.cancelReason }

// Cancel flags the booking as cancelled. The policy decision happens before
// this is called; Cancel only refuses double cancellation.
func (b *Booking) Cancel(now time.Time, reason string) error {
	if b.cancelled {
		return errs.ErrCancellationDenied
	}
	b.cancelled = true
	at := now
	b.cancelledAt = &at
	b.cancelReason = reason
	return nil
}
