package booking

import "time"

// CancellationPolicy decides whether a confirmed booking may still be
// cancelled. Pure and deterministic: the same booking, showtime and clock
// reading always yield the same answer.
type CancellationPolicy struct {
	MinWindow time.Duration
}

func NewCancellationPolicy(minWindow time.Duration) CancellationPolicy {
	return CancellationPolicy{MinWindow: minWindow}
}

// CanCancel denies when the booking is already cancelled or when the showing
// starts within the minimum cancellation window.
func (p CancellationPolicy) CanCancel(b *Booking, showingStart time.Time, now time.Time) bool {
	if b.Cancelled() {
		return false
	}
	return showingStart.Sub(now) > p.MinWindow
}
