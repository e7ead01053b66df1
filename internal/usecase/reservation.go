package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"cinema-reservation/internal/domain/booking"
	"cinema-reservation/internal/domain/hold"
	"cinema-reservation/internal/domain/ledger"
	"cinema-reservation/internal/domain/seatmap"
	"cinema-reservation/internal/domain/showing"
	"cinema-reservation/internal/infra"
	"cinema-reservation/internal/pkg/clock"
	"cinema-reservation/internal/pkg/config"
	"cinema-reservation/internal/pkg/errs"
	"cinema-reservation/internal/usecase/readmodel"

	"github.com/google/uuid"
)

type ReserveSeatsParams struct {
	ShowingID   uuid.UUID
	Seats       []seatmap.SeatID
	RequesterID uuid.UUID
	TTL         time.Duration // zero means the configured default
}

// ReservationCommands is the engine's write surface. All four operations on
// one showing are mutually exclusive; operations on different showings run in
// parallel.
type ReservationCommands interface {
	ReserveSeats(ctx context.Context, params ReserveSeatsParams) (*readmodel.HoldRM, error)
	ConfirmHold(ctx context.Context, holdID uuid.UUID, paymentRef string) (*readmodel.BookingRM, error)
	ReleaseHold(ctx context.Context, holdID uuid.UUID) error
	CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) error
}

// showingState is one showing's serialized mutable state: the seat map plus
// the catalog definition it was built from. mu is the per-showing latch from
// the concurrency model; nothing touches seats without holding it.
type showingState struct {
	mu      sync.Mutex
	showing *showing.Showing
	seats   *seatmap.SeatMap
}

// ReservationManager owns seat-state arbitration. It keeps a lazily populated
// registry of per-showing states; the registry mutex only guards map access,
// never seat mutation, so contention stays scoped to single showings.
type ReservationManager struct {
	showings ShowingRepository
	holds    HoldStore
	bookings BookingStore
	ledger   LedgerStore
	refunds  RefundQueue
	cache    AvailabilityCache
	policy   booking.CancellationPolicy
	clock    clock.Clock
	cfg      config.ReservationConfig
	logger   *slog.Logger

	mu     sync.Mutex
	states map[uuid.UUID]*showingState
}

func NewReservationManager(
	showings ShowingRepository,
	holds HoldStore,
	bookings BookingStore,
	ledgerStore LedgerStore,
	refunds RefundQueue,
	cache AvailabilityCache,
	clk clock.Clock,
	cfg config.ReservationConfig,
	logger *slog.Logger,
) *ReservationManager {
	return &ReservationManager{
		showings: showings,
		holds:    holds,
		bookings: bookings,
		ledger:   ledgerStore,
		refunds:  refunds,
		cache:    cache,
		policy:   booking.NewCancellationPolicy(cfg.MinCancellationWindow),
		clock:    clk,
		cfg:      cfg,
		logger:   logger,
		states:   make(map[uuid.UUID]*showingState),
	}
}

var _ ReservationCommands = (*ReservationManager)(nil)

func (m *ReservationManager) entry(showingID uuid.UUID) *showingState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[showingID]
	if !ok {
		st = &showingState{}
		m.states[showingID] = st
	}
	return st
}

// withShowing runs fn with the showing's latch held, hydrating the seat map
// from the store on first touch. No payment or notification I/O happens
// inside fn; those side effects run after the latch is released.
func (m *ReservationManager) withShowing(ctx context.Context, showingID uuid.UUID, fn func(st *showingState) error) error {
	st := m.entry(showingID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.seats == nil {
		if err := m.hydrate(ctx, st, showingID); err != nil {
			return err
		}
	}
	return fn(st)
}

// hydrate rebuilds a showing's seat map from durable truth: catalog seats,
// active holds and non-cancelled bookings. Expired-but-unswept holds are
// restored as held; the lazy path and the sweeper reclaim them as usual.
func (m *ReservationManager) hydrate(ctx context.Context, st *showingState, showingID uuid.UUID) error {
	sh, err := m.showings.FindByID(ctx, showingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return errs.ErrShowingNotFound
		}
		return errs.Mark(err, errs.ErrStorageOperationFailed)
	}

	seats, err := sh.NewSeatMap()
	if err != nil {
		return err
	}

	activeHolds, err := m.holds.FindByShowing(ctx, showingID)
	if err != nil {
		return errs.Mark(err, errs.ErrStorageOperationFailed)
	}
	for _, h := range activeHolds {
		if err := seats.TryHold(h.Seats(), h.ID()); err != nil {
			return errs.Wrap(err, "restoring hold "+h.ID().String())
		}
	}

	activeBookings, err := m.bookings.FindActiveByShowing(ctx, showingID)
	if err != nil {
		return errs.Mark(err, errs.ErrStorageOperationFailed)
	}
	for _, b := range activeBookings {
		if err := seats.Book(b.Seats()); err != nil {
			return errs.Wrap(err, "restoring booking "+b.ID().String())
		}
	}

	st.showing = sh
	st.seats = seats
	return nil
}

func (m *ReservationManager) holdTTL(requested time.Duration) time.Duration {
	if requested <= 0 {
		return m.cfg.DefaultHoldTTL
	}
	if requested > m.cfg.MaxHoldTTL {
		return m.cfg.MaxHoldTTL
	}
	return requested
}

// ReserveSeats places an all-or-nothing hold on the requested seat set. On
// any failure the seat map is untouched; overlapping concurrent requests see
// first-claim-wins determined by latch acquisition order.
func (m *ReservationManager) ReserveSeats(ctx context.Context, params ReserveSeatsParams) (*readmodel.HoldRM, error) {
	if len(params.Seats) == 0 {
		return nil, errs.ErrEmptySeatSet
	}

	var rm *readmodel.HoldRM
	err := m.withShowing(ctx, params.ShowingID, func(st *showingState) error {
		now := m.clock.Now()
		if !st.showing.IsBookable(now, m.cfg.MinBookingLeadTime) {
			return errs.ErrShowingNotBookable
		}

		h, err := hold.New(params.ShowingID, params.RequesterID, params.Seats, now, m.holdTTL(params.TTL))
		if err != nil {
			return err
		}
		if err := st.seats.TryHold(h.Seats(), h.ID()); err != nil {
			return err
		}

		if err := m.holds.Insert(ctx, h); err != nil {
			st.seats.Release(h.ID())
			return errs.Mark(err, errs.ErrStorageOperationFailed)
		}
		if err := m.ledger.Append(ctx, ledger.HoldCreated(params.ShowingID, h.ID(), h.Seats(), now)); err != nil {
			st.seats.Release(h.ID())
			if delErr := m.holds.Delete(ctx, h.ID()); delErr != nil {
				m.logger.Error("failed to undo hold after ledger failure",
					"hold_id", h.ID(), "error", delErr)
			}
			return errs.Mark(err, errs.ErrStorageOperationFailed)
		}

		rm = holdToRM(h)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.invalidateAvailability(ctx, params.ShowingID)
	return rm, nil
}

// ConfirmHold converts a live hold into a booking. A hold past its expiry is
// reclaimed inline and reported expired even when the sweeper has not run
// yet, so no caller can confirm a dead hold.
func (m *ReservationManager) ConfirmHold(ctx context.Context, holdID uuid.UUID, paymentRef string) (*readmodel.BookingRM, error) {
	if paymentRef == "" {
		return nil, errs.New("payment reference must not be empty")
	}

	h, err := m.findHold(ctx, holdID)
	if err != nil {
		return nil, err
	}

	var rm *readmodel.BookingRM
	err = m.withShowing(ctx, h.ShowingID(), func(st *showingState) error {
		// Re-read under the latch; the sweeper may have reclaimed it since.
		h, err := m.findHold(ctx, holdID)
		if err != nil {
			return err
		}

		now := m.clock.Now()
		if h.Expired(now) {
			m.reclaimLocked(ctx, st, h, ledger.KindHoldExpired, now)
			return errs.ErrHoldExpired
		}

		seats, err := st.seats.Commit(h.ID())
		if err != nil {
			return err
		}
		revert := func() {
			if err := st.seats.Unbook(seats); err != nil {
				m.logger.Error("failed to revert confirm", "hold_id", h.ID(), "error", err)
				return
			}
			if err := st.seats.TryHold(seats, h.ID()); err != nil {
				m.logger.Error("failed to restore hold after revert", "hold_id", h.ID(), "error", err)
			}
		}

		b, err := booking.FromHold(h, paymentRef, st.showing.PriceCentsFor(seats), now)
		if err != nil {
			revert()
			return err
		}
		if err := m.bookings.Insert(ctx, b); err != nil {
			revert()
			return errs.Mark(err, errs.ErrStorageOperationFailed)
		}
		if err := m.holds.Delete(ctx, h.ID()); err != nil {
			m.logger.Error("confirmed hold left behind in store", "hold_id", h.ID(), "error", err)
		}
		if err := m.ledger.Append(ctx, ledger.HoldConfirmed(h.ShowingID(), h.ID(), b.ID(), seats, now)); err != nil {
			m.logger.Error("failed to append hold-confirmed ledger entry", "hold_id", h.ID(), "error", err)
		}

		rm = bookingToRM(b)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.invalidateAvailability(ctx, h.ShowingID())
	return rm, nil
}

// ReleaseHold is explicit abandonment. Releasing a hold that has meanwhile
// expired still reclaims it and succeeds; by then the caller's goal is met.
func (m *ReservationManager) ReleaseHold(ctx context.Context, holdID uuid.UUID) error {
	h, err := m.findHold(ctx, holdID)
	if err != nil {
		return err
	}

	err = m.withShowing(ctx, h.ShowingID(), func(st *showingState) error {
		h, err := m.findHold(ctx, holdID)
		if err != nil {
			return err
		}
		now := m.clock.Now()
		kind := ledger.KindHoldReleased
		if h.Expired(now) {
			kind = ledger.KindHoldExpired
		}
		m.reclaimLocked(ctx, st, h, kind, now)
		return nil
	})
	if err != nil {
		return err
	}

	m.invalidateAvailability(ctx, h.ShowingID())
	return nil
}

// ReclaimExpired is the sweeper's entry point. Reclaiming a hold that the
// lazy path already handled is a no-op, not an error.
func (m *ReservationManager) ReclaimExpired(ctx context.Context, holdID uuid.UUID) error {
	h, err := m.findHold(ctx, holdID)
	if err != nil {
		if errs.Is(err, errs.ErrHoldNotFound) {
			return nil
		}
		return err
	}

	err = m.withShowing(ctx, h.ShowingID(), func(st *showingState) error {
		h, err := m.findHold(ctx, holdID)
		if err != nil {
			if errs.Is(err, errs.ErrHoldNotFound) {
				return nil
			}
			return err
		}
		now := m.clock.Now()
		if !h.Expired(now) {
			return nil
		}
		m.reclaimLocked(ctx, st, h, ledger.KindHoldExpired, now)
		return nil
	})
	if err != nil {
		return err
	}

	m.invalidateAvailability(ctx, h.ShowingID())
	return nil
}

// reclaimLocked releases a hold's seats and removes the hold record. Caller
// holds the showing latch. Failures are logged, never raised: the operation
// is idempotent and the sweeper retries until the store agrees.
//
// The ledger entry is appended before the hold record is deleted. A retry
// after a failed delete finds the seats already released and appends nothing,
// so the seat transition is recorded exactly once even when the delete has
// to be repeated.
func (m *ReservationManager) reclaimLocked(ctx context.Context, st *showingState, h *hold.Hold, kind ledger.EventKind, now time.Time) {
	released := st.seats.Release(h.ID())
	if len(released) > 0 {
		var entry ledger.Entry
		if kind == ledger.KindHoldExpired {
			entry = ledger.HoldExpired(h.ShowingID(), h.ID(), released, now)
		} else {
			entry = ledger.HoldReleased(h.ShowingID(), h.ID(), released, now)
		}
		if err := m.ledger.Append(ctx, entry); err != nil {
			m.logger.Error("failed to append reclamation ledger entry", "hold_id", h.ID(), "error", err)
		}
	}
	if err := m.holds.Delete(ctx, h.ID()); err != nil {
		m.logger.Error("failed to delete reclaimed hold", "hold_id", h.ID(), "error", err)
	}
}

// CancelBooking applies the cancellation policy and, when approved, returns
// the booking's seats to the pool. The refund intent is emitted after the
// latch is released; refund completion never gates the seat transition.
func (m *ReservationManager) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) error {
	b, err := m.findBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	var intent *RefundIntent
	err = m.withShowing(ctx, b.ShowingID(), func(st *showingState) error {
		b, err := m.findBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		now := m.clock.Now()
		if !m.policy.CanCancel(b, st.showing.StartTime(), now) {
			return errs.ErrCancellationDenied
		}
		if err := b.Cancel(now, reason); err != nil {
			return err
		}
		if err := st.seats.Unbook(b.Seats()); err != nil {
			return err
		}

		if err := m.bookings.MarkCancelled(ctx, b.ID(), now, reason); err != nil {
			if bookErr := st.seats.Book(b.Seats()); bookErr != nil {
				m.logger.Error("failed to restore seats after cancel rollback",
					"booking_id", b.ID(), "error", bookErr)
			}
			return errs.Mark(err, errs.ErrStorageOperationFailed)
		}
		if err := m.ledger.Append(ctx, ledger.BookingCancelled(b.ShowingID(), b.ID(), b.Seats(), now)); err != nil {
			m.logger.Error("failed to append booking-cancelled ledger entry",
				"booking_id", b.ID(), "error", err)
		}

		intent = &RefundIntent{
			BookingID:   b.ID(),
			PaymentRef:  b.PaymentRef(),
			AmountCents: b.AmountCents(),
			RequestedAt: now,
		}
		return nil
	})
	if err != nil {
		return err
	}

	if intent != nil {
		if err := m.refunds.Enqueue(ctx, *intent); err != nil {
			// Best effort: the cancellation stands, the payment collaborator
			// retries delivery.
			m.logger.Error("failed to enqueue refund intent", "booking_id", bookingID, "error", err)
		}
	}
	m.invalidateAvailability(ctx, b.ShowingID())
	return nil
}

// SnapshotSeats returns the current seat-state assignment for one showing.
func (m *ReservationManager) SnapshotSeats(ctx context.Context, showingID uuid.UUID) (*showing.Showing, map[seatmap.SeatID]seatmap.State, error) {
	var sh *showing.Showing
	var snap map[seatmap.SeatID]seatmap.State
	err := m.withShowing(ctx, showingID, func(st *showingState) error {
		sh = st.showing
		snap = st.seats.Snapshot()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return sh, snap, nil
}

// SeatCounts returns the live state counts for one showing.
func (m *ReservationManager) SeatCounts(ctx context.Context, showingID uuid.UUID) (seatmap.Counts, error) {
	var counts seatmap.Counts
	err := m.withShowing(ctx, showingID, func(st *showingState) error {
		counts = st.seats.Counts()
		return nil
	})
	return counts, err
}

func (m *ReservationManager) findHold(ctx context.Context, id uuid.UUID) (*hold.Hold, error) {
	h, err := m.holds.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrHoldNotFound
		}
		return nil, errs.Mark(err, errs.ErrStorageOperationFailed)
	}
	return h, nil
}

func (m *ReservationManager) findBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	b, err := m.bookings.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrBookingNotFound
		}
		return nil, errs.Mark(err, errs.ErrStorageOperationFailed)
	}
	return b, nil
}

func (m *ReservationManager) invalidateAvailability(ctx context.Context, showingID uuid.UUID) {
	if err := m.cache.Invalidate(ctx, showingID); err != nil {
		m.logger.Warn("failed to invalidate availability cache", "showing_id", showingID, "error", err)
	}
}

func holdToRM(h *hold.Hold) *readmodel.HoldRM {
	return &readmodel.HoldRM{
		ID:          h.ID(),
		ShowingID:   h.ShowingID(),
		RequesterID: h.RequesterID(),
		Seats:       seatIDsToStrings(h.Seats()),
		CreatedAt:   h.CreatedAt(),
		ExpiresAt:   h.ExpiresAt(),
	}
}

func bookingToRM(b *booking.Booking) *readmodel.BookingRM {
	return &readmodel.BookingRM{
		ID:           b.ID(),
		ShowingID:    b.ShowingID(),
		RequesterID:  b.RequesterID(),
		Seats:        seatIDsToStrings(b.Seats()),
		PaymentRef:   b.PaymentRef(),
		AmountCents:  b.AmountCents(),
		CreatedAt:    b.CreatedAt(),
		Cancelled:    b.Cancelled(),
		CancelledAt:  b.CancelledAt(),
		CancelReason: b.CancelReason(),
	}
}

func seatIDsToStrings(ids []seatmap.SeatID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
