//go:build unit

package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"cinema-reservation/internal/domain/hold"
	"cinema-reservation/internal/domain/ledger"
	"cinema-reservation/internal/domain/seatmap"
	"cinema-reservation/internal/domain/showing"
	"cinema-reservation/internal/infra"
	"cinema-reservation/internal/infra/memory"
	"cinema-reservation/internal/pkg/clock"
	"cinema-reservation/internal/pkg/config"
	"cinema-reservation/internal/pkg/errs"
	"cinema-reservation/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	manager  *usecase.ReservationManager
	showings *memory.ShowingRepository
	holds    *memory.HoldStore
	bookings *memory.BookingStore
	ledger   *memory.LedgerStore
	refunds  *memory.RefundQueue
	cache    *memory.AvailabilityCache
	clock    *clock.MockClock
	cfg      config.ReservationConfig
	showing  *showing.Showing
}

func testShowing(start time.Time) *showing.Showing {
	seats := []showing.Seat{
		{ID: "A1", Row: "A", Column: 1, Type: showing.SeatRegular, PriceCents: 1500},
		{ID: "A2", Row: "A", Column: 2, Type: showing.SeatRegular, PriceCents: 1500},
		{ID: "A3", Row: "A", Column: 3, Type: showing.SeatRegular, PriceCents: 1500},
		{ID: "B1", Row: "B", Column: 1, Type: showing.SeatPremium, PriceCents: 2200},
		{ID: "B2", Row: "B", Column: 2, Type: showing.SeatPremium, PriceCents: 2200},
	}
	return showing.Reconstruct(
		uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		start, start.Add(2*time.Hour),
		"en", showing.Format2D, showing.StatusScheduled, seats,
	)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		showings: memory.NewShowingRepository(),
		holds:    memory.NewHoldStore(),
		bookings: memory.NewBookingStore(),
		ledger:   memory.NewLedgerStore(),
		refunds:  memory.NewRefundQueue(),
		cache:    memory.NewAvailabilityCache(),
		clock:    clock.NewMockClock(baseTime),
		cfg:      config.NewTestConfig().Reservation,
	}
	f.showing = testShowing(baseTime.Add(48 * time.Hour))
	f.showings.Put(f.showing)

	f.manager = usecase.NewReservationManager(
		f.showings, f.holds, f.bookings, f.ledger, f.refunds, f.cache,
		f.clock, f.cfg, slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return f
}

func (f *fixture) reserve(t *testing.T, seats ...seatmap.SeatID) *hold.Hold {
	t.Helper()
	rm, err := f.manager.ReserveSeats(context.Background(), usecase.ReserveSeatsParams{
		ShowingID:   f.showing.ID(),
		Seats:       seats,
		RequesterID: uuid.New(),
	})
	require.NoError(t, err)
	h, err := f.holds.FindByID(context.Background(), rm.ID)
	require.NoError(t, err)
	return h
}

func (f *fixture) state(t *testing.T, id seatmap.SeatID) seatmap.State {
	t.Helper()
	_, snap, err := f.manager.SnapshotSeats(context.Background(), f.showing.ID())
	require.NoError(t, err)
	return snap[id]
}

func (f *fixture) lastEntry(t *testing.T) ledger.Entry {
	t.Helper()
	entries, err := f.ledger.ListByShowing(context.Background(), f.showing.ID())
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return entries[len(entries)-1]
}

func TestReserveSeats(t *testing.T) {
	ctx := context.Background()

	t.Run("holds the seats and records the transition", func(t *testing.T) {
		f := newFixture(t)
		requesterID := uuid.New()

		rm, err := f.manager.ReserveSeats(ctx, usecase.ReserveSeatsParams{
			ShowingID:   f.showing.ID(),
			Seats:       []seatmap.SeatID{"A2", "A1"},
			RequesterID: requesterID,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"A1", "A2"}, rm.Seats)
		assert.Equal(t, requesterID, rm.RequesterID)
		assert.Equal(t, baseTime, rm.CreatedAt)
		assert.Equal(t, baseTime.Add(f.cfg.DefaultHoldTTL), rm.ExpiresAt)

		assert.Equal(t, seatmap.StateHeld, f.state(t, "A1"))
		assert.Equal(t, seatmap.StateHeld, f.state(t, "A2"))

		entry := f.lastEntry(t)
		assert.Equal(t, ledger.KindHoldCreated, entry.Kind)
		assert.Equal(t, []seatmap.SeatID{"A1", "A2"}, entry.Seats)
	})

	t.Run("overlapping request loses and names the conflict", func(t *testing.T) {
		f := newFixture(t)
		f.reserve(t, "A1", "A2")

		_, err := f.manager.ReserveSeats(ctx, usecase.ReserveSeatsParams{
			ShowingID:   f.showing.ID(),
			Seats:       []seatmap.SeatID{"A2", "A3"},
			RequesterID: uuid.New(),
		})

		var unavailable *seatmap.UnavailableError
		require.ErrorAs(t, err, &unavailable)
		assert.Equal(t, []seatmap.SeatID{"A2"}, unavailable.Conflicting)

		// The loser's non-conflicting seat is untouched.
		assert.Equal(t, seatmap.StateAvailable, f.state(t, "A3"))
	})

	t.Run("rejects an empty seat set", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.manager.ReserveSeats(ctx, usecase.ReserveSeatsParams{
			ShowingID:   f.showing.ID(),
			RequesterID: uuid.New(),
		})
		assert.ErrorIs(t, err, errs.ErrEmptySeatSet)
	})

	t.Run("rejects unknown seats", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.manager.ReserveSeats(ctx, usecase.ReserveSeatsParams{
			ShowingID:   f.showing.ID(),
			Seats:       []seatmap.SeatID{"Z9"},
			RequesterID: uuid.New(),
		})
		assert.ErrorIs(t, err, errs.ErrSeatDoesNotExist)
	})

	t.Run("unknown showing", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.manager.ReserveSeats(ctx, usecase.ReserveSeatsParams{
			ShowingID:   uuid.New(),
			Seats:       []seatmap.SeatID{"A1"},
			RequesterID: uuid.New(),
		})
		assert.ErrorIs(t, err, errs.ErrShowingNotFound)
	})

	t.Run("refuses a showing starting too soon", func(t *testing.T) {
		f := newFixture(t)
		soon := testShowing(baseTime.Add(f.cfg.MinBookingLeadTime / 2))
		f.showings.Put(soon)

		_, err := f.manager.ReserveSeats(ctx, usecase.ReserveSeatsParams{
			ShowingID:   soon.ID(),
			Seats:       []seatmap.SeatID{"A1"},
			RequesterID: uuid.New(),
		})
		assert.ErrorIs(t, err, errs.ErrShowingNotBookable)
	})

	t.Run("clamps the requested ttl", func(t *testing.T) {
		f := newFixture(t)
		rm, err := f.manager.ReserveSeats(ctx, usecase.ReserveSeatsParams{
			ShowingID:   f.showing.ID(),
			Seats:       []seatmap.SeatID{"A1"},
			RequesterID: uuid.New(),
			TTL:         2 * time.Hour,
		})
		require.NoError(t, err)
		assert.Equal(t, baseTime.Add(f.cfg.MaxHoldTTL), rm.ExpiresAt)
	})
}

func TestConfirmHold(t *testing.T) {
	ctx := context.Background()

	t.Run("converts the hold into a booking", func(t *testing.T) {
		f := newFixture(t)
		h := f.reserve(t, "A1", "B1")

		rm, err := f.manager.ConfirmHold(ctx, h.ID(), "pay_123")
		require.NoError(t, err)

		assert.Equal(t, []string{"A1", "B1"}, rm.Seats)
		assert.Equal(t, int64(1500+2200), rm.AmountCents)
		assert.Equal(t, "pay_123", rm.PaymentRef)

		assert.Equal(t, seatmap.StateBooked, f.state(t, "A1"))
		assert.Equal(t, seatmap.StateBooked, f.state(t, "B1"))

		// The hold is consumed.
		_, err = f.holds.FindByID(ctx, h.ID())
		assert.True(t, infra.IsKind(err, infra.KindNotFound))

		entry := f.lastEntry(t)
		assert.Equal(t, ledger.KindHoldConfirmed, entry.Kind)
		require.NotNil(t, entry.BookingID)
		assert.Equal(t, rm.ID, *entry.BookingID)
	})

	t.Run("expired hold cannot be confirmed", func(t *testing.T) {
		f := newFixture(t)
		h := f.reserve(t, "A1")
		f.clock.Add(f.cfg.DefaultHoldTTL + time.Second)

		_, err := f.manager.ConfirmHold(ctx, h.ID(), "pay_123")
		assert.ErrorIs(t, err, errs.ErrHoldExpired)

		// Reclaimed inline: seat back in the pool, hold gone, expiry recorded.
		assert.Equal(t, seatmap.StateAvailable, f.state(t, "A1"))
		_, err = f.holds.FindByID(ctx, h.ID())
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
		assert.Equal(t, ledger.KindHoldExpired, f.lastEntry(t).Kind)
	})

	t.Run("seats freed by expiry can be reserved again", func(t *testing.T) {
		f := newFixture(t)
		h := f.reserve(t, "A1", "A2")
		f.clock.Add(f.cfg.DefaultHoldTTL + time.Second)

		_, err := f.manager.ConfirmHold(ctx, h.ID(), "pay_123")
		require.ErrorIs(t, err, errs.ErrHoldExpired)

		second := f.reserve(t, "A1", "A2")
		_, err = f.manager.ConfirmHold(ctx, second.ID(), "pay_456")
		assert.NoError(t, err)
	})

	t.Run("unknown hold", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.manager.ConfirmHold(ctx, uuid.New(), "pay_123")
		assert.ErrorIs(t, err, errs.ErrHoldNotFound)
	})

	t.Run("requires a payment reference", func(t *testing.T) {
		f := newFixture(t)
		h := f.reserve(t, "A1")
		_, err := f.manager.ConfirmHold(ctx, h.ID(), "")
		assert.Error(t, err)
	})

	t.Run("cannot confirm twice", func(t *testing.T) {
		f := newFixture(t)
		h := f.reserve(t, "A1")
		_, err := f.manager.ConfirmHold(ctx, h.ID(), "pay_123")
		require.NoError(t, err)

		_, err = f.manager.ConfirmHold(ctx, h.ID(), "pay_123")
		assert.ErrorIs(t, err, errs.ErrHoldNotFound)
	})
}

func TestReleaseHold(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the seats to the pool", func(t *testing.T) {
		f := newFixture(t)
		h := f.reserve(t, "A1", "A2")

		require.NoError(t, f.manager.ReleaseHold(ctx, h.ID()))

		assert.Equal(t, seatmap.StateAvailable, f.state(t, "A1"))
		assert.Equal(t, seatmap.StateAvailable, f.state(t, "A2"))
		assert.Equal(t, ledger.KindHoldReleased, f.lastEntry(t).Kind)
	})

	t.Run("releasing an already expired hold records expiry", func(t *testing.T) {
		f := newFixture(t)
		h := f.reserve(t, "A1")
		f.clock.Add(f.cfg.DefaultHoldTTL + time.Second)

		require.NoError(t, f.manager.ReleaseHold(ctx, h.ID()))

		assert.Equal(t, seatmap.StateAvailable, f.state(t, "A1"))
		assert.Equal(t, ledger.KindHoldExpired, f.lastEntry(t).Kind)
	})

	t.Run("unknown hold", func(t *testing.T) {
		f := newFixture(t)
		err := f.manager.ReleaseHold(ctx, uuid.New())
		assert.ErrorIs(t, err, errs.ErrHoldNotFound)
	})
}

func TestReclaimExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("reclaims an expired hold", func(t *testing.T) {
		f := newFixture(t)
		h := f.reserve(t, "A1")
		f.clock.Add(f.cfg.DefaultHoldTTL + time.Second)

		require.NoError(t, f.manager.ReclaimExpired(ctx, h.ID()))

		assert.Equal(t, seatmap.StateAvailable, f.state(t, "A1"))
		assert.Equal(t, ledger.KindHoldExpired, f.lastEntry(t).Kind)
	})

	t.Run("leaves a live hold alone", func(t *testing.T) {
		f := newFixture(t)
		h := f.reserve(t, "A1")

		require.NoError(t, f.manager.ReclaimExpired(ctx, h.ID()))

		assert.Equal(t, seatmap.StateHeld, f.state(t, "A1"))
		_, err := f.holds.FindByID(ctx, h.ID())
		assert.NoError(t, err)
	})

	t.Run("second reclamation is a no-op", func(t *testing.T) {
		f := newFixture(t)
		h := f.reserve(t, "A1")
		f.clock.Add(f.cfg.DefaultHoldTTL + time.Second)

		require.NoError(t, f.manager.ReclaimExpired(ctx, h.ID()))
		entriesBefore, err := f.ledger.ListByShowing(ctx, f.showing.ID())
		require.NoError(t, err)

		require.NoError(t, f.manager.ReclaimExpired(ctx, h.ID()))
		entriesAfter, err := f.ledger.ListByShowing(ctx, f.showing.ID())
		require.NoError(t, err)
		assert.Len(t, entriesAfter, len(entriesBefore))
	})
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()

	confirmed := func(t *testing.T, f *fixture, seats ...seatmap.SeatID) uuid.UUID {
		t.Helper()
		h := f.reserve(t, seats...)
		rm, err := f.manager.ConfirmHold(ctx, h.ID(), "pay_123")
		require.NoError(t, err)
		return rm.ID
	}

	t.Run("frees the seats and emits a refund intent", func(t *testing.T) {
		f := newFixture(t)
		bookingID := confirmed(t, f, "A1", "B1")

		require.NoError(t, f.manager.CancelBooking(ctx, bookingID, "plans changed"))

		assert.Equal(t, seatmap.StateAvailable, f.state(t, "A1"))
		assert.Equal(t, seatmap.StateAvailable, f.state(t, "B1"))
		assert.Equal(t, ledger.KindBookingCancelled, f.lastEntry(t).Kind)

		b, err := f.bookings.FindByID(ctx, bookingID)
		require.NoError(t, err)
		assert.True(t, b.Cancelled())
		assert.Equal(t, "plans changed", b.CancelReason())

		intents := f.refunds.Intents()
		require.Len(t, intents, 1)
		assert.Equal(t, bookingID, intents[0].BookingID)
		assert.Equal(t, int64(1500+2200), intents[0].AmountCents)
	})

	t.Run("denied inside the cancellation window", func(t *testing.T) {
		f := newFixture(t)
		bookingID := confirmed(t, f, "A1")
		f.clock.Set(f.showing.StartTime().Add(-f.cfg.MinCancellationWindow))

		err := f.manager.CancelBooking(ctx, bookingID, "too late")
		assert.ErrorIs(t, err, errs.ErrCancellationDenied)

		assert.Equal(t, seatmap.StateBooked, f.state(t, "A1"))
		assert.Empty(t, f.refunds.Intents())
	})

	t.Run("cannot cancel twice", func(t *testing.T) {
		f := newFixture(t)
		bookingID := confirmed(t, f, "A1")
		require.NoError(t, f.manager.CancelBooking(ctx, bookingID, "first"))

		err := f.manager.CancelBooking(ctx, bookingID, "second")
		assert.ErrorIs(t, err, errs.ErrCancellationDenied)
		assert.Len(t, f.refunds.Intents(), 1)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t)
		err := f.manager.CancelBooking(ctx, uuid.New(), "whatever")
		assert.ErrorIs(t, err, errs.ErrBookingNotFound)
	})
}

func TestConcurrentReservations(t *testing.T) {
	ctx := context.Background()

	t.Run("exactly one overlapping request wins", func(t *testing.T) {
		f := newFixture(t)
		const attempts = 16

		var wg sync.WaitGroup
		results := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			i := i
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, results[i] = f.manager.ReserveSeats(ctx, usecase.ReserveSeatsParams{
					ShowingID:   f.showing.ID(),
					Seats:       []seatmap.SeatID{"A1", "A2"},
					RequesterID: uuid.New(),
				})
			}()
		}
		wg.Wait()

		wins := 0
		for _, err := range results {
			if err == nil {
				wins++
			} else {
				assert.ErrorIs(t, err, errs.ErrSeatUnavailable)
			}
		}
		assert.Equal(t, 1, wins)
	})

	t.Run("disjoint seat sets all succeed", func(t *testing.T) {
		f := newFixture(t)
		seatSets := [][]seatmap.SeatID{{"A1"}, {"A2"}, {"A3"}, {"B1"}, {"B2"}}

		var wg sync.WaitGroup
		results := make([]error, len(seatSets))
		for i, seats := range seatSets {
			i, seats := i, seats
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, results[i] = f.manager.ReserveSeats(ctx, usecase.ReserveSeatsParams{
					ShowingID:   f.showing.ID(),
					Seats:       seats,
					RequesterID: uuid.New(),
				})
			}()
		}
		wg.Wait()

		for i, err := range results {
			assert.NoError(t, err, "seat set %d", i)
		}
		counts, err := f.manager.SeatCounts(ctx, f.showing.ID())
		require.NoError(t, err)
		assert.Equal(t, 5, counts.Held)
	})
}

// failingHoldStore injects store failures to exercise rollback and retry paths.
type failingHoldStore struct {
	*memory.HoldStore
	failInsert bool
	failDelete bool
}

func (s *failingHoldStore) Insert(ctx context.Context, h *hold.Hold) error {
	if s.failInsert {
		return infra.WrapRepoErr(infra.KindDBFailure, "connection lost", nil)
	}
	return s.HoldStore.Insert(ctx, h)
}

func (s *failingHoldStore) Delete(ctx context.Context, id uuid.UUID) error {
	if s.failDelete {
		return infra.WrapRepoErr(infra.KindDBFailure, "connection lost", nil)
	}
	return s.HoldStore.Delete(ctx, id)
}

func TestReserveSeatsStorageFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	holds := &failingHoldStore{HoldStore: f.holds, failInsert: true}
	manager := usecase.NewReservationManager(
		f.showings, holds, f.bookings, f.ledger, f.refunds, f.cache,
		f.clock, f.cfg, slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	_, err := manager.ReserveSeats(ctx, usecase.ReserveSeatsParams{
		ShowingID:   f.showing.ID(),
		Seats:       []seatmap.SeatID{"A1", "A2"},
		RequesterID: uuid.New(),
	})
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.ErrStorageOperationFailed))

	// The failed hold left no trace: the seats are free for the next caller.
	holds.failInsert = false
	_, err = manager.ReserveSeats(ctx, usecase.ReserveSeatsParams{
		ShowingID:   f.showing.ID(),
		Seats:       []seatmap.SeatID{"A1", "A2"},
		RequesterID: uuid.New(),
	})
	assert.NoError(t, err)
}

func TestReclaimExpiredDeleteFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	holds := &failingHoldStore{HoldStore: f.holds}
	manager := usecase.NewReservationManager(
		f.showings, holds, f.bookings, f.ledger, f.refunds, f.cache,
		f.clock, f.cfg, slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	rm, err := manager.ReserveSeats(ctx, usecase.ReserveSeatsParams{
		ShowingID:   f.showing.ID(),
		Seats:       []seatmap.SeatID{"A1"},
		RequesterID: uuid.New(),
	})
	require.NoError(t, err)
	f.clock.Add(f.cfg.DefaultHoldTTL + time.Second)

	// The seat transition and its ledger entry land even when the hold
	// record cannot be removed yet.
	holds.failDelete = true
	require.NoError(t, manager.ReclaimExpired(ctx, rm.ID))

	_, snap, err := manager.SnapshotSeats(ctx, f.showing.ID())
	require.NoError(t, err)
	assert.Equal(t, seatmap.StateAvailable, snap["A1"])
	assert.Equal(t, ledger.KindHoldExpired, f.lastEntry(t).Kind)

	entriesBefore, err := f.ledger.ListByShowing(ctx, f.showing.ID())
	require.NoError(t, err)

	// Once the store recovers, the retry removes the record without
	// recording the expiry a second time.
	holds.failDelete = false
	require.NoError(t, manager.ReclaimExpired(ctx, rm.ID))

	_, err = f.holds.FindByID(ctx, rm.ID)
	assert.True(t, infra.IsKind(err, infra.KindNotFound))

	entriesAfter, err := f.ledger.ListByShowing(ctx, f.showing.ID())
	require.NoError(t, err)
	assert.Len(t, entriesAfter, len(entriesBefore))
}

func TestHydration(t *testing.T) {
	ctx := context.Background()

	t.Run("rebuilds seat state from persisted holds and bookings", func(t *testing.T) {
		f := newFixture(t)
		heldHold := f.reserve(t, "A1")
		bookingID := func() uuid.UUID {
			h := f.reserve(t, "B1")
			rm, err := f.manager.ConfirmHold(ctx, h.ID(), "pay_123")
			require.NoError(t, err)
			return rm.ID
		}()

		// A fresh manager over the same stores sees the same seat state.
		rebuilt := usecase.NewReservationManager(
			f.showings, f.holds, f.bookings, f.ledger, f.refunds, f.cache,
			f.clock, f.cfg, slog.New(slog.NewTextHandler(io.Discard, nil)),
		)

		_, snap, err := rebuilt.SnapshotSeats(ctx, f.showing.ID())
		require.NoError(t, err)
		assert.Equal(t, seatmap.StateHeld, snap["A1"])
		assert.Equal(t, seatmap.StateBooked, snap["B1"])
		assert.Equal(t, seatmap.StateAvailable, snap["A2"])

		// Both records remain usable through the rebuilt manager.
		_, err = rebuilt.ConfirmHold(ctx, heldHold.ID(), "pay_456")
		assert.NoError(t, err)
		assert.NoError(t, rebuilt.CancelBooking(ctx, bookingID, "hydrated cancel"))
	})
}
