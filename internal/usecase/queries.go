package usecase

import (
	"context"
	"log/slog"
	"sort"

	"cinema-reservation/internal/domain/ledger"
	"cinema-reservation/internal/domain/seatmap"
	"cinema-reservation/internal/infra"
	"cinema-reservation/internal/pkg/errs"
	"cinema-reservation/internal/usecase/readmodel"

	"github.com/google/uuid"
)

type ShowingQueries interface {
	GetSeatMap(ctx context.Context, showingID uuid.UUID) (*readmodel.ShowingRM, error)
	GetAvailability(ctx context.Context, showingID uuid.UUID) (*readmodel.AvailabilityRM, error)
	GetLedger(ctx context.Context, showingID uuid.UUID) ([]readmodel.LedgerEntryRM, error)
}

type ReservationQueries interface {
	GetHold(ctx context.Context, id uuid.UUID) (*readmodel.HoldRM, error)
	ListHoldsByRequester(ctx context.Context, requesterID uuid.UUID) ([]*readmodel.HoldRM, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*readmodel.BookingRM, error)
	ListBookingsByRequester(ctx context.Context, requesterID uuid.UUID) ([]*readmodel.BookingRM, error)
}

type showingQueriesImpl struct {
	manager *ReservationManager
	ledger  LedgerStore
	cache   AvailabilityCache
	logger  *slog.Logger
}

func NewShowingQueries(manager *ReservationManager, ledgerStore LedgerStore, cache AvailabilityCache, logger *slog.Logger) ShowingQueries {
	return &showingQueriesImpl{
		manager: manager,
		ledger:  ledgerStore,
		cache:   cache,
		logger:  logger,
	}
}

func (q *showingQueriesImpl) GetSeatMap(ctx context.Context, showingID uuid.UUID) (*readmodel.ShowingRM, error) {
	sh, snap, err := q.manager.SnapshotSeats(ctx, showingID)
	if err != nil {
		return nil, err
	}

	rm := &readmodel.ShowingRM{
		ID:        sh.ID(),
		MovieID:   sh.MovieID(),
		TheaterID: sh.TheaterID(),
		ScreenID:  sh.ScreenID(),
		StartTime: sh.StartTime(),
		EndTime:   sh.EndTime(),
		Language:  sh.Language(),
		Format:    string(sh.Format()),
		Status:    string(sh.Status()),
	}
	for _, seat := range sh.Seats() {
		rm.Seats = append(rm.Seats, readmodel.SeatRM{
			ID:         string(seat.ID),
			Row:        seat.Row,
			Column:     seat.Column,
			Type:       string(seat.Type),
			PriceCents: seat.PriceCents,
			Accessible: seat.Accessible,
			State:      string(snap[seat.ID]),
		})
	}
	sort.Slice(rm.Seats, func(i, j int) bool { return rm.Seats[i].ID < rm.Seats[j].ID })
	return rm, nil
}

// GetAvailability serves derived counts, preferring the cache. On a miss the
// counts are recomputed from seat truth, cross-checked against a ledger
// replay, and written back; a divergent ledger is reported and the live seat
// map wins.
func (q *showingQueriesImpl) GetAvailability(ctx context.Context, showingID uuid.UUID) (*readmodel.AvailabilityRM, error) {
	if counts, ok, err := q.cache.Get(ctx, showingID); err != nil {
		q.logger.Warn("availability cache read failed", "showing_id", showingID, "error", err)
	} else if ok {
		return availabilityRM(showingID, counts, readmodel.AvailabilitySourceCache), nil
	}

	counts, err := q.manager.SeatCounts(ctx, showingID)
	if err != nil {
		return nil, err
	}
	q.verifyAgainstLedger(ctx, showingID, counts)

	if err := q.cache.Set(ctx, showingID, counts); err != nil {
		q.logger.Warn("availability cache write failed", "showing_id", showingID, "error", err)
	}
	return availabilityRM(showingID, counts, readmodel.AvailabilitySourceComputed), nil
}

func (q *showingQueriesImpl) verifyAgainstLedger(ctx context.Context, showingID uuid.UUID, counts seatmap.Counts) {
	sh, _, err := q.manager.SnapshotSeats(ctx, showingID)
	if err != nil {
		return
	}
	entries, err := q.ledger.ListByShowing(ctx, showingID)
	if err != nil {
		q.logger.Warn("ledger read failed during availability check", "showing_id", showingID, "error", err)
		return
	}
	fromLedger, err := ledger.AvailableCount(sh.SeatIDs(), sh.BlockedSeatIDs(), entries)
	if err != nil {
		q.logger.Error("ledger replay failed", "showing_id", showingID, "error", err)
		return
	}
	if fromLedger != counts.Available {
		q.logger.Error("availability divergence between ledger and seat map",
			"showing_id", showingID, "ledger", fromLedger, "seat_map", counts.Available)
	}
}

func (q *showingQueriesImpl) GetLedger(ctx context.Context, showingID uuid.UUID) ([]readmodel.LedgerEntryRM, error) {
	entries, err := q.ledger.ListByShowing(ctx, showingID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrStorageOperationFailed)
	}
	out := make([]readmodel.LedgerEntryRM, len(entries))
	for i, e := range entries {
		out[i] = readmodel.LedgerEntryRM{
			ID:         e.ID,
			ShowingID:  e.ShowingID,
			Kind:       string(e.Kind),
			HoldID:     e.HoldID,
			BookingID:  e.BookingID,
			Seats:      seatIDsToStrings(e.Seats),
			FromState:  string(e.FromState),
			ToState:    string(e.ToState),
			RecordedAt: e.RecordedAt,
		}
	}
	return out, nil
}

func availabilityRM(showingID uuid.UUID, counts seatmap.Counts, source string) *readmodel.AvailabilityRM {
	return &readmodel.AvailabilityRM{
		ShowingID:  showingID,
		Available:  counts.Available,
		Held:       counts.Held,
		Booked:     counts.Booked,
		Blocked:    counts.Blocked,
		TotalSeats: counts.Total(),
		Source:     source,
	}
}

type reservationQueriesImpl struct {
	holds    HoldStore
	bookings BookingStore
}

func NewReservationQueries(holds HoldStore, bookings BookingStore) ReservationQueries {
	return &reservationQueriesImpl{
		holds:    holds,
		bookings: bookings,
	}
}

func (q *reservationQueriesImpl) GetHold(ctx context.Context, id uuid.UUID) (*readmodel.HoldRM, error) {
	h, err := q.holds.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrHoldNotFound
		}
		return nil, errs.Mark(err, errs.ErrStorageOperationFailed)
	}
	return holdToRM(h), nil
}

func (q *reservationQueriesImpl) ListHoldsByRequester(ctx context.Context, requesterID uuid.UUID) ([]*readmodel.HoldRM, error) {
	holds, err := q.holds.FindByRequester(ctx, requesterID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrStorageOperationFailed)
	}
	out := make([]*readmodel.HoldRM, len(holds))
	for i, h := range holds {
		out[i] = holdToRM(h)
	}
	return out, nil
}

func (q *reservationQueriesImpl) GetBooking(ctx context.Context, id uuid.UUID) (*readmodel.BookingRM, error) {
	b, err := q.bookings.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrBookingNotFound
		}
		return nil, errs.Mark(err, errs.ErrStorageOperationFailed)
	}
	return bookingToRM(b), nil
}

func (q *reservationQueriesImpl) ListBookingsByRequester(ctx context.Context, requesterID uuid.UUID) ([]*readmodel.BookingRM, error) {
	bookings, err := q.bookings.FindByRequester(ctx, requesterID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrStorageOperationFailed)
	}
	out := make([]*readmodel.BookingRM, len(bookings))
	for i, b := range bookings {
		out[i] = bookingToRM(b)
	}
	return out, nil
}
