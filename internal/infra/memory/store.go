// Package memory provides in-process implementations of the engine's store
// ports. They back single-node deployments that do not need durability and
// the engine's unit tests; the contract matches the pgx-backed stores,
// including idempotent hold deletion and not-found error kinds.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"cinema-reservation/internal/domain/booking"
	"cinema-reservation/internal/domain/hold"
	"cinema-reservation/internal/domain/ledger"
	"cinema-reservation/internal/domain/seatmap"
	"cinema-reservation/internal/domain/showing"
	"cinema-reservation/internal/infra"
	"cinema-reservation/internal/usecase"

	"github.com/google/uuid"
)

type ShowingRepository struct {
	mu       sync.RWMutex
	showings map[uuid.UUID]*showing.Showing
}

func NewShowingRepository() *ShowingRepository {
	return &ShowingRepository{showings: make(map[uuid.UUID]*showing.Showing)}
}

func (r *ShowingRepository) Put(sh *showing.Showing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.showings[sh.ID()] = sh
}

func (r *ShowingRepository) FindByID(_ context.Context, id uuid.UUID) (*showing.Showing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sh, ok := r.showings[id]
	if !ok {
		return nil, infra.WrapRepoErr(infra.KindNotFound, "showing not found", nil)
	}
	return sh, nil
}

type HoldStore struct {
	mu    sync.RWMutex
	holds map[uuid.UUID]*hold.Hold
}

func NewHoldStore() *HoldStore {
	return &HoldStore{holds: make(map[uuid.UUID]*hold.Hold)}
}

func (s *HoldStore) Insert(_ context.Context, h *hold.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.holds[h.ID()]; exists {
		return infra.WrapRepoErr(infra.KindDuplicateKey, "hold already exists", nil)
	}
	s.holds[h.ID()] = h
	return nil
}

func (s *HoldStore) FindByID(_ context.Context, id uuid.UUID) (*hold.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.holds[id]
	if !ok {
		return nil, infra.WrapRepoErr(infra.KindNotFound, "hold not found", nil)
	}
	return h, nil
}

func (s *HoldStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.holds, id)
	return nil
}

func (s *HoldStore) FindExpired(_ context.Context, now time.Time, limit int) ([]*hold.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var expired []*hold.Hold
	for _, h := range s.holds {
		if h.Expired(now) {
			expired = append(expired, h)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt().Before(expired[j].ExpiresAt()) })
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func (s *HoldStore) FindByShowing(_ context.Context, showingID uuid.UUID) ([]*hold.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*hold.Hold
	for _, h := range s.holds {
		if h.ShowingID() == showingID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *HoldStore) FindByRequester(_ context.Context, requesterID uuid.UUID) ([]*hold.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*hold.Hold
	for _, h := range s.holds {
		if h.RequesterID() == requesterID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out, nil
}

type BookingStore struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*booking.Booking
}

func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[uuid.UUID]*booking.Booking)}
}

func (s *BookingStore) Insert(_ context.Context, b *booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bookings[b.ID()]; exists {
		return infra.WrapRepoErr(infra.KindDuplicateKey, "booking already exists", nil)
	}
	s.bookings[b.ID()] = b
	return nil
}

func (s *BookingStore) FindByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, infra.WrapRepoErr(infra.KindNotFound, "booking not found", nil)
	}
	return b, nil
}

func (s *BookingStore) MarkCancelled(_ context.Context, id uuid.UUID, at time.Time, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return infra.WrapRepoErr(infra.KindNotFound, "booking not found", nil)
	}
	// The caller may share the entity pointer and have flagged it already;
	// reaching the desired state twice is fine.
	if !b.Cancelled() {
		_ = b.Cancel(at, reason)
	}
	return nil
}

func (s *BookingStore) FindActiveByShowing(_ context.Context, showingID uuid.UUID) ([]*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*booking.Booking
	for _, b := range s.bookings {
		if b.ShowingID() == showingID && !b.Cancelled() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *BookingStore) FindByRequester(_ context.Context, requesterID uuid.UUID) ([]*booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*booking.Booking
	for _, b := range s.bookings {
		if b.RequesterID() == requesterID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out, nil
}

type LedgerStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]ledger.Entry // keyed by showing id, append order
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{entries: make(map[uuid.UUID][]ledger.Entry)}
}

func (s *LedgerStore) Append(_ context.Context, e ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ShowingID] = append(s.entries[e.ShowingID], e)
	return nil
}

func (s *LedgerStore) ListByShowing(_ context.Context, showingID uuid.UUID) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.entries[showingID]
	out := make([]ledger.Entry, len(entries))
	copy(out, entries)
	return out, nil
}

type RefundQueue struct {
	mu      sync.Mutex
	intents []usecase.RefundIntent
}

func NewRefundQueue() *RefundQueue {
	return &RefundQueue{}
}

func (q *RefundQueue) Enqueue(_ context.Context, intent usecase.RefundIntent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.intents = append(q.intents, intent)
	return nil
}

func (q *RefundQueue) Intents() []usecase.RefundIntent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]usecase.RefundIntent, len(q.intents))
	copy(out, q.intents)
	return out
}

type AvailabilityCache struct {
	mu     sync.RWMutex
	counts map[uuid.UUID]seatmap.Counts
}

func NewAvailabilityCache() *AvailabilityCache {
	return &AvailabilityCache{counts: make(map[uuid.UUID]seatmap.Counts)}
}

func (c *AvailabilityCache) Get(_ context.Context, showingID uuid.UUID) (seatmap.Counts, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	counts, ok := c.counts[showingID]
	return counts, ok, nil
}

func (c *AvailabilityCache) Set(_ context.Context, showingID uuid.UUID, counts seatmap.Counts) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[showingID] = counts
	return nil
}

func (c *AvailabilityCache) Invalidate(_ context.Context, showingID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, showingID)
	return nil
}
