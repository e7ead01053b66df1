package usecase

import (
	"context"
	"log/slog"
	"time"

	"cinema-reservation/internal/pkg/clock"
	"cinema-reservation/internal/pkg/config"
)

// ExpirySweeper proactively reclaims holds past their TTL so abandoned seats
// return to the pool without waiting for someone to touch the hold. It shares
// the reclamation path with the lazy check in ConfirmHold, so racing the lazy
// path is harmless.
type ExpirySweeper struct {
	manager *ReservationManager
	holds   HoldStore
	clock   clock.Clock
	cfg     config.ReservationConfig
	logger  *slog.Logger
}

func NewExpirySweeper(manager *ReservationManager, holds HoldStore, clk clock.Clock, cfg config.ReservationConfig, logger *slog.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		manager: manager,
		holds:   holds,
		clock:   clk,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run blocks until ctx is cancelled, sweeping at the configured interval.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.logger.Info("expiry sweeper started", "interval", s.cfg.SweepInterval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed", "error", err)
			} else if n > 0 {
				s.logger.Info("reclaimed expired holds", "count", n)
			}
		}
	}
}

// Sweep reclaims one batch of expired holds and reports how many it touched.
func (s *ExpirySweeper) Sweep(ctx context.Context) (int, error) {
	expired, err := s.holds.FindExpired(ctx, s.clock.Now(), s.cfg.SweepBatchSize)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, h := range expired {
		if err := s.manager.ReclaimExpired(ctx, h.ID()); err != nil {
			s.logger.Error("failed to reclaim hold", "hold_id", h.ID(), "error", err)
			continue
		}
		reclaimed++
	}
	return reclaimed, nil
}
