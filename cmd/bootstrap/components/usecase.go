package components

import (
	"context"

	"cinema-reservation/internal/pkg/clock"
	"cinema-reservation/internal/usecase"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		usecase.NewReservationManager,
		func(m *usecase.ReservationManager) usecase.ReservationCommands { return m },
		usecase.NewShowingQueries,
		usecase.NewReservationQueries,
		usecase.NewExpirySweeper,
	),
	fx.Invoke(startSweeper),
)

func startSweeper(lc fx.Lifecycle, sweeper *usecase.ExpirySweeper) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go sweeper.Run(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}
