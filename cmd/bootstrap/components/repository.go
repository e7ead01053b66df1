package components

import (
	"cinema-reservation/internal/infra/cache"
	repo_impl "cinema-reservation/internal/infra/repository"
	"cinema-reservation/internal/usecase"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repo_impl.NewShowingRepository,
			fx.As(new(usecase.ShowingRepository)),
		),
		fx.Annotate(
			repo_impl.NewHoldRepository,
			fx.As(new(usecase.HoldStore)),
		),
		fx.Annotate(
			repo_impl.NewBookingRepository,
			fx.As(new(usecase.BookingStore)),
		),
		fx.Annotate(
			repo_impl.NewLedgerRepository,
			fx.As(new(usecase.LedgerStore)),
		),
		fx.Annotate(
			repo_impl.NewRefundOutbox,
			fx.As(new(usecase.RefundQueue)),
		),
		fx.Annotate(
			cache.NewAvailabilityCache,
			fx.As(new(usecase.AvailabilityCache)),
		),
	),
)
