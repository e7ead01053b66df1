package components

import (
	"cinema-reservation/internal/handler"
	"cinema-reservation/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewShowingHandler,
		api.NewHoldHandler,
		api.NewBookingHandler,
	),
	fx.Invoke(handler.NewRouter),
)
