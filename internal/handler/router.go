package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cinema-reservation/internal/handler/api"
	"cinema-reservation/internal/handler/middleware"
	"cinema-reservation/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(engine *gin.Engine, cfg config.Config, showingHandler *api.ShowingHandler, holdHandler *api.HoldHandler, bookingHandler *api.BookingHandler) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, showingHandler, holdHandler, bookingHandler)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.NewLogger(cfg.Log).LoggingMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, showingHandler *api.ShowingHandler, holdHandler *api.HoldHandler, bookingHandler *api.BookingHandler) {
	engine.GET("/health", healthCheck)

	apiGroup := engine.Group("/api")
	{
		showings := apiGroup.Group("/showings")
		{
			addRoutes(showings, []route{
				{Method: http.MethodGet, Path: "/:id/seats", Handler: showingHandler.GetSeatMap},
				{Method: http.MethodGet, Path: "/:id/availability", Handler: showingHandler.GetAvailability},
				{Method: http.MethodGet, Path: "/:id/ledger", Handler: showingHandler.GetLedger},
				{Method: http.MethodPost, Path: "/:id/holds", Handler: holdHandler.CreateHold},
			})
		}

		holds := apiGroup.Group("/holds")
		{
			addRoutes(holds, []route{
				{Method: http.MethodGet, Path: "", Handler: holdHandler.ListHolds},
				{Method: http.MethodGet, Path: "/:id", Handler: holdHandler.GetHold},
				{Method: http.MethodPost, Path: "/:id/confirm", Handler: holdHandler.ConfirmHold},
				{Method: http.MethodDelete, Path: "/:id", Handler: holdHandler.ReleaseHold},
			})
		}

		bookings := apiGroup.Group("/bookings")
		{
			addRoutes(bookings, []route{
				{Method: http.MethodGet, Path: "", Handler: bookingHandler.ListBookings},
				{Method: http.MethodGet, Path: "/:id", Handler: bookingHandler.GetBooking},
				{Method: http.MethodDelete, Path: "/:id", Handler: bookingHandler.CancelBooking},
			})
		}
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
