package api

import (
	"errors"
	"net/http"

	"cinema-reservation/internal/domain/seatmap"
	reqdto "cinema-reservation/internal/handler/dto/request"
	resdto "cinema-reservation/internal/handler/dto/response"
	"cinema-reservation/internal/handler/httperr"
	"cinema-reservation/internal/pkg/errs"
	"cinema-reservation/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type HoldHandler struct {
	commands usecase.ReservationCommands
	queries  usecase.ReservationQueries
}

func NewHoldHandler(commands usecase.ReservationCommands, queries usecase.ReservationQueries) *HoldHandler {
	return &HoldHandler{
		commands: commands,
		queries:  queries,
	}
}

func (h *HoldHandler) CreateHold(c *gin.Context) {
	showingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid showing ID format", nil)
		return
	}

	var req reqdto.CreateHoldRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	params := usecase.ReserveSeatsParams{
		ShowingID:   showingID,
		Seats:       req.SeatIDs(),
		RequesterID: req.RequesterID,
		TTL:         req.TTL(),
	}

	holdRM, err := h.commands.ReserveSeats(c.Request.Context(), params)
	if err != nil {
		abortReservationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromHoldRM(holdRM))
}

func (h *HoldHandler) ConfirmHold(c *gin.Context) {
	holdID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid hold ID format", nil)
		return
	}

	var req reqdto.ConfirmHoldRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	bookingRM, err := h.commands.ConfirmHold(c.Request.Context(), holdID, req.PaymentRef)
	if err != nil {
		abortReservationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromBookingRM(bookingRM))
}

func (h *HoldHandler) ReleaseHold(c *gin.Context) {
	holdID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid hold ID format", nil)
		return
	}

	if err := h.commands.ReleaseHold(c.Request.Context(), holdID); err != nil {
		abortReservationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *HoldHandler) GetHold(c *gin.Context) {
	holdID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid hold ID format", nil)
		return
	}

	holdRM, err := h.queries.GetHold(c.Request.Context(), holdID)
	if err != nil {
		abortReservationError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromHoldRM(holdRM))
}

func (h *HoldHandler) ListHolds(c *gin.Context) {
	requesterID, err := uuid.Parse(c.Query("requester_id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid requester ID format", nil)
		return
	}

	holdsRM, err := h.queries.ListHoldsByRequester(c.Request.Context(), requesterID)
	if err != nil {
		abortReservationError(c, err)
		return
	}

	response := make([]*resdto.HoldResponse, len(holdsRM))
	for i, rm := range holdsRM {
		response[i] = resdto.FromHoldRM(rm)
	}
	c.JSON(http.StatusOK, response)
}

// abortReservationError maps engine errors onto HTTP statuses. Seat conflicts
// carry the offending seat labels in the detail field so a client can show
// the user exactly which seats to pick again.
func abortReservationError(c *gin.Context, err error) {
	var unavailable *seatmap.UnavailableError
	var unknown *seatmap.UnknownSeatError

	switch {
	case errors.As(err, &unavailable):
		httperr.AbortWithError(c, http.StatusConflict, err, "One or more seats are not available",
			gin.H{"conflicting_seats": unavailable.Conflicting})
	case errors.As(err, &unknown):
		httperr.AbortWithError(c, http.StatusNotFound, err, "One or more seats do not exist",
			gin.H{"unknown_seats": unknown.Unknown})
	case errors.Is(err, errs.ErrShowingNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Showing not found", nil)
	case errors.Is(err, errs.ErrHoldNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Hold not found", nil)
	case errors.Is(err, errs.ErrBookingNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
	case errors.Is(err, errs.ErrHoldExpired):
		httperr.AbortWithError(c, http.StatusGone, err, "Hold has expired", nil)
	case errors.Is(err, errs.ErrShowingNotBookable):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Showing is not open for booking", nil)
	case errors.Is(err, errs.ErrEmptySeatSet):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Seat set must not be empty", nil)
	case errors.Is(err, errs.ErrCancellationDenied):
		httperr.AbortWithError(c, http.StatusConflict, err, "Cancellation not permitted", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
