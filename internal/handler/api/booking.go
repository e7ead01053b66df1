package api

import (
	"net/http"

	reqdto "cinema-reservation/internal/handler/dto/request"
	resdto "cinema-reservation/internal/handler/dto/response"
	"cinema-reservation/internal/handler/httperr"
	"cinema-reservation/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	commands usecase.ReservationCommands
	queries  usecase.ReservationQueries
}

func NewBookingHandler(commands usecase.ReservationCommands, queries usecase.ReservationQueries) *BookingHandler {
	return &BookingHandler{
		commands: commands,
		queries:  queries,
	}
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID format", nil)
		return
	}

	var req reqdto.CancelBookingRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
			return
		}
	}

	if err := h.commands.CancelBooking(c.Request.Context(), bookingID, req.Reason); err != nil {
		abortReservationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid booking ID format", nil)
		return
	}

	bookingRM, err := h.queries.GetBooking(c.Request.Context(), bookingID)
	if err != nil {
		abortReservationError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingRM(bookingRM))
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	requesterID, err := uuid.Parse(c.Query("requester_id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid requester ID format", nil)
		return
	}

	bookingsRM, err := h.queries.ListBookingsByRequester(c.Request.Context(), requesterID)
	if err != nil {
		abortReservationError(c, err)
		return
	}

	response := make([]*resdto.BookingResponse, len(bookingsRM))
	for i, rm := range bookingsRM {
		response[i] = resdto.FromBookingRM(rm)
	}
	c.JSON(http.StatusOK, response)
}
