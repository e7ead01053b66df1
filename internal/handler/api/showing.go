package api

import (
	"net/http"

	resdto "cinema-reservation/internal/handler/dto/response"
	"cinema-reservation/internal/handler/httperr"
	"cinema-reservation/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ShowingHandler struct {
	queries usecase.ShowingQueries
}

func NewShowingHandler(queries usecase.ShowingQueries) *ShowingHandler {
	return &ShowingHandler{queries: queries}
}

func (h *ShowingHandler) GetSeatMap(c *gin.Context) {
	showingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid showing ID format", nil)
		return
	}

	showingRM, err := h.queries.GetSeatMap(c.Request.Context(), showingID)
	if err != nil {
		abortReservationError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromShowingRM(showingRM))
}

func (h *ShowingHandler) GetAvailability(c *gin.Context) {
	showingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid showing ID format", nil)
		return
	}

	availabilityRM, err := h.queries.GetAvailability(c.Request.Context(), showingID)
	if err != nil {
		abortReservationError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromAvailabilityRM(availabilityRM))
}

func (h *ShowingHandler) GetLedger(c *gin.Context) {
	showingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid showing ID format", nil)
		return
	}

	entriesRM, err := h.queries.GetLedger(c.Request.Context(), showingID)
	if err != nil {
		abortReservationError(c, err)
		return
	}

	response := make([]resdto.LedgerEntryResponse, len(entriesRM))
	for i, rm := range entriesRM {
		response[i] = resdto.FromLedgerEntryRM(rm)
	}
	c.JSON(http.StatusOK, response)
}
