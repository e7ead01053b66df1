//go:build unit

package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cinema-reservation/internal/domain/showing"
	"cinema-reservation/internal/handler/api"
	resdto "cinema-reservation/internal/handler/dto/response"
	"cinema-reservation/internal/infra/memory"
	"cinema-reservation/internal/pkg/clock"
	"cinema-reservation/internal/pkg/config"
	"cinema-reservation/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type ReservationHandlerTestSuite struct {
	suite.Suite
	router  *gin.Engine
	clock   *clock.MockClock
	cfg     config.ReservationConfig
	showing *showing.Showing
}

func (s *ReservationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	showings := memory.NewShowingRepository()
	holds := memory.NewHoldStore()
	bookings := memory.NewBookingStore()
	ledgerStore := memory.NewLedgerStore()
	refunds := memory.NewRefundQueue()
	cache := memory.NewAvailabilityCache()

	s.clock = clock.NewMockClock(baseTime)
	s.cfg = config.NewTestConfig().Reservation
	s.showing = showing.Reconstruct(
		uuid.New(), uuid.New(), uuid.New(), uuid.New(),
		baseTime.Add(48*time.Hour), baseTime.Add(50*time.Hour),
		"en", showing.Format2D, showing.StatusScheduled,
		[]showing.Seat{
			{ID: "A1", Row: "A", Column: 1, Type: showing.SeatRegular, PriceCents: 1500},
			{ID: "A2", Row: "A", Column: 2, Type: showing.SeatRegular, PriceCents: 1500},
			{ID: "B1", Row: "B", Column: 1, Type: showing.SeatPremium, PriceCents: 2200},
		},
	)
	showings.Put(s.showing)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := usecase.NewReservationManager(
		showings, holds, bookings, ledgerStore, refunds, cache,
		s.clock, s.cfg, logger,
	)
	showingQueries := usecase.NewShowingQueries(manager, ledgerStore, cache, logger)
	reservationQueries := usecase.NewReservationQueries(holds, bookings)

	holdHandler := api.NewHoldHandler(manager, reservationQueries)
	bookingHandler := api.NewBookingHandler(manager, reservationQueries)
	showingHandler := api.NewShowingHandler(showingQueries)

	s.router = gin.New()
	s.router.POST("/api/showings/:id/holds", holdHandler.CreateHold)
	s.router.POST("/api/holds/:id/confirm", holdHandler.ConfirmHold)
	s.router.DELETE("/api/holds/:id", holdHandler.ReleaseHold)
	s.router.GET("/api/holds/:id", holdHandler.GetHold)
	s.router.DELETE("/api/bookings/:id", bookingHandler.CancelBooking)
	s.router.GET("/api/bookings/:id", bookingHandler.GetBooking)
	s.router.GET("/api/showings/:id/seats", showingHandler.GetSeatMap)
	s.router.GET("/api/showings/:id/availability", showingHandler.GetAvailability)
	s.router.GET("/api/showings/:id/ledger", showingHandler.GetLedger)
}

func TestReservationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReservationHandlerTestSuite))
}

func (s *ReservationHandlerTestSuite) do(method, url string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ReservationHandlerTestSuite) createHold(seats ...string) resdto.HoldResponse {
	w := s.do(http.MethodPost, fmt.Sprintf("/api/showings/%s/holds", s.showing.ID()), gin.H{
		"seats":        seats,
		"requester_id": uuid.New(),
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp resdto.HoldResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *ReservationHandlerTestSuite) confirmHold(holdID uuid.UUID) resdto.BookingResponse {
	w := s.do(http.MethodPost, fmt.Sprintf("/api/holds/%s/confirm", holdID), gin.H{
		"payment_ref": "pay_123",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp resdto.BookingResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *ReservationHandlerTestSuite) TestCreateHold() {
	s.Run("created", func() {
		resp := s.createHold("A1", "A2")
		s.Equal([]string{"A1", "A2"}, resp.Seats)
		s.Equal(baseTime.Add(s.cfg.DefaultHoldTTL), resp.ExpiresAt.UTC())
	})

	s.Run("conflict names the contested seats", func() {
		w := s.do(http.MethodPost, fmt.Sprintf("/api/showings/%s/holds", s.showing.ID()), gin.H{
			"seats":        []string{"A2", "B1"},
			"requester_id": uuid.New(),
		})
		s.Equal(http.StatusConflict, w.Code)
		s.Contains(w.Body.String(), "conflicting_seats")
		s.Contains(w.Body.String(), "A2")
	})

	s.Run("unknown seat", func() {
		w := s.do(http.MethodPost, fmt.Sprintf("/api/showings/%s/holds", s.showing.ID()), gin.H{
			"seats":        []string{"Z9"},
			"requester_id": uuid.New(),
		})
		s.Equal(http.StatusNotFound, w.Code)
		s.Contains(w.Body.String(), "unknown_seats")
	})

	s.Run("unknown showing", func() {
		w := s.do(http.MethodPost, fmt.Sprintf("/api/showings/%s/holds", uuid.New()), gin.H{
			"seats":        []string{"A1"},
			"requester_id": uuid.New(),
		})
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("malformed showing id", func() {
		w := s.do(http.MethodPost, "/api/showings/not-a-uuid/holds", gin.H{
			"seats":        []string{"A1"},
			"requester_id": uuid.New(),
		})
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("empty seat list fails binding", func() {
		w := s.do(http.MethodPost, fmt.Sprintf("/api/showings/%s/holds", s.showing.ID()), gin.H{
			"seats":        []string{},
			"requester_id": uuid.New(),
		})
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestConfirmHold() {
	s.Run("created", func() {
		hold := s.createHold("A1", "B1")
		booking := s.confirmHold(hold.ID)
		s.Equal(int64(3700), booking.AmountCents)
		s.Equal([]string{"A1", "B1"}, booking.Seats)
	})

	s.Run("expired hold is gone", func() {
		hold := s.createHold("A2")
		s.clock.Add(s.cfg.DefaultHoldTTL + time.Second)

		w := s.do(http.MethodPost, fmt.Sprintf("/api/holds/%s/confirm", hold.ID), gin.H{
			"payment_ref": "pay_123",
		})
		s.Equal(http.StatusGone, w.Code)
	})

	s.Run("unknown hold", func() {
		w := s.do(http.MethodPost, fmt.Sprintf("/api/holds/%s/confirm", uuid.New()), gin.H{
			"payment_ref": "pay_123",
		})
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("missing payment reference", func() {
		// A2 was freed when its expired hold got reclaimed above.
		hold := s.createHold("A2")
		w := s.do(http.MethodPost, fmt.Sprintf("/api/holds/%s/confirm", hold.ID), gin.H{})
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestReleaseHold() {
	s.Run("no content and the seats free up", func() {
		hold := s.createHold("A1")
		w := s.do(http.MethodDelete, fmt.Sprintf("/api/holds/%s", hold.ID), nil)
		s.Equal(http.StatusNoContent, w.Code)

		// Same seats can be held again.
		s.createHold("A1")
	})

	s.Run("unknown hold", func() {
		w := s.do(http.MethodDelete, fmt.Sprintf("/api/holds/%s", uuid.New()), nil)
		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestCancelBooking() {
	s.Run("no content outside the window", func() {
		booking := s.confirmHold(s.createHold("A1").ID)

		w := s.do(http.MethodDelete, fmt.Sprintf("/api/bookings/%s", booking.ID), gin.H{
			"reason": "plans changed",
		})
		s.Equal(http.StatusNoContent, w.Code)
	})

	s.Run("denied inside the window", func() {
		booking := s.confirmHold(s.createHold("A2").ID)
		s.clock.Set(s.showing.StartTime().Add(-time.Hour))

		w := s.do(http.MethodDelete, fmt.Sprintf("/api/bookings/%s", booking.ID), nil)
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("unknown booking", func() {
		w := s.do(http.MethodDelete, fmt.Sprintf("/api/bookings/%s", uuid.New()), nil)
		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestShowingQueries() {
	hold := s.createHold("A1")

	s.Run("seat map", func() {
		w := s.do(http.MethodGet, fmt.Sprintf("/api/showings/%s/seats", s.showing.ID()), nil)
		s.Equal(http.StatusOK, w.Code)

		var resp resdto.ShowingSeatMapResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Len(resp.Seats, 3)
		s.Equal("held", resp.Seats[0].State)
	})

	s.Run("availability", func() {
		w := s.do(http.MethodGet, fmt.Sprintf("/api/showings/%s/availability", s.showing.ID()), nil)
		s.Equal(http.StatusOK, w.Code)

		var resp resdto.AvailabilityResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(2, resp.Available)
		s.Equal(1, resp.Held)
		s.Equal(3, resp.TotalSeats)
	})

	s.Run("ledger", func() {
		w := s.do(http.MethodGet, fmt.Sprintf("/api/showings/%s/ledger", s.showing.ID()), nil)
		s.Equal(http.StatusOK, w.Code)

		var resp []resdto.LedgerEntryResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Require().NotEmpty(resp)
		s.Equal("hold-created", resp[0].Kind)
	})

	s.Run("get hold", func() {
		w := s.do(http.MethodGet, fmt.Sprintf("/api/holds/%s", hold.ID), nil)
		s.Equal(http.StatusOK, w.Code)
	})
}
