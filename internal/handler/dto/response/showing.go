package response

import (
	"time"

	"cinema-reservation/internal/usecase/readmodel"

	"github.com/google/uuid"
)

type SeatResponse struct {
	ID         string `json:"id"`
	Row        string `json:"row"`
	Column     int    `json:"column"`
	Type       string `json:"type"`
	PriceCents int64  `json:"price_cents"`
	Accessible bool   `json:"accessible"`
	State      string `json:"state"`
}

type ShowingSeatMapResponse struct {
	ID        uuid.UUID      `json:"id"`
	MovieID   uuid.UUID      `json:"movie_id"`
	TheaterID uuid.UUID      `json:"theater_id"`
	ScreenID  uuid.UUID      `json:"screen_id"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Language  string         `json:"language"`
	Format    string         `json:"format"`
	Status    string         `json:"status"`
	Seats     []SeatResponse `json:"seats"`
}

func FromShowingRM(rm *readmodel.ShowingRM) *ShowingSeatMapResponse {
	resp := &ShowingSeatMapResponse{
		ID:        rm.ID,
		MovieID:   rm.MovieID,
		TheaterID: rm.TheaterID,
		ScreenID:  rm.ScreenID,
		StartTime: rm.StartTime,
		EndTime:   rm.EndTime,
		Language:  rm.Language,
		Format:    rm.Format,
		Status:    rm.Status,
		Seats:     make([]SeatResponse, 0, len(rm.Seats)),
	}
	for _, s := range rm.Seats {
		resp.Seats = append(resp.Seats, SeatResponse{
			ID:         s.ID,
			Row:        s.Row,
			Column:     s.Column,
			Type:       s.Type,
			PriceCents: s.PriceCents,
			Accessible: s.Accessible,
			State:      s.State,
		})
	}
	return resp
}

type AvailabilityResponse struct {
	ShowingID  uuid.UUID `json:"showing_id"`
	Available  int       `json:"available"`
	Held       int       `json:"held"`
	Booked     int       `json:"booked"`
	Blocked    int       `json:"blocked"`
	TotalSeats int       `json:"total_seats"`
	Source     string    `json:"source"`
}

func FromAvailabilityRM(rm *readmodel.AvailabilityRM) *AvailabilityResponse {
	return &AvailabilityResponse{
		ShowingID:  rm.ShowingID,
		Available:  rm.Available,
		Held:       rm.Held,
		Booked:     rm.Booked,
		Blocked:    rm.Blocked,
		TotalSeats: rm.TotalSeats,
		Source:     rm.Source,
	}
}

type LedgerEntryResponse struct {
	ID         uuid.UUID  `json:"id"`
	ShowingID  uuid.UUID  `json:"showing_id"`
	Kind       string     `json:"kind"`
	HoldID     *uuid.UUID `json:"hold_id,omitempty"`
	BookingID  *uuid.UUID `json:"booking_id,omitempty"`
	Seats      []string   `json:"seats"`
	FromState  string     `json:"from_state"`
	ToState    string     `json:"to_state"`
	RecordedAt time.Time  `json:"recorded_at"`
}

func FromLedgerEntryRM(rm readmodel.LedgerEntryRM) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:         rm.ID,
		ShowingID:  rm.ShowingID,
		Kind:       rm.Kind,
		HoldID:     rm.HoldID,
		BookingID:  rm.BookingID,
		Seats:      rm.Seats,
		FromState:  rm.FromState,
		ToState:    rm.ToState,
		RecordedAt: rm.RecordedAt,
	}
}
