package request

import (
	"time"

	"cinema-reservation/internal/domain/seatmap"

	"github.com/google/uuid"
)

type CreateHoldRequest struct {
	Seats       []string  `json:"seats" binding:"required,min=1"`
	RequesterID uuid.UUID `json:"requester_id" binding:"required"`
	TTLSeconds  int       `json:"ttl_seconds" binding:"omitempty,min=1"`
}

func (r *CreateHoldRequest) SeatIDs() []seatmap.SeatID {
	ids := make([]seatmap.SeatID, len(r.Seats))
	for i, s := range r.Seats {
		ids[i] = seatmap.SeatID(s)
	}
	return ids
}

func (r *CreateHoldRequest) TTL() time.Duration {
	return time.Duration(r.TTLSeconds) * time.Second
}

type ConfirmHoldRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}
