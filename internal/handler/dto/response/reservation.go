package response

import (
	"time"

	"cinema-reservation/internal/usecase/readmodel"

	"github.com/google/uuid"
)

type HoldResponse struct {
	ID          uuid.UUID `json:"id"`
	ShowingID   uuid.UUID `json:"showing_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	Seats       []string  `json:"seats"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func FromHoldRM(rm *readmodel.HoldRM) *HoldResponse {
	return &HoldResponse{
		ID:          rm.ID,
		ShowingID:   rm.ShowingID,
		RequesterID: rm.RequesterID,
		Seats:       rm.Seats,
		CreatedAt:   rm.CreatedAt,
		ExpiresAt:   rm.ExpiresAt,
	}
}

type BookingResponse struct {
	ID           uuid.UUID  `json:"id"`
	ShowingID    uuid.UUID  `json:"showing_id"`
	RequesterID  uuid.UUID  `json:"requester_id"`
	Seats        []string   `json:"seats"`
	PaymentRef   string     `json:"payment_ref"`
	AmountCents  int64      `json:"amount_cents"`
	CreatedAt    time.Time  `json:"created_at"`
	Cancelled    bool       `json:"cancelled"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason string     `json:"cancel_reason,omitempty"`
}

func FromBookingRM(rm *readmodel.BookingRM) *BookingResponse {
	return &BookingResponse{
		ID:           rm.ID,
		ShowingID:    rm.ShowingID,
		RequesterID:  rm.RequesterID,
		Seats:        rm.Seats,
		PaymentRef:   rm.PaymentRef,
		AmountCents:  rm.AmountCents,
		CreatedAt:    rm.CreatedAt,
		Cancelled:    rm.Cancelled,
		CancelledAt:  rm.CancelledAt,
		CancelReason: rm.CancelReason,
	}
}
