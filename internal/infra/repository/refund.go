package repository

import (
	"context"

	"cinema-reservation/internal/infra"
	"cinema-reservation/internal/usecase"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RefundOutbox records refund intents in a job table consumed by the payment
// collaborator. Delivery is asynchronous; rows stay until processed.
type RefundOutbox struct {
	pool *pgxpool.Pool
}

func NewRefundOutbox(pool *pgxpool.Pool) *RefundOutbox {
	return &RefundOutbox{pool: pool}
}

func (r *RefundOutbox) Enqueue(ctx context.Context, intent usecase.RefundIntent) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refund_jobs (booking_id, payment_ref, amount_cents, requested_at)
		 VALUES ($1, $2, $3, $4)`,
		intent.BookingID, intent.PaymentRef, intent.AmountCents, intent.RequestedAt,
	)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to enqueue refund intent", err)
	}
	return nil
}
