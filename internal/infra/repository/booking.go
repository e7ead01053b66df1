package repository

import (
	"context"
	"errors"
	"time"

	"cinema-reservation/internal/domain/booking"
	"cinema-reservation/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Insert(ctx context.Context, b *booking.Booking) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO bookings (id, showing_id, requester_id, seats, payment_ref, amount_cents, created_at, cancelled, cancelled_at, cancel_reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID(), b.ShowingID(), b.RequesterID(), seatsToStrings(b.Seats()),
		b.PaymentRef(), b.AmountCents(), b.CreatedAt(), b.Cancelled(), b.CancelledAt(), b.CancelReason(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation {
			return infra.WrapRepoErr(infra.KindDuplicateKey, "booking already exists", err)
		}
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to insert booking", err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, showing_id, requester_id, seats, payment_ref, amount_cents, created_at, cancelled, cancelled_at, cancel_reason
		 FROM bookings WHERE id = $1`, id,
	)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "booking not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to query booking", err)
	}
	return b, nil
}

func (r *BookingRepository) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time, reason string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE bookings SET cancelled = TRUE, cancelled_at = $2, cancel_reason = $3
		 WHERE id = $1 AND cancelled = FALSE`,
		id, at, reason,
	)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to mark booking cancelled", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr(infra.KindNotFound, "booking not found or already cancelled", nil)
	}
	return nil
}

func (r *BookingRepository) FindActiveByShowing(ctx context.Context, showingID uuid.UUID) ([]*booking.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, showing_id, requester_id, seats, payment_ref, amount_cents, created_at, cancelled, cancelled_at, cancel_reason
		 FROM bookings WHERE showing_id = $1 AND cancelled = FALSE`, showingID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to query bookings by showing", err)
	}
	return collectBookings(rows)
}

func (r *BookingRepository) FindByRequester(ctx context.Context, requesterID uuid.UUID) ([]*booking.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, showing_id, requester_id, seats, payment_ref, amount_cents, created_at, cancelled, cancelled_at, cancel_reason
		 FROM bookings WHERE requester_id = $1 ORDER BY created_at DESC`, requesterID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to query bookings by requester", err)
	}
	return collectBookings(rows)
}

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var (
		id, showingID, requesterID uuid.UUID
		seats                      []string
		paymentRef, cancelReason   string
		amountCents                int64
		createdAt                  time.Time
		cancelled                  bool
		cancelledAt                *time.Time
	)
	err := row.Scan(&id, &showingID, &requesterID, &seats, &paymentRef, &amountCents, &createdAt, &cancelled, &cancelledAt, &cancelReason)
	if err != nil {
		return nil, err
	}
	return booking.Reconstruct(
		id, showingID, requesterID,
		stringsToSeats(seats),
		paymentRef, amountCents, createdAt,
		cancelled, cancelledAt, cancelReason,
	), nil
}

func collectBookings(rows pgx.Rows) ([]*booking.Booking, error) {
	defer rows.Close()
	var bookings []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan booking", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read bookings", err)
	}
	return bookings, nil
}
