package repository

import (
	"context"
	"time"

	"cinema-reservation/internal/domain/ledger"
	"cinema-reservation/internal/domain/seatmap"
	"cinema-reservation/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerRepository appends seat-state transitions. Rows are insert-only;
// there is no update or delete path by construction.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) Append(ctx context.Context, e ledger.Entry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ledger_entries (id, showing_id, kind, hold_id, booking_id, seats, from_state, to_state, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.ShowingID, string(e.Kind), e.HoldID, e.BookingID,
		seatsToStrings(e.Seats), string(e.FromState), string(e.ToState), e.RecordedAt,
	)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to append ledger entry", err)
	}
	return nil
}

func (r *LedgerRepository) ListByShowing(ctx context.Context, showingID uuid.UUID) ([]ledger.Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, showing_id, kind, hold_id, booking_id, seats, from_state, to_state, recorded_at
		 FROM ledger_entries WHERE showing_id = $1 ORDER BY seq`, showingID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to query ledger entries", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			e                 ledger.Entry
			kind, from, to    string
			seats             []string
			holdID, bookingID *uuid.UUID
			recordedAt        time.Time
		)
		if err := rows.Scan(&e.ID, &e.ShowingID, &kind, &holdID, &bookingID, &seats, &from, &to, &recordedAt); err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan ledger entry", err)
		}
		e.Kind = ledger.EventKind(kind)
		e.HoldID = holdID
		e.BookingID = bookingID
		e.Seats = stringsToSeats(seats)
		e.FromState = seatmap.State(from)
		e.ToState = seatmap.State(to)
		e.RecordedAt = recordedAt
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read ledger entries", err)
	}
	return entries, nil
}
