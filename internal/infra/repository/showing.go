package repository

import (
	"context"
	"errors"
	"time"

	"cinema-reservation/internal/domain/seatmap"
	"cinema-reservation/internal/domain/showing"
	"cinema-reservation/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ShowingRepository reads immutable showing definitions from the catalog
// tables. The engine never writes these.
type ShowingRepository struct {
	pool *pgxpool.Pool
}

func NewShowingRepository(pool *pgxpool.Pool) *ShowingRepository {
	return &ShowingRepository{pool: pool}
}

func (r *ShowingRepository) FindByID(ctx context.Context, id uuid.UUID) (*showing.Showing, error) {
	var (
		movieID, theaterID, screenID uuid.UUID
		startTime, endTime           time.Time
		language, format, status     string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT movie_id, theater_id, screen_id, start_time, end_time, language, format, status
		 FROM showings WHERE id = $1`, id,
	).Scan(&movieID, &theaterID, &screenID, &startTime, &endTime, &language, &format, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "showing not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to query showing", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT label, row_label, col_number, seat_type, price_cents, accessible, blocked
		 FROM showing_seats WHERE showing_id = $1 ORDER BY label`, id,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to query showing seats", err)
	}
	defer rows.Close()

	var seats []showing.Seat
	for rows.Next() {
		var (
			label, rowLabel, seatType string
			col                       int
			priceCents                int64
			accessible, blocked       bool
		)
		if err := rows.Scan(&label, &rowLabel, &col, &seatType, &priceCents, &accessible, &blocked); err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan showing seat", err)
		}
		seats = append(seats, showing.Seat{
			ID:         seatmap.SeatID(label),
			Row:        rowLabel,
			Column:     col,
			Type:       showing.SeatType(seatType),
			PriceCents: priceCents,
			Accessible: accessible,
			Blocked:    blocked,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read showing seats", err)
	}

	return showing.Reconstruct(
		id, movieID, theaterID, screenID,
		startTime, endTime,
		language,
		showing.Format(format),
		showing.Status(status),
		seats,
	), nil
}
