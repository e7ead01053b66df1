package repository

import (
	"context"
	"errors"
	"time"

	"cinema-reservation/internal/domain/hold"
	"cinema-reservation/internal/domain/seatmap"
	"cinema-reservation/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgErrCodeUniqueViolation = "23505"

type HoldRepository struct {
	pool *pgxpool.Pool
}

func NewHoldRepository(pool *pgxpool.Pool) *HoldRepository {
	return &HoldRepository{pool: pool}
}

func (r *HoldRepository) Insert(ctx context.Context, h *hold.Hold) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO holds (id, showing_id, requester_id, seats, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		h.ID(), h.ShowingID(), h.RequesterID(), seatsToStrings(h.Seats()), h.CreatedAt(), h.ExpiresAt(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrCodeUniqueViolation {
			return infra.WrapRepoErr(infra.KindDuplicateKey, "hold already exists", err)
		}
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to insert hold", err)
	}
	return nil
}

func (r *HoldRepository) FindByID(ctx context.Context, id uuid.UUID) (*hold.Hold, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, showing_id, requester_id, seats, created_at, expires_at
		 FROM holds WHERE id = $1`, id,
	)
	h, err := scanHold(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(infra.KindNotFound, "hold not found", err)
		}
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to query hold", err)
	}
	return h, nil
}

// Delete is idempotent: removing an already-removed hold is not an error,
// because the sweeper and the lazy expiry path may both reclaim the same hold.
func (r *HoldRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM holds WHERE id = $1`, id)
	if err != nil {
		return infra.WrapRepoErr(infra.KindDBFailure, "failed to delete hold", err)
	}
	return nil
}

func (r *HoldRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*hold.Hold, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, showing_id, requester_id, seats, created_at, expires_at
		 FROM holds WHERE expires_at <= $1 ORDER BY expires_at LIMIT $2`, now, limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to query expired holds", err)
	}
	return collectHolds(rows)
}

func (r *HoldRepository) FindByShowing(ctx context.Context, showingID uuid.UUID) ([]*hold.Hold, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, showing_id, requester_id, seats, created_at, expires_at
		 FROM holds WHERE showing_id = $1`, showingID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to query holds by showing", err)
	}
	return collectHolds(rows)
}

func (r *HoldRepository) FindByRequester(ctx context.Context, requesterID uuid.UUID) ([]*hold.Hold, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, showing_id, requester_id, seats, created_at, expires_at
		 FROM holds WHERE requester_id = $1 ORDER BY created_at DESC`, requesterID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to query holds by requester", err)
	}
	return collectHolds(rows)
}

func scanHold(row pgx.Row) (*hold.Hold, error) {
	var (
		id, showingID, requesterID uuid.UUID
		seats                      []string
		createdAt, expiresAt       time.Time
	)
	if err := row.Scan(&id, &showingID, &requesterID, &seats, &createdAt, &expiresAt); err != nil {
		return nil, err
	}
	return hold.Reconstruct(id, showingID, requesterID, stringsToSeats(seats), createdAt, expiresAt), nil
}

func collectHolds(rows pgx.Rows) ([]*hold.Hold, error) {
	defer rows.Close()
	var holds []*hold.Hold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to scan hold", err)
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr(infra.KindDBFailure, "failed to read holds", err)
	}
	return holds, nil
}

func seatsToStrings(ids []seatmap.SeatID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

func stringsToSeats(labels []string) []seatmap.SeatID {
	out := make([]seatmap.SeatID, len(labels))
	for i, l := range labels {
		out[i] = seatmap.SeatID(l)
	}
	return out
}
