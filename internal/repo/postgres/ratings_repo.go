package postgres

import (
	"context"
	"errors"

	"github.com/ayushrkl/ratehub/internal/domain/rating"
	"github.com/ayushrkl/ratehub/internal/domain/store"
	"github.com/ayushrkl/ratehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RatingsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRatingsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RatingsRepo {
	return &RatingsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *RatingsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Upsert submits or revises a rating in one atomic statement. The (user_id,
// store_id) primary key serializes concurrent submissions; there is no
// check-then-insert window. xmax = 0 only holds for a freshly inserted row,
// which is how "created" is told apart from "updated".
func (r *RatingsRepo) Upsert(ctx context.Context, userID, storeID string, score int) (rt rating.Rating, created bool, err error) {
	err = r.observe("ratings.upsert", func() error {
		return r.pool.QueryRow(ctx, `
		INSERT INTO ratings (user_id, store_id, rating, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (user_id, store_id)
		DO UPDATE SET rating = EXCLUDED.rating, updated_at = NOW()
		RETURNING user_id, store_id, rating, created_at, updated_at, (xmax = 0)
	`, userID, storeID, score).Scan(
			&rt.UserID, &rt.StoreID, &rt.Rating, &rt.CreatedAt, &rt.UpdatedAt, &created,
		)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// FK violation: the store (or user) row is gone.
			err = store.ErrNotFound
		}
		return
	}

	return
}

// AverageForStore reports the mean rating at full precision, 0 when the
// store has none.
func (r *RatingsRepo) AverageForStore(ctx context.Context, storeID string) (avg float64, err error) {
	err = r.observe("ratings.average_for_store", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COALESCE(AVG(rating), 0)::float8 FROM ratings WHERE store_id = $1`,
			storeID,
		).Scan(&avg)
	})

	return
}

// ListForStore returns every rating for the store with the rater's identity,
// oldest first.
func (r *RatingsRepo) ListForStore(ctx context.Context, storeID string) (entries []rating.StoreEntry, err error) {
	var rows pgx.Rows

	err = r.observe("ratings.list_for_store", func() error {
		var e error
		rows, e = r.pool.Query(ctx, `
		SELECT u.id, u.name, rt.rating, rt.created_at
		FROM ratings rt
		JOIN users u ON rt.user_id = u.id
		WHERE rt.store_id = $1
		ORDER BY rt.created_at ASC
	`, storeID)
		return e
	})

	if err != nil {
		return
	}

	defer rows.Close()

	entries = make([]rating.StoreEntry, 0)

	for rows.Next() {
		var entry rating.StoreEntry

		e := rows.Scan(&entry.UserID, &entry.UserName, &entry.Rating, &entry.CreatedAt)

		if e != nil {
			err = e
			return
		}
		entries = append(entries, entry)
	}

	err = rows.Err()

	return
}
