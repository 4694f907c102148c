package postgres

import (
	"context"

	"github.com/ayushrkl/ratehub/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Counts is the admin dashboard snapshot. The three totals come from one
// statement but are still only point-in-time consistent, which is all the
// dashboard promises.
type Counts struct {
	Users   int64 `json:"totalUsers"`
	Stores  int64 `json:"totalStores"`
	Ratings int64 `json:"totalRatings"`
}

type StatsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewStatsRepo(pool *pgxpool.Pool, prom *observability.Prom) *StatsRepo {
	return &StatsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *StatsRepo) Counts(ctx context.Context) (c Counts, err error) {
	fn := func() error {
		return r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM stores),
			(SELECT COUNT(*) FROM ratings)
	`).Scan(&c.Users, &c.Stores, &c.Ratings)
	}

	if r.prom != nil {
		err = r.prom.ObserveDB("stats.counts", fn)
		return
	}

	err = fn()

	return
}
