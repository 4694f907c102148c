package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayushrkl/ratehub/internal/domain/store"
	"github.com/ayushrkl/ratehub/internal/domain/user"
	"github.com/ayushrkl/ratehub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StoresRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewStoresRepo(pool *pgxpool.Pool, prom *observability.Prom) *StoresRepo {
	return &StoresRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *StoresRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Create inserts a store. When an owner is given, the role check and the
// insert share one transaction so the owner cannot be demoted in between;
// the partial unique index keeps one store per owner regardless.
func (r *StoresRepo) Create(ctx context.Context, name, email, address string, ownerID *string) (s store.Store, err error) {
	now := time.Now().UTC()

	s = store.Store{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Address:   address,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if ownerID != nil {
		var dummy string

		err = r.observe("stores.create.owner_check", func() error {
			return tx.QueryRow(ctx,
				`SELECT id FROM users WHERE id = $1 AND role = $2`,
				*ownerID, user.RoleStoreOwner,
			).Scan(&dummy)
		})

		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				err = store.ErrOwnerInvalid
			}

			return
		}
	}

	err = r.observe("stores.create.insert", func() error {
		_, e := tx.Exec(ctx, `
		INSERT INTO stores (id, name, email, address, owner_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, s.ID, s.Name, s.Email, s.Address, s.OwnerID, s.CreatedAt, s.UpdatedAt)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "stores_owner_uniq" {
			err = store.ErrOwnerInvalid
		}
		return
	}

	err = tx.Commit(ctx)

	return
}

// GetByOwner resolves the owner's store. The schema guarantees at most one.
func (r *StoresRepo) GetByOwner(ctx context.Context, ownerID string) (store.Store, error) {
	var s store.Store

	err := r.observe("stores.get_by_owner", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, email, address, owner_id, created_at, updated_at
			FROM stores
			WHERE owner_id = $1`,
			ownerID,
		).Scan(&s.ID, &s.Name, &s.Email, &s.Address, &s.OwnerID, &s.CreatedAt, &s.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.Store{}, store.ErrNotFound
		}

		return store.Store{}, err
	}

	return s, nil
}

var storeSortColumns = map[string]string{
	"name":           "s.name",
	"email":          "s.email",
	"address":        "s.address",
	"average_rating": "average_rating",
	"owner_name":     "owner_name",
}

// List returns stores joined with owner name and average rating for the
// admin listing.
func (r *StoresRepo) List(ctx context.Context, filter store.ListFilter) (items []store.ListItem, err error) {
	baseQuery := `
	SELECT s.id,
		s.name,
		s.email,
		s.address,
		u.name AS owner_name,
		COALESCE(AVG(rt.rating), 0)::float8 AS average_rating
	FROM stores s
	LEFT JOIN users u ON s.owner_id = u.id
	LEFT JOIN ratings rt ON s.id = rt.store_id
	`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.Name != nil {
		conds = append(conds, fmt.Sprintf("s.name ILIKE $%d", argsPosition))
		args = append(args, "%"+*filter.Name+"%")
		argsPosition++
	}

	if filter.Email != nil {
		conds = append(conds, fmt.Sprintf("s.email ILIKE $%d", argsPosition))
		args = append(args, "%"+*filter.Email+"%")
		argsPosition++
	}

	if filter.Address != nil {
		conds = append(conds, fmt.Sprintf("s.address ILIKE $%d", argsPosition))
		args = append(args, "%"+*filter.Address+"%")
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " GROUP BY s.id, u.name"
	query += " ORDER BY " + sortClause(storeSortColumns, filter.SortBy, filter.SortOrder)

	var rows pgx.Rows

	err = r.observe("stores.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx, query, args...)
		return e
	})

	if err != nil {
		return
	}

	defer rows.Close()

	items = make([]store.ListItem, 0)

	for rows.Next() {
		var it store.ListItem

		e := rows.Scan(&it.ID, &it.Name, &it.Email, &it.Address, &it.OwnerName, &it.AverageRating)

		if e != nil {
			err = e
			return
		}
		items = append(items, it)
	}

	err = rows.Err()

	return
}

// BrowseForUser lists stores with the overall average and the browsing
// user's own rating (NULL until they have rated the store). Search matches
// name or address, case-insensitively.
func (r *StoresRepo) BrowseForUser(ctx context.Context, userID string, search *string) (items []store.BrowseItem, err error) {
	query := `
	SELECT s.id,
		s.name,
		s.address,
		COALESCE(AVG(rt.rating), 0)::float8 AS avg_rating,
		MAX(CASE WHEN rt.user_id = $1 THEN rt.rating END) AS user_rating
	FROM stores s
	LEFT JOIN ratings rt ON s.id = rt.store_id
	`

	args := []interface{}{userID}

	if search != nil {
		query += ` WHERE (s.name ILIKE $2 OR s.address ILIKE $2)`
		args = append(args, "%"+*search+"%")
	}

	query += ` GROUP BY s.id ORDER BY s.name ASC`

	var rows pgx.Rows

	err = r.observe("stores.browse_for_user", func() error {
		var e error
		rows, e = r.pool.Query(ctx, query, args...)
		return e
	})

	if err != nil {
		return
	}

	defer rows.Close()

	items = make([]store.BrowseItem, 0)

	for rows.Next() {
		var it store.BrowseItem

		e := rows.Scan(&it.ID, &it.Name, &it.Address, &it.AverageRating, &it.UserRating)

		if e != nil {
			err = e
			return
		}
		items = append(items, it)
	}

	err = rows.Err()

	return
}
