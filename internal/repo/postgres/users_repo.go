package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayushrkl/ratehub/internal/domain/user"
	"github.com/ayushrkl/ratehub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Create inserts a user and relies on the lower(email) unique index for
// duplicate detection, not a prior SELECT.
func (r *UsersRepo) Create(ctx context.Context, name, email, passwordHash, address string, role user.Role) (u user.User, err error) {
	now := time.Now().UTC()

	u = user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Address:      address,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = r.observe("users.create", func() error {
		_, e := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, address, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Address, u.Role, u.CreatedAt, u.UpdatedAt)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "users_email_lower_uniq" {
			err = user.ErrEmailExists
			return
		}
		return
	}

	return
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, name, email, password_hash, address, role, created_at, updated_at
	         FROM users
	         WHERE lower(email) = lower($1)`,
			email,
		).Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.PasswordHash,
			&u.Address,
			&u.Role,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, name, email, password_hash, address, role, created_at, updated_at
	         FROM users
	         WHERE id = $1`,
			id,
		).Scan(
			&u.ID,
			&u.Name,
			&u.Email,
			&u.PasswordHash,
			&u.Address,
			&u.Role,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) (err error) {
	var tag pgconn.CommandTag

	err = r.observe("users.update_password", func() error {
		var e error
		tag, e = r.pool.Exec(ctx,
			`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
			id, passwordHash,
		)
		return e
	})

	if err != nil {
		return
	}

	if tag.RowsAffected() == 0 {
		err = user.ErrNotFound
		return
	}

	return
}

// userSortColumns is the whitelist mapping sort parameters to column
// references. Unknown fields fall back to name; injection through sortBy is
// impossible by construction.
var userSortColumns = map[string]string{
	"name":         "u.name",
	"email":        "u.email",
	"address":      "u.address",
	"role":         "u.role",
	"store_rating": "store_rating",
}

// List returns users with the average rating of their owned store (0 when
// they own none), filtered and sorted per the admin listing contract.
func (r *UsersRepo) List(ctx context.Context, filter user.ListFilter) (items []user.ListItem, err error) {
	baseQuery := `
	SELECT u.id,
		u.name,
		u.email,
		u.address,
		u.role,
		COALESCE(AVG(rt.rating), 0)::float8 AS store_rating
	FROM users u
	LEFT JOIN stores s ON u.id = s.owner_id
	LEFT JOIN ratings rt ON s.id = rt.store_id
	`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.Name != nil {
		conds = append(conds, fmt.Sprintf("u.name ILIKE $%d", argsPosition))
		args = append(args, "%"+*filter.Name+"%")
		argsPosition++
	}

	if filter.Email != nil {
		conds = append(conds, fmt.Sprintf("u.email ILIKE $%d", argsPosition))
		args = append(args, "%"+*filter.Email+"%")
		argsPosition++
	}

	if filter.Address != nil {
		conds = append(conds, fmt.Sprintf("u.address ILIKE $%d", argsPosition))
		args = append(args, "%"+*filter.Address+"%")
		argsPosition++
	}

	if filter.Role != nil {
		conds = append(conds, fmt.Sprintf("u.role = $%d", argsPosition))
		args = append(args, *filter.Role)
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " GROUP BY u.id"
	query += " ORDER BY " + sortClause(userSortColumns, filter.SortBy, filter.SortOrder)

	var rows pgx.Rows

	err = r.observe("users.list", func() error {
		var e error
		rows, e = r.pool.Query(ctx, query, args...)
		return e
	})

	if err != nil {
		return
	}

	defer rows.Close()

	items = make([]user.ListItem, 0)

	for rows.Next() {
		var it user.ListItem

		e := rows.Scan(&it.ID, &it.Name, &it.Email, &it.Address, &it.Role, &it.StoreRating)

		if e != nil {
			err = e
			return
		}
		items = append(items, it)
	}

	err = rows.Err()

	return
}

// sortClause resolves a sort request against a column whitelist. Shared by
// the user and store listings.
func sortClause(whitelist map[string]string, sortBy, sortOrder string) string {
	col, ok := whitelist[sortBy]

	if !ok {
		col = whitelist["name"]
	}

	order := "ASC"

	if strings.EqualFold(sortOrder, "desc") {
		order = "DESC"
	}

	return col + " " + order
}
