package db

import (
	"context"
	"errors"
	"time"

	"github.com/ayushrkl/ratehub/internal/config"
	"github.com/ayushrkl/ratehub/internal/domain/user"
	"github.com/ayushrkl/ratehub/internal/security"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser seeds the configured admin account if it does not exist.
// Without it a fresh deployment has nobody who can create stores.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	// check if the user exists

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE lower(email) = lower($1)`, cfg.AdminEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Address:      cfg.AdminAddress,
		Role:         user.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, address, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Address, u.Role, u.CreatedAt, u.UpdatedAt,
	)

	return err
}
