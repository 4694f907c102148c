package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema notes:
//   - users.email is unique case-insensitively (index on lower(email)).
//   - stores.owner_id is unique where set: one store per owner.
//   - ratings is keyed (user_id, store_id) so a resubmission is an update,
//     never a second row, and the upsert can lean on the constraint.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		address       TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'user',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_uniq
		ON users (lower(email))`,
	`CREATE TABLE IF NOT EXISTS stores (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		address    TEXT NOT NULL,
		owner_id   UUID REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS stores_owner_uniq
		ON stores (owner_id) WHERE owner_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS ratings (
		user_id    UUID NOT NULL REFERENCES users(id),
		store_id   UUID NOT NULL REFERENCES stores(id),
		rating     INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, store_id)
	)`,
}

// EnsureSchema creates the three tables and their constraints on boot.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
