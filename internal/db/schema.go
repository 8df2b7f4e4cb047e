package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// GuestbookSchema creates the guestbook table if missing. Needs postgres 13+ for gen_random_uuid().
const GuestbookSchema = `
CREATE TABLE IF NOT EXISTS guestbook
(
    id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name       TEXT        NOT NULL,
    message    TEXT        NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS ix_guestbook_created_at ON guestbook (created_at DESC);
`

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, GuestbookSchema); err != nil {
		return fmt.Errorf("ensure guestbook schema: %w", err)
	}
	return nil
}
